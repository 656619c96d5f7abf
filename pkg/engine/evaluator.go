// pkg/engine/evaluator.go
package engine

import (
	"fmt"

	"QDIIRadar/pkg/model"
)

// Defaults 触发器未携带阈值时的全局默认阈值
type Defaults struct {
	PremiumHigh float64
	PremiumLow  float64
}

// Evaluate 对单个基金做边沿触发评估
// 只有指标跨越阈值的那个周期产生事件，持续满足条件不重复触发。
// old 为 nil（首次观测）时只建立基线，不产生任何事件。
func Evaluate(old *model.FundSnapshot, cur model.FundSnapshot, triggers []model.FundTrigger, d Defaults) []model.AlertEvent {
	if old == nil {
		return nil
	}

	var events []model.AlertEvent
	for _, t := range triggers {
		if !t.Enabled || !t.TriggerType.Valid() {
			continue
		}
		switch t.TriggerType {
		case model.TriggerPremiumHigh:
			th := t.Threshold(d.PremiumHigh)
			if cur.PremiumRate >= th && old.PremiumRate < th {
				events = append(events, premiumEvent(cur, t.TriggerType, old.PremiumRate, th))
			}
		case model.TriggerPremiumLow:
			th := t.Threshold(d.PremiumLow)
			if cur.PremiumRate <= th && old.PremiumRate > th {
				events = append(events, premiumEvent(cur, t.TriggerType, old.PremiumRate, th))
			}
		case model.TriggerLimitChange:
			if ev, ok := evalLimitChange(old, cur, t); ok {
				events = append(events, ev)
			}
		case model.TriggerLimitHigh:
			if ev, ok := evalLimitHigh(old, cur, t); ok {
				events = append(events, ev)
			}
		}
	}
	return events
}

func premiumEvent(cur model.FundSnapshot, typ model.TriggerType, oldRate, th float64) model.AlertEvent {
	return model.AlertEvent{
		FundCode:    cur.Code,
		FundName:    cur.Name,
		AlertType:   typ,
		OldValue:    fmt.Sprintf("%.2f%%", oldRate),
		NewValue:    fmt.Sprintf("%.2f%%", cur.PremiumRate),
		MarketPrice: cur.MarketPrice,
		Valuation:   cur.Valuation,
		LimitText:   cur.LimitText,
		Threshold:   th,
	}
}

// evalLimitChange 限额文案变化即触发，但双方都处于暂停状态时静默；
// 携带阈值时仅新限额金额超过阈值的变化触发
func evalLimitChange(old *model.FundSnapshot, cur model.FundSnapshot, t model.FundTrigger) (model.AlertEvent, bool) {
	if old.LimitText == cur.LimitText {
		return model.AlertEvent{}, false
	}
	oldAmount, oldOK := model.ParseLimitAmount(old.LimitText)
	newAmount, newOK := model.ParseLimitAmount(cur.LimitText)
	if oldOK && newOK && oldAmount == model.LimitSuspended && newAmount == model.LimitSuspended {
		return model.AlertEvent{}, false
	}
	th := 0.0
	if t.ThresholdValue != nil {
		th = *t.ThresholdValue
		if !newOK || newAmount <= th {
			return model.AlertEvent{}, false
		}
	}
	return model.AlertEvent{
		FundCode:    cur.Code,
		FundName:    cur.Name,
		AlertType:   t.TriggerType,
		OldValue:    old.LimitText,
		NewValue:    cur.LimitText,
		MarketPrice: cur.MarketPrice,
		Valuation:   cur.Valuation,
		LimitText:   cur.LimitText,
		Threshold:   th,
	}, true
}

// evalLimitHigh 限额放开上穿阈值触发；新状态为暂停或不限时不触发，
// 任一侧文案无法解析时跳过该触发器
func evalLimitHigh(old *model.FundSnapshot, cur model.FundSnapshot, t model.FundTrigger) (model.AlertEvent, bool) {
	if t.ThresholdValue == nil {
		return model.AlertEvent{}, false
	}
	th := *t.ThresholdValue
	newAmount, newOK := model.ParseLimitAmount(cur.LimitText)
	oldAmount, oldOK := model.ParseLimitAmount(old.LimitText)
	if !newOK || !oldOK {
		return model.AlertEvent{}, false
	}
	if newAmount == model.LimitSuspended || newAmount == model.LimitUnlimited {
		return model.AlertEvent{}, false
	}
	if newAmount > th && oldAmount <= th {
		return model.AlertEvent{
			FundCode:    cur.Code,
			FundName:    cur.Name,
			AlertType:   t.TriggerType,
			OldValue:    old.LimitText,
			NewValue:    cur.LimitText,
			MarketPrice: cur.MarketPrice,
			Valuation:   cur.Valuation,
			LimitText:   cur.LimitText,
			Threshold:   th,
		}, true
	}
	return model.AlertEvent{}, false
}
