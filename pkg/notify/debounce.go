// pkg/notify/debounce.go
package notify

import (
	"fmt"
	"time"

	"QDIIRadar/pkg/model"
	"QDIIRadar/pkg/repository"
)

// DebounceGate 防抖闸门
// 同一 (基金, 告警类型) 在防抖窗口内最多放行一次，
// 以通知历史中最近一条记录（无论成败）为依据
type DebounceGate struct {
	history repository.HistoryStore
}

// NewDebounceGate 创建防抖闸门
func NewDebounceGate(history repository.HistoryStore) *DebounceGate {
	return &DebounceGate{history: history}
}

// Filter 过滤事件批次：同批次内重复键只保留第一条，
// 然后剔除防抖窗口内已有历史记录的事件
func (g *DebounceGate) Filter(events []model.AlertEvent, window time.Duration, now time.Time) ([]model.AlertEvent, error) {
	type key struct {
		code string
		typ  model.TriggerType
	}
	seen := make(map[key]struct{})

	var passed []model.AlertEvent
	for _, ev := range events {
		k := key{code: ev.FundCode, typ: ev.AlertType}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		if window > 0 {
			last, err := g.history.LastHistory(ev.FundCode, ev.AlertType)
			if err != nil {
				return nil, fmt.Errorf("查询防抖历史失败: %w", err)
			}
			if last != nil && now.Sub(last.SentAt) < window {
				continue
			}
		}
		passed = append(passed, ev)
	}
	return passed, nil
}
