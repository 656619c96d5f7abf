package engine

import (
	"testing"

	"QDIIRadar/pkg/model"
)

func floatPtr(v float64) *float64 { return &v }

func snap(code string, premium float64, limitText string) model.FundSnapshot {
	return model.FundSnapshot{
		Code:        code,
		Name:        "测试基金",
		Valuation:   1.05,
		MarketPrice: 1.00,
		PremiumRate: premium,
		LimitText:   limitText,
	}
}

func TestEvaluateFirstObservationNoEvents(t *testing.T) {
	triggers := []model.FundTrigger{
		{FundCode: "513100", TriggerType: model.TriggerPremiumHigh, ThresholdValue: floatPtr(5), Enabled: true},
		{FundCode: "513100", TriggerType: model.TriggerLimitChange, Enabled: true},
	}
	events := Evaluate(nil, snap("513100", 99, "暂停"), triggers, Defaults{})
	if len(events) != 0 {
		t.Fatalf("首次观测不应产生事件, got %d", len(events))
	}
}

// 溢价率序列 [3,6,7,4,8]，阈值5：只在 3→6 与 4→8 两次上穿触发
func TestPremiumHighEdgeTriggering(t *testing.T) {
	triggers := []model.FundTrigger{
		{FundCode: "513100", TriggerType: model.TriggerPremiumHigh, ThresholdValue: floatPtr(5), Enabled: true},
	}

	rates := []float64{3, 6, 7, 4, 8}
	var fired int
	var old *model.FundSnapshot
	for _, r := range rates {
		cur := snap("513100", r, "不限")
		fired += len(Evaluate(old, cur, triggers, Defaults{}))
		cp := cur
		old = &cp
	}
	if fired != 2 {
		t.Fatalf("期望触发2次, got %d", fired)
	}
}

func TestPremiumHighEventFields(t *testing.T) {
	triggers := []model.FundTrigger{
		{FundCode: "513100", TriggerType: model.TriggerPremiumHigh, ThresholdValue: floatPtr(5), Enabled: true},
	}
	old := snap("513100", 3.456, "不限")
	events := Evaluate(&old, snap("513100", 6.1, "不限"), triggers, Defaults{})
	if len(events) != 1 {
		t.Fatalf("期望1个事件, got %d", len(events))
	}
	ev := events[0]
	if ev.OldValue != "3.46%" || ev.NewValue != "6.10%" {
		t.Errorf("事件数值格式错误: old=%s new=%s", ev.OldValue, ev.NewValue)
	}
	if ev.AlertType != model.TriggerPremiumHigh || ev.Threshold != 5 {
		t.Errorf("事件类型或阈值错误: %+v", ev)
	}
}

func TestPremiumLowEdgeTriggering(t *testing.T) {
	triggers := []model.FundTrigger{
		{FundCode: "513100", TriggerType: model.TriggerPremiumLow, ThresholdValue: floatPtr(-5), Enabled: true},
	}

	old := snap("513100", -3, "不限")
	if n := len(Evaluate(&old, snap("513100", -6, "不限"), triggers, Defaults{})); n != 1 {
		t.Errorf("下穿应触发, got %d", n)
	}
	old = snap("513100", -6, "不限")
	if n := len(Evaluate(&old, snap("513100", -7, "不限"), triggers, Defaults{})); n != 0 {
		t.Errorf("持续低于阈值不应重复触发, got %d", n)
	}
}

// 未携带阈值的溢价触发器使用全局默认阈值
func TestPremiumDefaultThresholdFallback(t *testing.T) {
	triggers := []model.FundTrigger{
		{FundCode: "513100", TriggerType: model.TriggerPremiumHigh, Enabled: true},
	}
	old := snap("513100", 4, "不限")
	events := Evaluate(&old, snap("513100", 5.5, "不限"), triggers, Defaults{PremiumHigh: 5, PremiumLow: -5})
	if len(events) != 1 || events[0].Threshold != 5 {
		t.Fatalf("应回退默认阈值5触发, got %+v", events)
	}
}

func TestLimitChange(t *testing.T) {
	trigger := model.FundTrigger{FundCode: "513100", TriggerType: model.TriggerLimitChange, Enabled: true}
	triggers := []model.FundTrigger{trigger}

	cases := []struct {
		name     string
		old, new string
		want     int
	}{
		{"文案不变", "限5万", "限5万", 0},
		{"限额变化", "限5万", "限10万", 1},
		{"双方暂停静默", "暂停", "暂停申购", 0},
		{"进入暂停", "限5万", "暂停", 1},
		{"解除暂停", "暂停", "限1万", 1},
	}
	for _, c := range cases {
		oldSnap := snap("513100", 0, c.old)
		got := len(Evaluate(&oldSnap, snap("513100", 0, c.new), triggers, Defaults{}))
		if got != c.want {
			t.Errorf("%s: %q→%q 期望%d次, got %d", c.name, c.old, c.new, c.want, got)
		}
	}
}

func TestLimitChangeWithThreshold(t *testing.T) {
	triggers := []model.FundTrigger{
		{FundCode: "513100", TriggerType: model.TriggerLimitChange, ThresholdValue: floatPtr(50000), Enabled: true},
	}

	oldSnap := snap("513100", 0, "限1万")
	if n := len(Evaluate(&oldSnap, snap("513100", 0, "限2万"), triggers, Defaults{})); n != 0 {
		t.Errorf("新限额未超过阈值不应触发, got %d", n)
	}
	if n := len(Evaluate(&oldSnap, snap("513100", 0, "限10万"), triggers, Defaults{})); n != 1 {
		t.Errorf("新限额超过阈值应触发, got %d", n)
	}
	if n := len(Evaluate(&oldSnap, snap("513100", 0, "暂停"), triggers, Defaults{})); n != 0 {
		t.Errorf("新状态暂停且带阈值不应触发, got %d", n)
	}
}

func TestLimitHigh(t *testing.T) {
	triggers := []model.FundTrigger{
		{FundCode: "513100", TriggerType: model.TriggerLimitHigh, ThresholdValue: floatPtr(50000), Enabled: true},
	}

	cases := []struct {
		name     string
		old, new string
		want     int
	}{
		{"上穿阈值", "限1万", "限10万", 1},
		{"未上穿", "限1万", "限2万", 0},
		{"持续高于阈值", "限10万", "限20万", 0},
		{"暂停恢复上穿", "暂停", "限10万", 1},
		{"新状态暂停", "限10万", "暂停", 0},
		{"新状态不限", "限1万", "不限", 0},
		{"文案无法解析", "限1万", "大额申购", 0},
	}
	for _, c := range cases {
		oldSnap := snap("513100", 0, c.old)
		got := len(Evaluate(&oldSnap, snap("513100", 0, c.new), triggers, Defaults{}))
		if got != c.want {
			t.Errorf("%s: %q→%q 期望%d次, got %d", c.name, c.old, c.new, c.want, got)
		}
	}
}

func TestDisabledTriggerSkipped(t *testing.T) {
	triggers := []model.FundTrigger{
		{FundCode: "513100", TriggerType: model.TriggerPremiumHigh, ThresholdValue: floatPtr(5), Enabled: false},
	}
	old := snap("513100", 3, "不限")
	if n := len(Evaluate(&old, snap("513100", 8, "不限"), triggers, Defaults{})); n != 0 {
		t.Fatalf("禁用的触发器不应触发, got %d", n)
	}
}
