// pkg/model/alert.go
package model

// AlertEvent 一次触发器命中产生的候选告警事件
// 由触发器评估器产生，经时间窗口与防抖过滤后交给通知器投递
type AlertEvent struct {
	FundCode    string      `json:"fund_code"`
	FundName    string      `json:"fund_name"`
	AlertType   TriggerType `json:"alert_type"`
	OldValue    string      `json:"old_value"`
	NewValue    string      `json:"new_value"`
	MarketPrice float64     `json:"market_price"`
	Valuation   float64     `json:"valuation"`
	LimitText   string      `json:"limit_text"`
	Threshold   float64     `json:"threshold"`
}

// DispatchResult 单个 (事件, 收件人) 的投递结果
type DispatchResult struct {
	Event     AlertEvent `json:"event"`
	Recipient string     `json:"recipient"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
}
