// pkg/notify/templates.go
package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"QDIIRadar/pkg/model"
)

const subjectPrefix = "[QDII Radar]"

var alertTitles = map[model.TriggerType]string{
	model.TriggerPremiumHigh: "高溢价警报",
	model.TriggerPremiumLow:  "折价机会警报",
	model.TriggerLimitChange: "限额变更警报",
	model.TriggerLimitHigh:   "限额放开警报",
}

var alertValueLabels = map[model.TriggerType]string{
	model.TriggerPremiumHigh: "溢价率",
	model.TriggerPremiumLow:  "溢价率",
	model.TriggerLimitChange: "申购限额",
	model.TriggerLimitHigh:   "申购限额",
}

var alertBodyTmpl = template.Must(template.New("alert").Parse(`<html><body>
<h2>{{.Title}}</h2>
<p><b>{{.Event.FundName}}</b> ({{.Event.FundCode}})</p>
<table border="0" cellpadding="4">
<tr><td>{{.ValueLabel}}</td><td>{{.Event.OldValue}} &rarr; <b>{{.Event.NewValue}}</b></td></tr>
<tr><td>最新净值</td><td>{{printf "%.4f" .Event.MarketPrice}}</td></tr>
{{if gt .Event.Valuation 0.0}}<tr><td>场内价格</td><td>{{printf "%.4f" .Event.Valuation}}</td></tr>{{end}}
<tr><td>申购状态</td><td>{{.Event.LimitText}}</td></tr>
</table>
<p style="color:#888;font-size:12px">发送时间 {{.SentAt}}（北京时间）</p>
</body></html>`))

// AlertSubject 告警邮件主题
func AlertSubject(ev model.AlertEvent) string {
	title := alertTitles[ev.AlertType]
	if title == "" {
		title = "警报"
	}
	return fmt.Sprintf("%s %s: %s (%s)", subjectPrefix, title, ev.FundName, ev.FundCode)
}

// RenderAlertBodies 渲染告警邮件正文，返回纯文本与 HTML 两种格式
func RenderAlertBodies(ev model.AlertEvent, now time.Time) (textBody, htmlBody string, err error) {
	title := alertTitles[ev.AlertType]
	label := alertValueLabels[ev.AlertType]
	sentAt := now.In(CST).Format("2006-01-02 15:04:05")

	textBody = fmt.Sprintf("%s\n%s (%s)\n%s: %s → %s\n最新净值: %.4f\n申购状态: %s\n发送时间: %s（北京时间）\n",
		title, ev.FundName, ev.FundCode, label, ev.OldValue, ev.NewValue,
		ev.MarketPrice, ev.LimitText, sentAt)

	var buf bytes.Buffer
	data := struct {
		Title      string
		ValueLabel string
		Event      model.AlertEvent
		SentAt     string
	}{Title: title, ValueLabel: label, Event: ev, SentAt: sentAt}
	if err := alertBodyTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("渲染告警邮件失败: %w", err)
	}
	return textBody, buf.String(), nil
}

// TestEmailSubject 测试邮件主题
func TestEmailSubject() string {
	return subjectPrefix + " 测试邮件"
}

// TestEmailBodies 测试邮件正文
func TestEmailBodies(now time.Time) (textBody, htmlBody string) {
	sentAt := now.In(CST).Format("2006-01-02 15:04:05")
	textBody = fmt.Sprintf("这是一封测试邮件，SMTP 配置正常。\n发送时间: %s（北京时间）\n", sentAt)
	htmlBody = fmt.Sprintf("<html><body><p>这是一封测试邮件，SMTP 配置正常。</p>"+
		"<p style=\"color:#888;font-size:12px\">发送时间 %s（北京时间）</p></body></html>", sentAt)
	return textBody, htmlBody
}
