// pkg/notify/dispatcher.go
package notify

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"QDIIRadar/pkg/model"
	"QDIIRadar/pkg/repository"
)

// Dispatcher 告警投递器
// 对每个 (事件, 收件人) 独立投递并各写一条历史记录；
// 单个失败不影响其余投递
type Dispatcher struct {
	mailer     Mailer
	history    repository.HistoryStore
	recipients repository.RecipientStore
	logger     *zap.Logger
	now        func() time.Time
}

// NewDispatcher 创建投递器
func NewDispatcher(mailer Mailer, history repository.HistoryStore, recipients repository.RecipientStore, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		mailer:     mailer,
		history:    history,
		recipients: recipients,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock 注入时钟，测试用
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Dispatch 投递一批告警事件
// now 为本监控周期的时钟读数，历史记录与防抖使用同一时间基准；
// smtp_enabled=false 时不尝试发送也不写历史
func (d *Dispatcher) Dispatch(cfg model.GlobalConfig, events []model.AlertEvent, now time.Time) []model.DispatchResult {
	if len(events) == 0 {
		return nil
	}
	if !cfg.SMTPEnabled {
		d.logger.Debug("SMTP未启用，跳过投递", zap.Int("events", len(events)))
		return nil
	}

	emails, err := d.recipients.ActiveRecipientEmails()
	if err != nil {
		d.logger.Error("读取收件人失败", zap.Error(err))
		return nil
	}
	if len(emails) == 0 {
		d.logger.Warn("没有可用收件人，告警未投递", zap.Int("events", len(events)))
		return nil
	}

	var results []model.DispatchResult
	for _, ev := range events {
		subject := AlertSubject(ev)
		textBody, htmlBody, err := RenderAlertBodies(ev, now)
		if err != nil {
			d.logger.Error("渲染告警邮件失败",
				zap.String("fund", ev.FundCode), zap.Error(err))
			continue
		}

		for _, to := range emails {
			sendErr := d.mailer.Send(cfg, to, subject, textBody, htmlBody)
			result := model.DispatchResult{Event: ev, Recipient: to, Success: sendErr == nil}
			if sendErr != nil {
				result.Error = sendErr.Error()
				d.logger.Error("告警邮件发送失败",
					zap.String("fund", ev.FundCode),
					zap.String("type", string(ev.AlertType)),
					zap.String("to", to),
					zap.Error(sendErr))
			} else {
				d.logger.Info("告警邮件已发送",
					zap.String("fund", ev.FundCode),
					zap.String("type", string(ev.AlertType)),
					zap.String("to", to))
			}

			rec := &model.NotificationRecord{
				FundCode:       ev.FundCode,
				FundName:       ev.FundName,
				AlertType:      ev.AlertType,
				OldValue:       ev.OldValue,
				NewValue:       ev.NewValue,
				SentAt:         now,
				RecipientEmail: to,
				Success:        result.Success,
				Error:          result.Error,
			}
			if err := d.history.AppendHistory(rec); err != nil {
				d.logger.Error("写入通知历史失败", zap.Error(err))
			}
			results = append(results, result)
		}
	}
	return results
}

// SendTest 发送测试邮件，绕过触发器、时间窗口与防抖
// to 为空时发送给全部活跃收件人
func (d *Dispatcher) SendTest(cfg model.GlobalConfig, to string) error {
	var targets []string
	if to != "" {
		targets = []string{to}
	} else {
		emails, err := d.recipients.ActiveRecipientEmails()
		if err != nil {
			return fmt.Errorf("读取收件人失败: %w", err)
		}
		if len(emails) == 0 {
			return fmt.Errorf("没有可用收件人")
		}
		targets = emails
	}

	textBody, htmlBody := TestEmailBodies(d.now())
	for _, target := range targets {
		if err := d.mailer.Send(cfg, target, TestEmailSubject(), textBody, htmlBody); err != nil {
			return fmt.Errorf("发送测试邮件到 %s 失败: %w", target, err)
		}
	}
	return nil
}

// VerifyConfig 校验 SMTP 配置是否可用
func (d *Dispatcher) VerifyConfig(cfg model.GlobalConfig) error {
	return d.mailer.Verify(cfg)
}
