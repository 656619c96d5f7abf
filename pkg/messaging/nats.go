// pkg/messaging/nats.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"QDIIRadar/pkg/model"
)

// AlertPublisher 告警事件广播器
// 每条已投递的告警发布到 alerts.fund.<code>，供外部消费者订阅
type AlertPublisher struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	logger    *zap.Logger
}

// NewAlertPublisher 创建广播器并确保告警流存在
func NewAlertPublisher(natsURL, clientName string, logger *zap.Logger) (*AlertPublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(clientName),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // 无限重连
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS连接断开", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	p := &AlertPublisher{conn: nc, jetStream: js, logger: logger}
	if err := p.setupStream(); err != nil {
		logger.Warn("设置告警流失败", zap.Error(err))
	}
	return p, nil
}

func (p *AlertPublisher) setupStream() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := p.jetStream.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        "ALERTS",
		Subjects:    []string{"alerts.>"},
		Description: "基金告警事件流",
		Retention:   jetstream.LimitsPolicy,
		MaxMsgs:     10000,
		MaxAge:      7 * 24 * time.Hour, // 保留7天
	})
	if err != nil {
		return fmt.Errorf("创建告警流失败: %w", err)
	}
	return nil
}

// PublishAlert 发布单条告警事件
func (p *AlertPublisher) PublishAlert(ctx context.Context, ev model.AlertEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("序列化告警事件失败: %w", err)
	}

	subject := fmt.Sprintf("alerts.fund.%s", ev.FundCode)
	if _, err := p.jetStream.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("发布告警事件失败: %w", err)
	}
	p.logger.Debug("告警事件已广播",
		zap.String("subject", subject),
		zap.String("type", string(ev.AlertType)))
	return nil
}

// Close 关闭连接
func (p *AlertPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
