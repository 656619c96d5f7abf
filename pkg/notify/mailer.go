// pkg/notify/mailer.go
package notify

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"QDIIRadar/pkg/model"
)

// Mailer 邮件发送器
type Mailer interface {
	// Send 向单个收件人发送 HTML 邮件
	Send(cfg model.GlobalConfig, to, subject, textBody, htmlBody string) error
	// Verify 校验 SMTP 配置：建连、握手、按需 STARTTLS 与认证
	Verify(cfg model.GlobalConfig) error
}

// SMTPMailer 基于 net/smtp 的发送器
type SMTPMailer struct {
	dialTimeout time.Duration
}

// NewSMTPMailer 创建 SMTP 发送器
func NewSMTPMailer() *SMTPMailer {
	return &SMTPMailer{dialTimeout: 10 * time.Second}
}

func (m *SMTPMailer) Send(cfg model.GlobalConfig, to, subject, textBody, htmlBody string) error {
	client, err := m.connect(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	from := cfg.FromEmail
	if from == "" {
		from = cfg.SMTPUsername
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("设置发件人失败: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("设置收件人失败: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("打开邮件数据流失败: %w", err)
	}
	if _, err := w.Write(buildMessage(from, to, subject, textBody, htmlBody)); err != nil {
		return fmt.Errorf("写入邮件内容失败: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("结束邮件数据流失败: %w", err)
	}
	return client.Quit()
}

func (m *SMTPMailer) Verify(cfg model.GlobalConfig) error {
	client, err := m.connect(cfg)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Quit()
}

// connect 建连、EHLO、按需 STARTTLS 与认证
func (m *SMTPMailer) connect(cfg model.GlobalConfig) (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)
	conn, err := net.DialTimeout("tcp", addr, m.dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("连接SMTP服务器失败: %w", err)
	}

	client, err := smtp.NewClient(conn, cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SMTP握手失败: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{ServerName: cfg.SMTPHost}
		if err := client.StartTLS(tlsCfg); err != nil {
			client.Close()
			return nil, fmt.Errorf("STARTTLS失败: %w", err)
		}
	}

	if cfg.SMTPUsername != "" {
		auth := smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return nil, fmt.Errorf("SMTP认证失败: %w", err)
		}
	}
	return client, nil
}

// buildMessage 组装 multipart/alternative 邮件
func buildMessage(from, to, subject, textBody, htmlBody string) []byte {
	boundary := "qdii-radar-boundary"
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\n"+
		"Content-Type: multipart/alternative; boundary=%q\r\n\r\n",
		from, to, subject, boundary)

	body := fmt.Sprintf("--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n"+
		"--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n--%s--\r\n",
		boundary, textBody, boundary, htmlBody, boundary)

	return []byte(headers + body)
}
