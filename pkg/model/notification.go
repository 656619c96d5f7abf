// pkg/model/notification.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRecord 通知历史记录（只增不改）
// 防抖按 (fund_code, alert_type) 查询最近一条记录，
// 失败的投递同样入库，避免对同一事件反复重试
type NotificationRecord struct {
	ID             string      `gorm:"type:uuid;primaryKey" json:"id"`
	FundCode       string      `gorm:"type:varchar(20);not null;index" json:"fund_code"`
	FundName       string      `gorm:"type:varchar(100);not null" json:"fund_name"`
	AlertType      TriggerType `gorm:"type:varchar(30);not null;index" json:"alert_type"`
	OldValue       string      `gorm:"type:text" json:"old_value"`
	NewValue       string      `gorm:"type:text" json:"new_value"`
	SentAt         time.Time   `gorm:"not null;index" json:"sent_at"`
	RecipientEmail string      `gorm:"type:varchar(255)" json:"recipient_email"`
	Success        bool        `gorm:"default:true;not null" json:"success"`
	Error          string      `gorm:"type:text" json:"error,omitempty"`
}

func (n *NotificationRecord) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (NotificationRecord) TableName() string {
	return "notification_history"
}

// HistoryStats 通知历史统计
type HistoryStats struct {
	TotalSent int64            `json:"total_sent"`
	TodaySent int64            `json:"today_sent"`
	ByType    map[string]int64 `json:"by_type"`
}

// EmailRecipient 邮件收件人
type EmailRecipient struct {
	ID      string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email   string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Active  bool      `gorm:"default:true;not null" json:"active"`
	AddedAt time.Time `json:"added_at"`
}

func (r *EmailRecipient) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

func (EmailRecipient) TableName() string {
	return "email_recipients"
}
