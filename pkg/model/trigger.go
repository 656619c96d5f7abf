// pkg/model/trigger.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TriggerType 触发器类型枚举
type TriggerType string

const (
	TriggerPremiumHigh TriggerType = "premium_high" // 溢价率上穿阈值
	TriggerPremiumLow  TriggerType = "premium_low"  // 溢价率下穿阈值（折价机会）
	TriggerLimitChange TriggerType = "limit_change" // 申购限额变更
	TriggerLimitHigh   TriggerType = "limit_high"   // 申购限额放开超过阈值
)

// Valid 是否为已知触发器类型
func (t TriggerType) Valid() bool {
	switch t {
	case TriggerPremiumHigh, TriggerPremiumLow, TriggerLimitChange, TriggerLimitHigh:
		return true
	}
	return false
}

// RequiresThreshold 该类型是否必须携带阈值
// 溢价类触发器缺省时回退到全局阈值，limit_high 没有全局缺省值，必须显式给出
func (t TriggerType) RequiresThreshold() bool {
	return t == TriggerLimitHigh
}

// FundTrigger 用户为单个基金定义的告警条件
type FundTrigger struct {
	ID             string      `gorm:"type:uuid;primaryKey" json:"id"`
	FundCode       string      `gorm:"type:varchar(20);not null;index" json:"fund_code"`
	TriggerType    TriggerType `gorm:"type:varchar(30);not null;index" json:"trigger_type"`
	ThresholdValue *float64    `gorm:"type:decimal(12,4)" json:"threshold_value"`
	Enabled        bool        `gorm:"default:true;not null" json:"enabled"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (t *FundTrigger) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}

func (FundTrigger) TableName() string {
	return "fund_triggers"
}

// Threshold 返回触发器阈值，未设置时回退到给定默认值
func (t FundTrigger) Threshold(fallback float64) float64 {
	if t.ThresholdValue != nil {
		return *t.ThresholdValue
	}
	return fallback
}
