// pkg/model/fund.go
package model

import (
	"time"
)

// FundSnapshot 基金某一时刻的市场状态快照
// Valuation 为场内交易价（非场内基金为0），MarketPrice 为基金净值
type FundSnapshot struct {
	Code        string    `gorm:"type:varchar(20);primaryKey" json:"code"`
	Name        string    `gorm:"type:varchar(100)" json:"name"`
	Valuation   float64   `gorm:"type:decimal(12,4)" json:"valuation"`
	MarketPrice float64   `gorm:"type:decimal(12,4)" json:"marketPrice"`
	PremiumRate float64   `gorm:"type:decimal(10,4)" json:"premiumRate"`
	LimitText   string    `gorm:"type:varchar(100)" json:"limitText"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 每个基金只保留最近一条快照作为对比基线
func (FundSnapshot) TableName() string {
	return "fund_last_snapshots"
}

// IsExchangeTraded 是否为场内基金（有实时交易价）
func (s FundSnapshot) IsExchangeTraded() bool {
	return s.Valuation > 0
}

// WatchedFund 基金池中的基金（快照抓取的全集）
type WatchedFund struct {
	Code      string    `gorm:"type:varchar(20);primaryKey" json:"code"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (WatchedFund) TableName() string {
	return "watched_funds"
}

// MonitoredFund 启用告警监控的基金
type MonitoredFund struct {
	FundCode  string    `gorm:"type:varchar(20);primaryKey" json:"fund_code"`
	Enabled   bool      `gorm:"default:true;not null" json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (MonitoredFund) TableName() string {
	return "monitored_funds"
}

// NavChange 基金近一年累计净值涨跌幅缓存
type NavChange struct {
	FundCode         string    `gorm:"type:varchar(20);primaryKey" json:"fund_code"`
	NavOneYearAgo    float64   `gorm:"type:decimal(12,4)" json:"nav_1_year_ago"`
	PercentageChange float64   `gorm:"type:decimal(10,4);not null" json:"percentage_change"`
	DaysCalculated   int       `gorm:"not null;default:0" json:"days_calculated"`
	CachedAt         time.Time `gorm:"index" json:"cached_at"`
}

func (NavChange) TableName() string {
	return "nav_change_cache"
}
