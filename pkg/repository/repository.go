package repository

import (
	"time"

	"QDIIRadar/pkg/model"
)

// SnapshotStore 基金快照基线
type SnapshotStore interface {
	// LastSnapshot 返回基金最近一次快照，不存在时返回 (nil, nil)
	LastSnapshot(code string) (*model.FundSnapshot, error)
	SaveSnapshots(snaps []model.FundSnapshot) error
	AllSnapshots() ([]model.FundSnapshot, error)
}

// TriggerStore 触发器存取
type TriggerStore interface {
	TriggersForFund(code string) ([]model.FundTrigger, error)
	AllTriggers() ([]model.FundTrigger, error)
	GetTrigger(id string) (*model.FundTrigger, error)
	CreateTrigger(t *model.FundTrigger) error
	UpdateTrigger(t *model.FundTrigger) error
	DeleteTrigger(id string) error
}

// ConfigStore 运行时配置表
type ConfigStore interface {
	ConfigValues() (map[string]string, error)
	SetConfigValue(key, value string) error
	// LoadConfig 读取配置表并构造快照，缺失项取默认值
	LoadConfig() (model.GlobalConfig, error)
}

// MonitoredStore 监控基金集合
type MonitoredStore interface {
	MonitoredFunds() ([]model.MonitoredFund, error)
	// MonitoredCodes 仅返回 enabled 的基金代码
	MonitoredCodes() ([]string, error)
	ReplaceMonitored(codes []string) error
	SetMonitored(code string, enabled bool) error
	IsMonitored(code string) (bool, error)
}

// HistoryStore 通知历史
type HistoryStore interface {
	AppendHistory(rec *model.NotificationRecord) error
	// LastHistory 返回该基金该类型最近一条记录，不存在时返回 (nil, nil)
	LastHistory(code string, alertType model.TriggerType) (*model.NotificationRecord, error)
	ListHistory(limit, offset int) ([]model.NotificationRecord, int64, error)
	HistoryStats(now time.Time) (model.HistoryStats, error)
}

// RecipientStore 邮件收件人
type RecipientStore interface {
	Recipients() ([]model.EmailRecipient, error)
	ActiveRecipientEmails() ([]string, error)
	AddRecipient(email string) (*model.EmailRecipient, error)
	RemoveRecipient(email string) error
}

// WatchedStore 基金池（快照抓取全集）
type WatchedStore interface {
	WatchedFunds() ([]model.WatchedFund, error)
	AddWatched(code, name string) error
	RemoveWatched(code string) error
}

// NavCacheStore 近一年净值涨跌缓存
type NavCacheStore interface {
	NavChanges() (map[string]model.NavChange, error)
	SaveNavChange(c model.NavChange) error
}

// Store 监控与 API 依赖的完整存储面
type Store interface {
	SnapshotStore
	TriggerStore
	ConfigStore
	MonitoredStore
	HistoryStore
	RecipientStore
	WatchedStore
	NavCacheStore
}
