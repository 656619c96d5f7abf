// pkg/model/config.go
package model

import (
	"fmt"
	"strconv"
	"time"
)

// ConfigEntry 运行时可变配置项（key/value 持久化）
type ConfigEntry struct {
	Key       string    `gorm:"type:varchar(50);primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ConfigEntry) TableName() string {
	return "notification_config"
}

// 告警时段
const (
	PeriodAllDay       = "all_day"       // 全天允许
	PeriodTradingHours = "trading_hours" // 仅交易时段（北京时间 09:30-15:00 交易日）
)

// DefaultConfigValues 首次启动写入配置表的默认值
func DefaultConfigValues() map[string]string {
	return map[string]string{
		"monitoring_enabled":     "true",
		"smtp_enabled":           "false",
		"check_interval_seconds": "180",
		"alert_time_period":      PeriodAllDay,
		"premium_threshold_high": "5.0",
		"premium_threshold_low":  "-5.0",
		"debounce_minutes":       "1",
		"smtp_host":              "smtp.gmail.com",
		"smtp_port":              "587",
		"smtp_username":          "",
		"smtp_password":          "",
		"from_email":             "",
	}
}

// GlobalConfig 监控循环每个周期读取一次的配置快照
// 值对象：循环内各阶段只使用本周期的快照，修改在下一周期生效
type GlobalConfig struct {
	MonitoringEnabled    bool    `json:"monitoring_enabled"`
	SMTPEnabled          bool    `json:"smtp_enabled"`
	CheckIntervalSeconds int     `json:"check_interval_seconds"`
	AlertTimePeriod      string  `json:"alert_time_period"`
	PremiumThresholdHigh float64 `json:"premium_threshold_high"`
	PremiumThresholdLow  float64 `json:"premium_threshold_low"`
	DebounceMinutes      int     `json:"debounce_minutes"`
	SMTPHost             string  `json:"smtp_host"`
	SMTPPort             int     `json:"smtp_port"`
	SMTPUsername         string  `json:"smtp_username"`
	SMTPPassword         string  `json:"-"`
	FromEmail            string  `json:"from_email"`
}

// ConfigFromMap 由配置表内容构造快照，缺失或非法的项取默认值
func ConfigFromMap(values map[string]string) GlobalConfig {
	defaults := DefaultConfigValues()
	get := func(key string) string {
		if v, ok := values[key]; ok {
			return v
		}
		return defaults[key]
	}
	parseBool := func(key string) bool {
		b, err := strconv.ParseBool(get(key))
		if err != nil {
			b, _ = strconv.ParseBool(defaults[key])
		}
		return b
	}
	parseInt := func(key string) int {
		n, err := strconv.Atoi(get(key))
		if err != nil {
			n, _ = strconv.Atoi(defaults[key])
		}
		return n
	}
	parseFloat := func(key string) float64 {
		f, err := strconv.ParseFloat(get(key), 64)
		if err != nil {
			f, _ = strconv.ParseFloat(defaults[key], 64)
		}
		return f
	}

	cfg := GlobalConfig{
		MonitoringEnabled:    parseBool("monitoring_enabled"),
		SMTPEnabled:          parseBool("smtp_enabled"),
		CheckIntervalSeconds: parseInt("check_interval_seconds"),
		AlertTimePeriod:      get("alert_time_period"),
		PremiumThresholdHigh: parseFloat("premium_threshold_high"),
		PremiumThresholdLow:  parseFloat("premium_threshold_low"),
		DebounceMinutes:      parseInt("debounce_minutes"),
		SMTPHost:             get("smtp_host"),
		SMTPPort:             parseInt("smtp_port"),
		SMTPUsername:         get("smtp_username"),
		SMTPPassword:         get("smtp_password"),
		FromEmail:            get("from_email"),
	}
	if cfg.CheckIntervalSeconds <= 0 {
		cfg.CheckIntervalSeconds = 180
	}
	if cfg.DebounceMinutes < 0 {
		cfg.DebounceMinutes = 1
	}
	if cfg.AlertTimePeriod != PeriodAllDay && cfg.AlertTimePeriod != PeriodTradingHours {
		cfg.AlertTimePeriod = PeriodAllDay
	}
	return cfg
}

// CheckInterval 轮询间隔
func (c GlobalConfig) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// DebounceWindow 防抖窗口
func (c GlobalConfig) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceMinutes) * time.Minute
}

// ValidateConfigValue 校验单个配置项的新值；非法值返回错误，存量值不受影响
func ValidateConfigValue(key, value string) error {
	switch key {
	case "monitoring_enabled", "smtp_enabled":
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("配置项 %s 需要布尔值: %q", key, value)
		}
	case "check_interval_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("配置项 %s 需要正整数: %q", key, value)
		}
	case "debounce_minutes":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("配置项 %s 需要非负整数: %q", key, value)
		}
	case "smtp_port":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("配置项 %s 需要 1-65535 端口号: %q", key, value)
		}
	case "premium_threshold_high", "premium_threshold_low":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("配置项 %s 需要数值: %q", key, value)
		}
	case "alert_time_period":
		if value != PeriodAllDay && value != PeriodTradingHours {
			return fmt.Errorf("配置项 %s 需要 %s 或 %s: %q", key, PeriodAllDay, PeriodTradingHours, value)
		}
	case "smtp_host", "smtp_username", "smtp_password", "from_email":
		// 任意字符串
	default:
		return fmt.Errorf("未知配置项: %s", key)
	}
	return nil
}

// MonitoringStatus 监控循环运行状态
type MonitoringStatus struct {
	Running        bool       `json:"running"`
	Enabled        bool       `json:"enabled"`
	LastCheckTime  *time.Time `json:"last_check_time,omitempty"`
	MonitoredCount int        `json:"monitored_count"`
	IntervalSecs   int        `json:"interval_seconds"`
}
