package model

import "testing"

func TestParseLimitAmount(t *testing.T) {
	cases := []struct {
		text   string
		amount float64
		ok     bool
	}{
		{"暂停", 0, true},
		{"暂停申购", 0, true},
		{"不限", -1, true},
		{"限100", 100, true},
		{"限5万", 50000, true},
		{"限2.5万", 25000, true},
		{"限1.20亿", 120000000, true},
		{"", 0, false},
		{"开放申购", 0, false},
		{"限abc", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseLimitAmount(c.text)
		if ok != c.ok || got != c.amount {
			t.Errorf("ParseLimitAmount(%q) = (%v, %v), want (%v, %v)", c.text, got, ok, c.amount, c.ok)
		}
	}
}

func TestFormatLimitText(t *testing.T) {
	cases := []struct {
		status string
		amount float64
		want   string
	}{
		{"暂停申购", 0, "暂停"},
		{"开放申购", 0, "不限"},
		{"开放申购", 100, "限100"},
		{"开放申购", 50000, "限5万"},
		{"开放申购", 25000, "限2.5万"},
		{"开放申购", 120000000, "限1.20亿"},
		{"", 0, "未知"},
		{"限大额", 0, "限大额"},
	}
	for _, c := range cases {
		if got := FormatLimitText(c.status, c.amount); got != c.want {
			t.Errorf("FormatLimitText(%q, %v) = %q, want %q", c.status, c.amount, got, c.want)
		}
	}
}

func TestConfigFromMapDefaults(t *testing.T) {
	cfg := ConfigFromMap(nil)
	if !cfg.MonitoringEnabled || cfg.SMTPEnabled {
		t.Errorf("默认开关错误: monitoring=%v smtp=%v", cfg.MonitoringEnabled, cfg.SMTPEnabled)
	}
	if cfg.CheckIntervalSeconds != 180 || cfg.DebounceMinutes != 1 {
		t.Errorf("默认间隔错误: interval=%d debounce=%d", cfg.CheckIntervalSeconds, cfg.DebounceMinutes)
	}
	if cfg.PremiumThresholdHigh != 5.0 || cfg.PremiumThresholdLow != -5.0 {
		t.Errorf("默认阈值错误: high=%v low=%v", cfg.PremiumThresholdHigh, cfg.PremiumThresholdLow)
	}

	cfg = ConfigFromMap(map[string]string{"check_interval_seconds": "-5", "alert_time_period": "bogus"})
	if cfg.CheckIntervalSeconds != 180 {
		t.Errorf("非法间隔应回退默认值, got %d", cfg.CheckIntervalSeconds)
	}
	if cfg.AlertTimePeriod != PeriodAllDay {
		t.Errorf("非法时段应回退 all_day, got %s", cfg.AlertTimePeriod)
	}
}

func TestValidateConfigValue(t *testing.T) {
	valid := map[string]string{
		"monitoring_enabled":     "false",
		"check_interval_seconds": "60",
		"premium_threshold_low":  "-3.5",
		"alert_time_period":      "trading_hours",
		"smtp_port":              "465",
		"smtp_host":              "smtp.example.com",
	}
	for k, v := range valid {
		if err := ValidateConfigValue(k, v); err != nil {
			t.Errorf("ValidateConfigValue(%s, %s) 不应报错: %v", k, v, err)
		}
	}

	invalid := map[string]string{
		"check_interval_seconds": "0",
		"debounce_minutes":       "-1",
		"smtp_port":              "99999",
		"alert_time_period":      "night_only",
		"monitoring_enabled":     "yes!",
		"no_such_key":            "1",
	}
	for k, v := range invalid {
		if err := ValidateConfigValue(k, v); err == nil {
			t.Errorf("ValidateConfigValue(%s, %s) 应报错", k, v)
		}
	}
}
