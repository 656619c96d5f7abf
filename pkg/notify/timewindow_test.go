package notify

import (
	"testing"
	"time"

	"QDIIRadar/pkg/model"
)

func TestTradingHoursWindow(t *testing.T) {
	cal := NewCalendar(nil)

	// 2026-09-02 是周三
	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"交易日盘中", time.Date(2026, 9, 2, 10, 0, 0, 0, CST), true},
		{"交易日晚间", time.Date(2026, 9, 2, 20, 0, 0, 0, CST), false},
		{"开盘边界", time.Date(2026, 9, 2, 9, 30, 0, 0, CST), true},
		{"开盘前一分钟", time.Date(2026, 9, 2, 9, 29, 0, 0, CST), false},
		{"收盘边界", time.Date(2026, 9, 2, 15, 0, 0, 0, CST), true},
		{"收盘后一分钟", time.Date(2026, 9, 2, 15, 1, 0, 0, CST), false},
		{"周六盘中", time.Date(2026, 9, 5, 10, 0, 0, 0, CST), false},
	}
	for _, c := range cases {
		if got := cal.InTradingHours(c.at); got != c.want {
			t.Errorf("%s: InTradingHours(%v) = %v, want %v", c.name, c.at, got, c.want)
		}
	}
}

func TestHolidayExcluded(t *testing.T) {
	cal := NewCalendar([]string{"2026-10-01"})
	holiday := time.Date(2026, 10, 1, 10, 0, 0, 0, CST) // 周四，节假日
	if cal.IsTradingDay(holiday) {
		t.Error("节假日不应为交易日")
	}
	if cal.InTradingHours(holiday) {
		t.Error("节假日盘中不应允许告警")
	}
}

// 时区换算：UTC 时刻落在北京时间交易时段内同样放行
func TestTradingHoursCrossTimezone(t *testing.T) {
	cal := NewCalendar(nil)
	utc := time.Date(2026, 9, 2, 3, 0, 0, 0, time.UTC) // 北京时间 11:00
	if !cal.InTradingHours(utc) {
		t.Error("UTC 03:00 对应北京时间 11:00，应在交易时段内")
	}
}

func TestAlertingPermitted(t *testing.T) {
	cal := NewCalendar(nil)
	evening := time.Date(2026, 9, 2, 20, 0, 0, 0, CST)
	if !cal.AlertingPermitted(model.PeriodAllDay, evening) {
		t.Error("all_day 应全天允许")
	}
	if cal.AlertingPermitted(model.PeriodTradingHours, evening) {
		t.Error("trading_hours 晚间不应允许")
	}
	morning := time.Date(2026, 9, 2, 10, 0, 0, 0, CST)
	if !cal.AlertingPermitted(model.PeriodTradingHours, morning) {
		t.Error("trading_hours 交易日盘中应允许")
	}
}

func TestSetHolidaysReplaces(t *testing.T) {
	cal := NewCalendar([]string{"2026-09-02"})
	day := time.Date(2026, 9, 2, 10, 0, 0, 0, CST)
	if cal.IsTradingDay(day) {
		t.Fatal("刷新前应为节假日")
	}
	cal.SetHolidays([]string{"2026-09-03"})
	if !cal.IsTradingDay(day) {
		t.Fatal("刷新后该日不再是节假日")
	}
}
