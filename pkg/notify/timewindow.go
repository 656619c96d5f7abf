// pkg/notify/timewindow.go
package notify

import (
	"sync"
	"time"

	"QDIIRadar/pkg/model"
)

// CST 北京时间，告警时段判断固定使用该时区
var CST = time.FixedZone("CST", 8*3600)

// Calendar 交易日历：周一至周五扣除节假日
type Calendar struct {
	mutex    sync.RWMutex
	holidays map[string]struct{} // YYYY-MM-DD（北京时间）
}

// NewCalendar 创建交易日历
func NewCalendar(holidays []string) *Calendar {
	c := &Calendar{}
	c.SetHolidays(holidays)
	return c
}

// SetHolidays 整体替换节假日集合（定时任务刷新时调用）
func (c *Calendar) SetHolidays(holidays []string) {
	set := make(map[string]struct{}, len(holidays))
	for _, d := range holidays {
		set[d] = struct{}{}
	}

	c.mutex.Lock()
	c.holidays = set
	c.mutex.Unlock()
}

// IsTradingDay 是否为交易日（按北京时间判断）
func (c *Calendar) IsTradingDay(t time.Time) bool {
	local := t.In(CST)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}

	c.mutex.RLock()
	_, holiday := c.holidays[local.Format("2006-01-02")]
	c.mutex.RUnlock()
	return !holiday
}

// InTradingHours 是否处于交易时段（交易日 09:30-15:00，含边界）
func (c *Calendar) InTradingHours(t time.Time) bool {
	if !c.IsTradingDay(t) {
		return false
	}
	local := t.In(CST)
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= 9*60+30 && minutes <= 15*60
}

// AlertingPermitted 当前时刻是否允许发送告警
// 窗口外产生的事件直接丢弃，不排队等窗口打开
func (c *Calendar) AlertingPermitted(period string, now time.Time) bool {
	if period == model.PeriodTradingHours {
		return c.InTradingHours(now)
	}
	return true
}
