// pkg/scheduler/scheduler.go
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"QDIIRadar/pkg/notify"
	"QDIIRadar/pkg/provider"
	"QDIIRadar/pkg/repository"
)

// Scheduler 定时任务调度器
// 每日 08:00 刷新交易日历，18:00 刷新近一年净值涨跌缓存（均为北京时间）
type Scheduler struct {
	cron     *cron.Cron
	calendar *notify.Calendar
	holidays func() []string
	nav      provider.NavChangeProvider
	store    repository.Store
	logger   *zap.Logger
}

// New 创建调度器；holidays 为节假日来源（每次刷新重新读取）
func New(calendar *notify.Calendar, holidays func() []string, nav provider.NavChangeProvider,
	store repository.Store, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(notify.CST)),
		calendar: calendar,
		holidays: holidays,
		nav:      nav,
		store:    store,
		logger:   logger,
	}
}

// Start 注册并启动定时任务
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 8 * * *", s.refreshCalendar); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 18 * * *", s.RefreshNavCache); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("定时任务已启动")
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) refreshCalendar() {
	days := s.holidays()
	s.calendar.SetHolidays(days)
	s.logger.Info("交易日历已刷新", zap.Int("holidays", len(days)))
}

// RefreshNavCache 刷新基金池全部基金的近一年净值涨跌缓存
// 单个基金失败只跳过该基金
func (s *Scheduler) RefreshNavCache() {
	funds, err := s.store.WatchedFunds()
	if err != nil {
		s.logger.Error("读取基金池失败", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var updated int
	for _, f := range funds {
		change, err := s.nav.FetchOneYearChange(ctx, f.Code)
		if err != nil {
			s.logger.Warn("获取净值涨跌失败",
				zap.String("fund", f.Code), zap.Error(err))
			continue
		}
		if err := s.store.SaveNavChange(*change); err != nil {
			s.logger.Error("写入净值涨跌缓存失败",
				zap.String("fund", f.Code), zap.Error(err))
			continue
		}
		updated++
	}
	s.logger.Info("净值涨跌缓存已刷新",
		zap.Int("funds", len(funds)), zap.Int("updated", updated))
}
