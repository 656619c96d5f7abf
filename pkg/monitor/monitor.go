// pkg/monitor/monitor.go
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"QDIIRadar/pkg/engine"
	"QDIIRadar/pkg/model"
	"QDIIRadar/pkg/notify"
	"QDIIRadar/pkg/provider"
	"QDIIRadar/pkg/repository"
)

// Publisher 告警事件广播接口，NATS 未配置时为 nil
type Publisher interface {
	PublishAlert(ctx context.Context, ev model.AlertEvent) error
}

// Monitor 后台监控循环
// 周期：读配置 → 抓快照 → 评估触发器 → 时间窗口 → 防抖 → 投递 → 回写基线。
// 配置是每周期读取的快照，修改在下一周期生效。
type Monitor struct {
	store      repository.Store
	provider   provider.SnapshotProvider
	dispatcher *notify.Dispatcher
	gate       *notify.DebounceGate
	calendar   *notify.Calendar
	publisher  Publisher
	logger     *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool

	mutex     sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	lastCheck *time.Time
}

// Option 监控循环可选项
type Option func(*Monitor)

// WithClock 注入时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithSleeper 注入休眠实现，测试用；返回 false 表示被取消
func WithSleeper(sleep func(ctx context.Context, d time.Duration) bool) Option {
	return func(m *Monitor) { m.sleep = sleep }
}

// WithPublisher 注入告警广播器
func WithPublisher(p Publisher) Option {
	return func(m *Monitor) { m.publisher = p }
}

// New 创建监控循环
func New(store repository.Store, p provider.SnapshotProvider, dispatcher *notify.Dispatcher,
	calendar *notify.Calendar, logger *zap.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		store:      store,
		provider:   p,
		dispatcher: dispatcher,
		gate:       notify.NewDebounceGate(store),
		calendar:   calendar,
		logger:     logger,
		now:        time.Now,
		sleep:      sleepWithContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Start 启动后台循环；已在运行时返回 false，不产生第二个循环
func (m *Monitor) Start() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.running {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true
	go m.loop(ctx)
	return true
}

// Stop 停止循环并等待退出；未运行时直接返回
func (m *Monitor) Stop() {
	m.mutex.Lock()
	if !m.running {
		m.mutex.Unlock()
		return
	}
	cancel := m.cancel
	done := m.done
	m.mutex.Unlock()

	cancel()
	<-done
}

// Running 循环是否在运行
func (m *Monitor) Running() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.running
}

// Status 当前监控状态
func (m *Monitor) Status() model.MonitoringStatus {
	cfg, err := m.store.LoadConfig()
	if err != nil {
		m.logger.Error("读取配置失败", zap.Error(err))
		cfg = model.ConfigFromMap(nil)
	}
	codes, err := m.store.MonitoredCodes()
	if err != nil {
		m.logger.Error("读取监控基金失败", zap.Error(err))
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	return model.MonitoringStatus{
		Running:        m.running,
		Enabled:        cfg.MonitoringEnabled,
		LastCheckTime:  m.lastCheck,
		MonitoredCount: len(codes),
		IntervalSecs:   cfg.CheckIntervalSeconds,
	}
}

func (m *Monitor) loop(ctx context.Context) {
	defer func() {
		m.mutex.Lock()
		m.running = false
		m.mutex.Unlock()
		close(m.done)
	}()

	m.logger.Info("监控循环启动")
	for {
		// 停止只在休眠期间生效，进行中的周期执行到底（数据源自带超时兜底）
		cfg, err := m.RunCycle(context.Background())
		if err != nil {
			m.logger.Error("监控周期失败", zap.Error(err))
		} else if !cfg.MonitoringEnabled {
			m.logger.Info("监控已禁用，循环退出")
			return
		}
		if !m.sleep(ctx, cfg.CheckInterval()) {
			m.logger.Info("监控循环停止")
			return
		}
	}
}

// RunCycle 执行一个监控周期
// 监控禁用时仍抓取并回写基线，只跳过评估与投递；
// 快照抓取失败时整个周期跳过，基线保持不变
func (m *Monitor) RunCycle(ctx context.Context) (model.GlobalConfig, error) {
	cfg, err := m.store.LoadConfig()
	if err != nil {
		return model.ConfigFromMap(nil), fmt.Errorf("读取配置失败: %w", err)
	}

	funds, err := m.store.WatchedFunds()
	if err != nil {
		return cfg, fmt.Errorf("读取基金池失败: %w", err)
	}

	snaps, err := m.provider.FetchSnapshots(ctx, funds)
	if err != nil {
		return cfg, fmt.Errorf("抓取基金快照失败: %w", err)
	}

	now := m.now()
	var events []model.AlertEvent
	if cfg.MonitoringEnabled {
		events = m.evaluate(cfg, snaps)
		m.deliver(ctx, cfg, events, now)
	}

	// 基线回写放在评估之后，评估使用的是上一周期的基线
	if err := m.store.SaveSnapshots(snaps); err != nil {
		return cfg, fmt.Errorf("回写基线失败: %w", err)
	}

	m.mutex.Lock()
	checked := now
	m.lastCheck = &checked
	m.mutex.Unlock()

	m.logger.Info("监控周期完成",
		zap.Int("funds", len(snaps)),
		zap.Int("events", len(events)),
		zap.Bool("enabled", cfg.MonitoringEnabled))
	return cfg, nil
}

// evaluate 对监控集合中的基金逐个评估，单个基金失败只跳过该基金
func (m *Monitor) evaluate(cfg model.GlobalConfig, snaps []model.FundSnapshot) []model.AlertEvent {
	codes, err := m.store.MonitoredCodes()
	if err != nil {
		m.logger.Error("读取监控基金失败", zap.Error(err))
		return nil
	}
	monitored := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		monitored[c] = struct{}{}
	}

	defaults := engine.Defaults{
		PremiumHigh: cfg.PremiumThresholdHigh,
		PremiumLow:  cfg.PremiumThresholdLow,
	}

	var events []model.AlertEvent
	for _, snap := range snaps {
		if _, ok := monitored[snap.Code]; !ok {
			continue
		}
		old, err := m.store.LastSnapshot(snap.Code)
		if err != nil {
			m.logger.Error("读取基金基线失败",
				zap.String("fund", snap.Code), zap.Error(err))
			continue
		}
		triggers, err := m.store.TriggersForFund(snap.Code)
		if err != nil {
			m.logger.Error("读取基金触发器失败",
				zap.String("fund", snap.Code), zap.Error(err))
			continue
		}
		events = append(events, engine.Evaluate(old, snap, triggers, defaults)...)
	}
	return events
}

// deliver 时间窗口 → 防抖 → 投递 → 广播
// 窗口外的事件直接丢弃，不排队等待窗口打开
func (m *Monitor) deliver(ctx context.Context, cfg model.GlobalConfig, events []model.AlertEvent, now time.Time) {
	if len(events) == 0 {
		return
	}
	if !m.calendar.AlertingPermitted(cfg.AlertTimePeriod, now) {
		m.logger.Info("告警时段外，事件已丢弃", zap.Int("events", len(events)))
		return
	}

	passed, err := m.gate.Filter(events, cfg.DebounceWindow(), now)
	if err != nil {
		m.logger.Error("防抖过滤失败", zap.Error(err))
		return
	}
	if len(passed) == 0 {
		return
	}

	results := m.dispatcher.Dispatch(cfg, passed, now)
	m.publish(ctx, results)
}

// publish 每个至少投递成功一次的事件广播一条
func (m *Monitor) publish(ctx context.Context, results []model.DispatchResult) {
	if m.publisher == nil {
		return
	}
	type key struct {
		code string
		typ  model.TriggerType
	}
	published := make(map[key]struct{})
	for _, r := range results {
		if !r.Success {
			continue
		}
		k := key{code: r.Event.FundCode, typ: r.Event.AlertType}
		if _, dup := published[k]; dup {
			continue
		}
		published[k] = struct{}{}
		if err := m.publisher.PublishAlert(ctx, r.Event); err != nil {
			m.logger.Error("广播告警事件失败",
				zap.String("fund", r.Event.FundCode), zap.Error(err))
		}
	}
}
