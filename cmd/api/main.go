package main

import (
	"log"

	"go.uber.org/zap"

	"QDIIRadar/pkg/api"
	"QDIIRadar/pkg/config"
	"QDIIRadar/pkg/database"
	"QDIIRadar/pkg/logger"
	"QDIIRadar/pkg/messaging"
	"QDIIRadar/pkg/monitor"
	"QDIIRadar/pkg/notify"
	"QDIIRadar/pkg/provider"
	"QDIIRadar/pkg/scheduler"
)

func main() {
	cfg, err := config.LoadConfig(config.GetDefaultConfigPath())
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Sync()

	// 存储不可用视为启动失败
	store, err := database.NewStore(cfg)
	if err != nil {
		zlog.Fatal("初始化存储失败", zap.Error(err))
	}
	defer store.Close()

	eastmoney := provider.NewEastmoneyClient(cfg, zlog)
	calendar := notify.NewCalendar(cfg.Calendar.Holidays)
	dispatcher := notify.NewDispatcher(notify.NewSMTPMailer(), store, store, zlog)

	opts := []monitor.Option{}
	if cfg.NATS.URL != "" {
		publisher, err := messaging.NewAlertPublisher(cfg.NATS.URL, cfg.NATS.ClientID, zlog)
		if err != nil {
			zlog.Warn("NATS不可用，告警广播已禁用", zap.Error(err))
		} else {
			defer publisher.Close()
			opts = append(opts, monitor.WithPublisher(publisher))
		}
	}

	mon := monitor.New(store, eastmoney, dispatcher, calendar, zlog, opts...)

	// 配置启用时随进程自动启动监控循环
	globalCfg, err := store.LoadConfig()
	if err != nil {
		zlog.Fatal("读取监控配置失败", zap.Error(err))
	}
	if globalCfg.MonitoringEnabled {
		mon.Start()
	}
	defer mon.Stop()

	// 每日刷新重新读取配置文件，节假日表可在不重启进程的情况下更新
	holidaySource := func() []string {
		fresh, err := config.LoadConfig(config.GetDefaultConfigPath())
		if err != nil {
			zlog.Warn("重新加载配置失败，沿用现有节假日表", zap.Error(err))
			return cfg.Calendar.Holidays
		}
		return fresh.Calendar.Holidays
	}
	sched := scheduler.New(calendar, holidaySource, eastmoney, store, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("启动定时任务失败", zap.Error(err))
	}
	defer sched.Stop()

	server := api.NewServer(cfg.API.Port, zlog)
	server.SetupRoutes(api.NewHandlers(store, mon, dispatcher, calendar, zlog))
	server.Start()
}
