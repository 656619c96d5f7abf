package api

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server API服务器
type Server struct {
	router *gin.Engine
	srv    *http.Server
	logger *zap.Logger
}

// NewServer 创建新的API服务器
func NewServer(port string, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	return &Server{
		router: router,
		srv:    srv,
		logger: logger,
	}
}

// SetupRoutes 设置路由
func (s *Server) SetupRoutes(h *Handlers) {
	// 健康检查
	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	{
		// 基金池与快照
		api.GET("/funds", h.GetFunds)
		api.POST("/fund", h.AddFund)
		api.DELETE("/fund/:code", h.RemoveFund)

		// 交易日历
		api.GET("/trading-dates/today", h.TradingDateToday)
		api.GET("/trading-dates/check/:date", h.TradingDateCheck)

		n := api.Group("/notifications")
		{
			n.GET("/monitoring/status", h.MonitoringStatus)
			n.POST("/monitoring/start", h.StartMonitoring)
			n.POST("/monitoring/stop", h.StopMonitoring)
			n.POST("/monitoring/toggle", h.ToggleMonitoring)

			n.GET("/config", h.GetConfig)
			n.POST("/config/:key", h.UpdateConfig)

			n.GET("/triggers", h.ListAllTriggers)
			n.GET("/funds/:code/triggers", h.ListFundTriggers)
			n.POST("/funds/:code/triggers", h.CreateTrigger)
			n.PUT("/funds/:code/triggers/:id", h.UpdateTrigger)
			n.DELETE("/funds/:code/triggers/:id", h.DeleteTrigger)

			n.GET("/monitored-funds", h.ListMonitoredFunds)
			n.POST("/monitored-funds", h.ReplaceMonitoredFunds)
			n.GET("/monitored-funds/:code", h.GetMonitoredFund)
			n.PUT("/monitored-funds/:code", h.SetMonitoredFund)

			n.GET("/history", h.ListHistory)
			n.GET("/history/stats", h.HistoryStats)

			n.GET("/recipients", h.ListRecipients)
			n.POST("/recipients", h.AddRecipient)
			n.DELETE("/recipients/:email", h.RemoveRecipient)

			n.POST("/test-email", h.SendTestEmail)
			n.POST("/verify-config", h.VerifySMTPConfig)
		}
	}
}

// Start 启动服务器并等待退出信号
func (s *Server) Start() {
	go func() {
		s.logger.Info("API服务器启动", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	s.logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("服务器关闭失败", zap.Error(err))
		return
	}
	s.logger.Info("服务器已关闭")
}
