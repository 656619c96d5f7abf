package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"QDIIRadar/pkg/model"
	"QDIIRadar/pkg/monitor"
	"QDIIRadar/pkg/notify"
	"QDIIRadar/pkg/repository"
)

// Handlers API处理程序
type Handlers struct {
	store      repository.Store
	monitor    *monitor.Monitor
	dispatcher *notify.Dispatcher
	calendar   *notify.Calendar
	logger     *zap.Logger
}

// NewHandlers 创建新的API处理程序
func NewHandlers(store repository.Store, m *monitor.Monitor, dispatcher *notify.Dispatcher,
	calendar *notify.Calendar, logger *zap.Logger) *Handlers {
	return &Handlers{
		store:      store,
		monitor:    m,
		dispatcher: dispatcher,
		calendar:   calendar,
		logger:     logger,
	}
}

// HealthCheck 健康检查处理程序
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// fundView 基金列表视图：快照叠加监控标记与近一年涨跌
type fundView struct {
	model.FundSnapshot
	Monitored     bool     `json:"monitored"`
	OneYearChange *float64 `json:"one_year_change,omitempty"`
}

// GetFunds 获取基金池全量快照
func (h *Handlers) GetFunds(c *gin.Context) {
	snaps, err := h.store.AllSnapshots()
	if err != nil {
		h.logger.Error("读取快照失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	monitored, err := h.store.MonitoredCodes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	monitoredSet := make(map[string]struct{}, len(monitored))
	for _, code := range monitored {
		monitoredSet[code] = struct{}{}
	}

	navChanges, err := h.store.NavChanges()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	views := make([]fundView, 0, len(snaps))
	for _, snap := range snaps {
		v := fundView{FundSnapshot: snap}
		_, v.Monitored = monitoredSet[snap.Code]
		if change, ok := navChanges[snap.Code]; ok {
			pct := change.PercentageChange
			v.OneYearChange = &pct
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, gin.H{"funds": views, "count": len(views)})
}

// AddFund 向基金池添加基金
func (h *Handlers) AddFund(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code不能为空"})
		return
	}

	if err := h.store.AddWatched(req.Code, req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": req.Code})
}

// RemoveFund 从基金池删除基金
func (h *Handlers) RemoveFund(c *gin.Context) {
	code := c.Param("code")
	if err := h.store.RemoveWatched(code); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code})
}

// TradingDateToday 今天是否为交易日（北京时间）
func (h *Handlers) TradingDateToday(c *gin.Context) {
	now := time.Now().In(notify.CST)
	c.JSON(http.StatusOK, gin.H{
		"date":           now.Format("2006-01-02"),
		"is_trading_day": h.calendar.IsTradingDay(now),
	})
}

// TradingDateCheck 检查指定日期是否为交易日
func (h *Handlers) TradingDateCheck(c *gin.Context) {
	raw := c.Param("date")
	day, err := time.ParseInLocation("2006-01-02", raw, notify.CST)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "日期格式应为YYYY-MM-DD"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":           raw,
		"is_trading_day": h.calendar.IsTradingDay(day),
	})
}
