package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"QDIIRadar/pkg/model"
	"QDIIRadar/pkg/notify"
)

// MonitoringStatus 查询监控状态
func (h *Handlers) MonitoringStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Status())
}

// StartMonitoring 启用监控并启动循环
func (h *Handlers) StartMonitoring(c *gin.Context) {
	if err := h.store.SetConfigValue("monitoring_enabled", "true"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	started := h.monitor.Start()
	c.JSON(http.StatusOK, gin.H{"started": started, "status": h.monitor.Status()})
}

// StopMonitoring 禁用监控并停止循环
func (h *Handlers) StopMonitoring(c *gin.Context) {
	if err := h.store.SetConfigValue("monitoring_enabled", "false"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.monitor.Stop()
	c.JSON(http.StatusOK, gin.H{"status": h.monitor.Status()})
}

// ToggleMonitoring 切换监控开关
func (h *Handlers) ToggleMonitoring(c *gin.Context) {
	cfg, err := h.store.LoadConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cfg.MonitoringEnabled {
		h.StopMonitoring(c)
		return
	}
	h.StartMonitoring(c)
}

// GetConfig 读取全部配置项，密码不回传
func (h *Handlers) GetConfig(c *gin.Context) {
	values, err := h.store.ConfigValues()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, ok := values["smtp_password"]; ok {
		values["smtp_password"] = ""
	}
	c.JSON(http.StatusOK, gin.H{"config": values})
}

// UpdateConfig 更新单个配置项
// 未知键或非法值返回400，存量值不受影响；修改在下一监控周期生效
func (h *Handlers) UpdateConfig(c *gin.Context) {
	key := c.Param("key")
	var req struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体需要value字段"})
		return
	}

	if err := model.ValidateConfigValue(key, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.store.SetConfigValue(key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}

// ListAllTriggers 列出全部触发器
func (h *Handlers) ListAllTriggers(c *gin.Context) {
	triggers, err := h.store.AllTriggers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"triggers": triggers, "count": len(triggers)})
}

// ListFundTriggers 列出基金的触发器
func (h *Handlers) ListFundTriggers(c *gin.Context) {
	triggers, err := h.store.TriggersForFund(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"triggers": triggers, "count": len(triggers)})
}

type triggerRequest struct {
	TriggerType    model.TriggerType `json:"trigger_type" binding:"required"`
	ThresholdValue *float64          `json:"threshold_value"`
	Enabled        *bool             `json:"enabled"`
}

func (r *triggerRequest) validate() string {
	if !r.TriggerType.Valid() {
		return "未知触发器类型: " + string(r.TriggerType)
	}
	if r.TriggerType.RequiresThreshold() && r.ThresholdValue == nil {
		return "该触发器类型需要threshold_value"
	}
	return ""
}

// CreateTrigger 创建触发器
func (h *Handlers) CreateTrigger(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体格式错误"})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	trigger := &model.FundTrigger{
		FundCode:       c.Param("code"),
		TriggerType:    req.TriggerType,
		ThresholdValue: req.ThresholdValue,
		Enabled:        true,
	}
	if req.Enabled != nil {
		trigger.Enabled = *req.Enabled
	}
	if err := h.store.CreateTrigger(trigger); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trigger": trigger})
}

// UpdateTrigger 更新触发器
func (h *Handlers) UpdateTrigger(c *gin.Context) {
	id := c.Param("id")
	existing, err := h.store.GetTrigger(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing == nil || existing.FundCode != c.Param("code") {
		c.JSON(http.StatusNotFound, gin.H{"error": "触发器不存在"})
		return
	}

	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体格式错误"})
		return
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	existing.TriggerType = req.TriggerType
	existing.ThresholdValue = req.ThresholdValue
	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}
	if err := h.store.UpdateTrigger(existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trigger": existing})
}

// DeleteTrigger 删除触发器
func (h *Handlers) DeleteTrigger(c *gin.Context) {
	id := c.Param("id")
	existing, err := h.store.GetTrigger(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if existing == nil || existing.FundCode != c.Param("code") {
		c.JSON(http.StatusNotFound, gin.H{"error": "触发器不存在"})
		return
	}
	if err := h.store.DeleteTrigger(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// ListMonitoredFunds 列出监控集合
func (h *Handlers) ListMonitoredFunds(c *gin.Context) {
	funds, err := h.store.MonitoredFunds()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"funds": funds, "count": len(funds)})
}

// ReplaceMonitoredFunds 整体替换监控集合
func (h *Handlers) ReplaceMonitoredFunds(c *gin.Context) {
	var req struct {
		Codes []string `json:"codes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体需要codes字段"})
		return
	}
	if err := h.store.ReplaceMonitored(req.Codes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(req.Codes)})
}

// GetMonitoredFund 查询单个基金的监控标记
func (h *Handlers) GetMonitoredFund(c *gin.Context) {
	code := c.Param("code")
	enabled, err := h.store.IsMonitored(code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fund_code": code, "enabled": enabled})
}

// SetMonitoredFund 设置单个基金的监控标记
func (h *Handlers) SetMonitoredFund(c *gin.Context) {
	var req struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体需要enabled字段"})
		return
	}
	code := c.Param("code")
	if err := h.store.SetMonitored(code, *req.Enabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fund_code": code, "enabled": *req.Enabled})
}

// ListHistory 分页查询通知历史
func (h *Handlers) ListHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	records, total, err := h.store.ListHistory(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"history": records,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// HistoryStats 通知历史统计
func (h *Handlers) HistoryStats(c *gin.Context) {
	stats, err := h.store.HistoryStats(time.Now().In(notify.CST))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListRecipients 列出收件人
func (h *Handlers) ListRecipients(c *gin.Context) {
	recipients, err := h.store.Recipients()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipients": recipients, "count": len(recipients)})
}

// AddRecipient 添加收件人
func (h *Handlers) AddRecipient(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体需要email字段"})
		return
	}
	recipient, err := h.store.AddRecipient(req.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipient": recipient})
}

// RemoveRecipient 删除收件人
func (h *Handlers) RemoveRecipient(c *gin.Context) {
	email := c.Param("email")
	if err := h.store.RemoveRecipient(email); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": email})
}

// SendTestEmail 发送测试邮件，绕过触发器与防抖
func (h *Handlers) SendTestEmail(c *gin.Context) {
	var req struct {
		To string `json:"to"`
	}
	// 请求体可为空，默认发送给全部活跃收件人
	_ = c.ShouldBindJSON(&req)

	cfg, err := h.store.LoadConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cfg.SMTPHost == "" || cfg.SMTPPort == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "SMTP未配置"})
		return
	}

	if err := h.dispatcher.SendTest(cfg, req.To); err != nil {
		h.logger.Error("发送测试邮件失败", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// VerifySMTPConfig 校验SMTP配置
func (h *Handlers) VerifySMTPConfig(c *gin.Context) {
	cfg, err := h.store.LoadConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.dispatcher.VerifyConfig(cfg); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}
