package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"QDIIRadar/pkg/model"
	"QDIIRadar/pkg/monitor"
	"QDIIRadar/pkg/notify"
	"QDIIRadar/pkg/repository"
)

type noopProvider struct{}

func (noopProvider) FetchSnapshots(ctx context.Context, funds []model.WatchedFund) ([]model.FundSnapshot, error) {
	return nil, nil
}

type noopMailer struct{}

func (noopMailer) Send(cfg model.GlobalConfig, to, subject, textBody, htmlBody string) error {
	return nil
}
func (noopMailer) Verify(cfg model.GlobalConfig) error { return nil }

func setupRouter(t *testing.T) (*gin.Engine, *repository.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	logger := zap.NewNop()
	calendar := notify.NewCalendar(nil)
	dispatcher := notify.NewDispatcher(noopMailer{}, store, store, logger)
	m := monitor.New(store, noopProvider{}, dispatcher, calendar, logger)

	router := gin.New()
	server := &Server{router: router, logger: logger}
	server.SetupRoutes(NewHandlers(store, m, dispatcher, calendar, logger))
	return router, store
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUpdateConfigValidation(t *testing.T) {
	router, store := setupRouter(t)

	// 非正整数间隔拒绝，存量值不变
	w := doJSON(router, http.MethodPost, "/api/notifications/config/check_interval_seconds",
		gin.H{"value": "0"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("非法间隔应返回400, got %d", w.Code)
	}
	values, _ := store.ConfigValues()
	if values["check_interval_seconds"] != "180" {
		t.Fatalf("存量值不应被修改, got %s", values["check_interval_seconds"])
	}

	// 未知配置项拒绝
	w = doJSON(router, http.MethodPost, "/api/notifications/config/no_such_key",
		gin.H{"value": "1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("未知配置项应返回400, got %d", w.Code)
	}

	// 合法值接受
	w = doJSON(router, http.MethodPost, "/api/notifications/config/check_interval_seconds",
		gin.H{"value": "60"})
	if w.Code != http.StatusOK {
		t.Fatalf("合法值应返回200, got %d: %s", w.Code, w.Body.String())
	}
	values, _ = store.ConfigValues()
	if values["check_interval_seconds"] != "60" {
		t.Fatalf("合法值应写入, got %s", values["check_interval_seconds"])
	}
}

func TestGetConfigMasksPassword(t *testing.T) {
	router, store := setupRouter(t)
	if err := store.SetConfigValue("smtp_password", "secret"); err != nil {
		t.Fatal(err)
	}

	w := doJSON(router, http.MethodGet, "/api/notifications/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望200, got %d", w.Code)
	}
	var resp struct {
		Config map[string]string `json:"config"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Config["smtp_password"] != "" {
		t.Fatal("密码不应回传")
	}
}

func TestTriggerCRUD(t *testing.T) {
	router, _ := setupRouter(t)

	// limit_high 没有全局缺省阈值，必须显式给出
	w := doJSON(router, http.MethodPost, "/api/notifications/funds/513100/triggers",
		gin.H{"trigger_type": "limit_high"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("缺少阈值应返回400, got %d", w.Code)
	}

	// 溢价类触发器阈值可省略，缺省回退到全局阈值
	w = doJSON(router, http.MethodPost, "/api/notifications/funds/513100/triggers",
		gin.H{"trigger_type": "premium_low"})
	if w.Code != http.StatusOK {
		t.Fatalf("premium_low 省略阈值应成功: %d %s", w.Code, w.Body.String())
	}

	// 未知类型拒绝
	w = doJSON(router, http.MethodPost, "/api/notifications/funds/513100/triggers",
		gin.H{"trigger_type": "volume_spike", "threshold_value": 1})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("未知类型应返回400, got %d", w.Code)
	}

	// 创建
	w = doJSON(router, http.MethodPost, "/api/notifications/funds/513100/triggers",
		gin.H{"trigger_type": "premium_high", "threshold_value": 5.0})
	if w.Code != http.StatusOK {
		t.Fatalf("创建失败: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		Trigger model.FundTrigger `json:"trigger"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Trigger.ID == "" || created.Trigger.FundCode != "513100" {
		t.Fatalf("创建结果错误: %+v", created.Trigger)
	}

	// 更新
	w = doJSON(router, http.MethodPut, "/api/notifications/funds/513100/triggers/"+created.Trigger.ID,
		gin.H{"trigger_type": "premium_high", "threshold_value": 8.0, "enabled": false})
	if w.Code != http.StatusOK {
		t.Fatalf("更新失败: %d %s", w.Code, w.Body.String())
	}

	// 基金代码不匹配返回404
	w = doJSON(router, http.MethodDelete, "/api/notifications/funds/159941/triggers/"+created.Trigger.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("基金不匹配应返回404, got %d", w.Code)
	}

	// 删除
	w = doJSON(router, http.MethodDelete, "/api/notifications/funds/513100/triggers/"+created.Trigger.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("删除失败: %d", w.Code)
	}
}

func TestMonitoredFundsReplace(t *testing.T) {
	router, store := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/notifications/monitored-funds",
		gin.H{"codes": []string{"513100", "159941"}})
	if w.Code != http.StatusOK {
		t.Fatalf("整体替换失败: %d", w.Code)
	}
	codes, _ := store.MonitoredCodes()
	if len(codes) != 2 {
		t.Fatalf("期望2个监控基金, got %v", codes)
	}

	// 单个禁用
	w = doJSON(router, http.MethodPut, "/api/notifications/monitored-funds/513100",
		gin.H{"enabled": false})
	if w.Code != http.StatusOK {
		t.Fatalf("设置监控标记失败: %d", w.Code)
	}
	codes, _ = store.MonitoredCodes()
	if len(codes) != 1 || codes[0] != "159941" {
		t.Fatalf("禁用后监控集合错误: %v", codes)
	}

	// 再次整体替换清掉旧集合
	w = doJSON(router, http.MethodPost, "/api/notifications/monitored-funds",
		gin.H{"codes": []string{"513500"}})
	if w.Code != http.StatusOK {
		t.Fatalf("整体替换失败: %d", w.Code)
	}
	codes, _ = store.MonitoredCodes()
	if len(codes) != 1 || codes[0] != "513500" {
		t.Fatalf("整体替换后监控集合错误: %v", codes)
	}
}

func TestRecipients(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/api/notifications/recipients",
		gin.H{"email": "ops@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("添加收件人失败: %d", w.Code)
	}

	// 重复添加拒绝
	w = doJSON(router, http.MethodPost, "/api/notifications/recipients",
		gin.H{"email": "ops@example.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("重复收件人应返回400, got %d", w.Code)
	}

	w = doJSON(router, http.MethodDelete, "/api/notifications/recipients/ops@example.com", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("删除收件人失败: %d", w.Code)
	}
	w = doJSON(router, http.MethodDelete, "/api/notifications/recipients/ops@example.com", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("删除不存在的收件人应返回404, got %d", w.Code)
	}
}

func TestTradingDateCheck(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/api/trading-dates/check/2026-09-05", nil) // 周六
	if w.Code != http.StatusOK {
		t.Fatalf("期望200, got %d", w.Code)
	}
	var resp struct {
		IsTradingDay bool `json:"is_trading_day"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.IsTradingDay {
		t.Fatal("周六不应为交易日")
	}

	w = doJSON(router, http.MethodGet, "/api/trading-dates/check/not-a-date", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("非法日期应返回400, got %d", w.Code)
	}
}
