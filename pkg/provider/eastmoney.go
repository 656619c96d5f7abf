// pkg/provider/eastmoney.go
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"QDIIRadar/pkg/config"
	"QDIIRadar/pkg/model"
)

// 移动端 UA，限额页与净值接口对桌面 UA 限流
const mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) " +
	"AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 MicroMessenger/8.0.40"

// 估值与净值偏离超过50%视为脏数据，丢弃场内价格
const divergenceLimit = 0.5

// 限额页并发抓取批大小
const limitFetchChunk = 5

var (
	purchaseStatusRe = regexp.MustCompile(`<td class="th w110">申购状态</td>\s*<td class="w135">([^<]+)</td>`)
	purchaseLimitRe  = regexp.MustCompile(`日累计申购限额[^\d]*([\d.]+)\s*(万元|元)`)
)

// EastmoneyClient 东方财富数据源
type EastmoneyClient struct {
	httpClient   *http.Client
	quoteBaseURL string
	limitPageURL string
	navAPIURL    string
	logger       *zap.Logger
}

// NewEastmoneyClient 创建东方财富客户端
func NewEastmoneyClient(cfg *config.Config, logger *zap.Logger) *EastmoneyClient {
	return &EastmoneyClient{
		httpClient:   &http.Client{Timeout: time.Duration(cfg.Provider.TimeoutSeconds) * time.Second},
		quoteBaseURL: cfg.Provider.QuoteBaseURL,
		limitPageURL: cfg.Provider.LimitPageURL,
		navAPIURL:    cfg.Provider.NavAPIURL,
		logger:       logger,
	}
}

// marketPrefix 沪深市场前缀：沪市 "1."，深市 "0."
// 5/6 开头为沪市基金与股票；15 开头但非 159 的场内基金也挂沪市
func marketPrefix(code string) string {
	if strings.HasPrefix(code, "5") || strings.HasPrefix(code, "6") {
		return "1."
	}
	if strings.HasPrefix(code, "15") && !strings.HasPrefix(code, "159") {
		return "1."
	}
	return "0."
}

type quoteResponse struct {
	Data struct {
		Diff []struct {
			Code  string          `json:"f12"`
			Name  string          `json:"f14"`
			Price json.RawMessage `json:"f2"`
		} `json:"diff"`
	} `json:"data"`
}

type navRow struct {
	Date       string `json:"FSRQ"`
	Nav        string `json:"DWJZ"`
	AccNav     string `json:"LJJZ"`
	GrowthRate string `json:"DAYGROWTHRATE"`
}

type navResponse struct {
	Datas []navRow `json:"Datas"`
}

// FetchSnapshots 抓取基金池全量快照
// 行情批量失败视为周期失败；单个基金的净值或限额失败只跳过该基金相应字段
func (c *EastmoneyClient) FetchSnapshots(ctx context.Context, funds []model.WatchedFund) ([]model.FundSnapshot, error) {
	if len(funds) == 0 {
		return nil, nil
	}

	prices, err := c.fetchQuotes(ctx, funds)
	if err != nil {
		return nil, err
	}
	limits := c.fetchLimits(ctx, funds)

	now := time.Now()
	snapshots := make([]model.FundSnapshot, 0, len(funds))
	for _, f := range funds {
		snap := model.FundSnapshot{
			Code:      f.Code,
			Name:      f.Name,
			LimitText: limits[f.Code],
			UpdatedAt: now,
		}
		snap.Valuation = prices[f.Code]

		nav, err := c.fetchLatestNav(ctx, f.Code)
		if err != nil {
			c.logger.Warn("获取基金净值失败",
				zap.String("fund", f.Code), zap.Error(err))
		} else {
			snap.MarketPrice = nav
		}

		applyPremium(&snap)
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// applyPremium 计算溢价率；估值与净值偏离超过50%视为脏数据
func applyPremium(snap *model.FundSnapshot) {
	if snap.MarketPrice <= 0 || snap.Valuation <= 0 {
		return
	}
	if math.Abs(snap.Valuation-snap.MarketPrice)/snap.MarketPrice > divergenceLimit {
		snap.Valuation = 0
		return
	}
	snap.PremiumRate = (snap.Valuation - snap.MarketPrice) / snap.MarketPrice * 100
}

func (c *EastmoneyClient) fetchQuotes(ctx context.Context, funds []model.WatchedFund) (map[string]float64, error) {
	secids := make([]string, 0, len(funds))
	for _, f := range funds {
		secids = append(secids, marketPrefix(f.Code)+f.Code)
	}

	params := url.Values{}
	params.Set("fields", "f12,f14,f2,f3,f15,f16,f17,f18")
	params.Set("secids", strings.Join(secids, ","))
	params.Set("fltt", "2")
	params.Set("invt", "2")

	body, err := c.get(ctx, c.quoteBaseURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("获取行情失败: %w", err)
	}
	return parseQuotes(body)
}

// parseQuotes 解析行情批量响应
// 停牌或未成交基金的 f2 会返回 "-"，逐条容错跳过，不拖垮整批
func parseQuotes(body []byte) (map[string]float64, error) {
	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("解析行情响应失败: %w", err)
	}

	prices := make(map[string]float64, len(resp.Data.Diff))
	for _, d := range resp.Data.Diff {
		if p, ok := parsePrice(d.Price); ok {
			prices[d.Code] = p
		}
	}
	return prices, nil
}

// parsePrice f2 可能是数值或占位字符串，解析失败视为无行情
func parsePrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, f > 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v, v > 0
		}
	}
	return 0, false
}

// fetchLimits 按批并发抓取限额页，失败的基金限额文案为空
func (c *EastmoneyClient) fetchLimits(ctx context.Context, funds []model.WatchedFund) map[string]string {
	limits := make(map[string]string, len(funds))
	var mutex sync.Mutex

	for start := 0; start < len(funds); start += limitFetchChunk {
		end := start + limitFetchChunk
		if end > len(funds) {
			end = len(funds)
		}

		var wg sync.WaitGroup
		for _, f := range funds[start:end] {
			wg.Add(1)
			go func(code string) {
				defer wg.Done()
				text, err := c.fetchLimitText(ctx, code)
				if err != nil {
					c.logger.Warn("获取申购限额失败",
						zap.String("fund", code), zap.Error(err))
					return
				}
				mutex.Lock()
				limits[code] = text
				mutex.Unlock()
			}(f.Code)
		}
		wg.Wait()
	}
	return limits
}

func (c *EastmoneyClient) fetchLimitText(ctx context.Context, code string) (string, error) {
	body, err := c.get(ctx, fmt.Sprintf(c.limitPageURL, code))
	if err != nil {
		return "", err
	}
	page := string(body)

	status := ""
	if m := purchaseStatusRe.FindStringSubmatch(page); m != nil {
		status = strings.TrimSpace(m[1])
	}

	amount := 0.0
	if m := purchaseLimitRe.FindStringSubmatch(page); m != nil {
		fmt.Sscanf(m[1], "%f", &amount)
		if m[2] == "万元" {
			amount *= 10000
		}
	}
	return model.FormatLimitText(status, amount), nil
}

func (c *EastmoneyClient) fetchLatestNav(ctx context.Context, code string) (float64, error) {
	rows, err := c.fetchNavHistory(ctx, code, 1)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("净值数据为空")
	}
	var nav float64
	if _, err := fmt.Sscanf(rows[0].Nav, "%f", &nav); err != nil || nav <= 0 {
		return 0, fmt.Errorf("净值格式错误: %q", rows[0].Nav)
	}
	return nav, nil
}

// FetchOneYearChange 计算近一年累计净值涨跌幅
func (c *EastmoneyClient) FetchOneYearChange(ctx context.Context, code string) (*model.NavChange, error) {
	rows, err := c.fetchNavHistory(ctx, code, 400)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("净值数据为空")
	}

	parse := func(nav, accNav string) float64 {
		var v float64
		if _, err := fmt.Sscanf(accNav, "%f", &v); err == nil && v > 0 {
			return v
		}
		if _, err := fmt.Sscanf(nav, "%f", &v); err == nil && v > 0 {
			return v
		}
		return 0
	}

	latest := parse(rows[0].Nav, rows[0].AccNav)
	if latest <= 0 {
		return nil, fmt.Errorf("最新净值格式错误")
	}

	// 接口按日期倒序返回，找一年前（或最接近的更早一天）的净值
	cutoff := time.Now().AddDate(-1, 0, 0).Format("2006-01-02")
	baseline := 0.0
	days := 0
	for i, row := range rows {
		if row.Date <= cutoff {
			baseline = parse(row.Nav, row.AccNav)
			days = i
			break
		}
	}
	if baseline <= 0 {
		// 成立不足一年，取最早一条
		last := rows[len(rows)-1]
		baseline = parse(last.Nav, last.AccNav)
		days = len(rows) - 1
	}
	if baseline <= 0 {
		return nil, fmt.Errorf("历史净值格式错误")
	}

	return &model.NavChange{
		FundCode:         code,
		NavOneYearAgo:    baseline,
		PercentageChange: (latest - baseline) / baseline * 100,
		DaysCalculated:   days,
		CachedAt:         time.Now(),
	}, nil
}

func (c *EastmoneyClient) fetchNavHistory(ctx context.Context, code string, pageSize int) ([]navRow, error) {
	params := url.Values{}
	params.Set("FCODE", code)
	params.Set("pageIndex", "1")
	params.Set("pageSize", fmt.Sprintf("%d", pageSize))
	params.Set("plat", "Iphone")
	params.Set("product", "EFund")
	params.Set("deviceid", "qdii-radar")
	params.Set("version", "6.2.8")

	body, err := c.get(ctx, c.navAPIURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("获取净值历史失败: %w", err)
	}

	var resp navResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("解析净值响应失败: %w", err)
	}
	return resp.Datas, nil
}

func (c *EastmoneyClient) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", mobileUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("响应状态码 %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return body, nil
}
