// pkg/model/limit.go
package model

import (
	"regexp"
	"strconv"
	"strings"
)

// 限额语义常量：0 表示暂停申购，-1 表示不限额
const (
	LimitSuspended float64 = 0
	LimitUnlimited float64 = -1
)

var limitAmountRe = regexp.MustCompile(`限([\d.]+)(万|亿)?`)

// ParseLimitAmount 从限额文案解析出数值含义
// "暂停" → 0，"不限" → -1，"限N[万亿]" → 金额（元）；无法解析时 ok=false
func ParseLimitAmount(text string) (amount float64, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	if strings.Contains(text, "暂停") {
		return LimitSuspended, true
	}
	if strings.Contains(text, "不限") {
		return LimitUnlimited, true
	}
	m := limitAmountRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch m[2] {
	case "万":
		v *= 10000
	case "亿":
		v *= 100000000
	}
	return v, true
}

// FormatLimitText 把原始申购状态与限额金额（元）规整为展示文案
// 暂停申购 → "暂停"，有限额 → "限N"/"限N万"/"限N.NN亿"，开放申购 → "不限"
func FormatLimitText(status string, amount float64) string {
	if strings.Contains(status, "暂停") {
		return "暂停"
	}
	if amount > 0 && amount < 1e12 {
		switch {
		case amount >= 1e8:
			return "限" + strconv.FormatFloat(amount/1e8, 'f', 2, 64) + "亿"
		case amount >= 1e4:
			return "限" + trimFloat(amount/1e4) + "万"
		default:
			return "限" + trimFloat(amount)
		}
	}
	if strings.Contains(status, "开放") {
		return "不限"
	}
	if status == "" {
		return "未知"
	}
	return status
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
