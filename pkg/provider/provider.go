// pkg/provider/provider.go
package provider

import (
	"context"

	"QDIIRadar/pkg/model"
)

// SnapshotProvider 基金快照数据源
type SnapshotProvider interface {
	// FetchSnapshots 抓取基金池全量快照，单个基金失败不影响其余
	FetchSnapshots(ctx context.Context, funds []model.WatchedFund) ([]model.FundSnapshot, error)
}

// NavChangeProvider 近一年净值涨跌数据源
type NavChangeProvider interface {
	FetchOneYearChange(ctx context.Context, code string) (*model.NavChange, error)
}
