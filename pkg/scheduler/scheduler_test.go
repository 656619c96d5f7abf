package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"QDIIRadar/pkg/model"
	"QDIIRadar/pkg/notify"
	"QDIIRadar/pkg/repository"
)

type fakeNavProvider struct {
	changes map[string]*model.NavChange
}

func (f *fakeNavProvider) FetchOneYearChange(ctx context.Context, code string) (*model.NavChange, error) {
	if c, ok := f.changes[code]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("净值数据为空")
}

// 每次刷新重新调用节假日来源，来源变化能被日历观察到
func TestRefreshCalendarConsultsSource(t *testing.T) {
	holidays := []string{"2026-09-02"}
	calendar := notify.NewCalendar(holidays)
	s := New(calendar, func() []string { return holidays },
		&fakeNavProvider{}, repository.NewMemoryStore(), zap.NewNop())

	day := time.Date(2026, 9, 2, 10, 0, 0, 0, notify.CST)
	if calendar.IsTradingDay(day) {
		t.Fatal("初始节假日未生效")
	}

	holidays = []string{"2026-09-03"}
	s.refreshCalendar()
	if !calendar.IsTradingDay(day) {
		t.Fatal("刷新后来源变化应被日历观察到")
	}
	if calendar.IsTradingDay(time.Date(2026, 9, 3, 10, 0, 0, 0, notify.CST)) {
		t.Fatal("新节假日应生效")
	}
}

// 单个基金失败只跳过该基金，其余照常入缓存
func TestRefreshNavCachePartialFailure(t *testing.T) {
	store := repository.NewMemoryStore()
	for _, f := range []struct{ code, name string }{
		{"513100", "纳指ETF"}, {"159941", "纳指ETF深"},
	} {
		if err := store.AddWatched(f.code, f.name); err != nil {
			t.Fatal(err)
		}
	}

	nav := &fakeNavProvider{changes: map[string]*model.NavChange{
		"513100": {FundCode: "513100", NavOneYearAgo: 1.0, PercentageChange: 25.5, DaysCalculated: 244},
	}}
	s := New(notify.NewCalendar(nil), func() []string { return nil }, nav, store, zap.NewNop())

	s.RefreshNavCache()

	cached, err := store.NavChanges()
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 1 {
		t.Fatalf("期望缓存1条, got %d", len(cached))
	}
	if c := cached["513100"]; c.PercentageChange != 25.5 {
		t.Fatalf("缓存内容错误: %+v", c)
	}
}
