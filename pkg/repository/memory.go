package repository

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"QDIIRadar/pkg/model"
)

// MemoryStore 内存存储，测试与单机演示使用
type MemoryStore struct {
	mutex      sync.RWMutex
	snapshots  map[string]model.FundSnapshot
	triggers   map[string]model.FundTrigger
	config     map[string]string
	monitored  map[string]model.MonitoredFund
	history    []model.NotificationRecord
	recipients map[string]model.EmailRecipient
	watched    map[string]model.WatchedFund
	navCache   map[string]model.NavChange
}

// NewMemoryStore 创建内存存储并写入默认配置
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:  make(map[string]model.FundSnapshot),
		triggers:   make(map[string]model.FundTrigger),
		config:     model.DefaultConfigValues(),
		monitored:  make(map[string]model.MonitoredFund),
		history:    make([]model.NotificationRecord, 0),
		recipients: make(map[string]model.EmailRecipient),
		watched:    make(map[string]model.WatchedFund),
		navCache:   make(map[string]model.NavChange),
	}
}

func (m *MemoryStore) LastSnapshot(code string) (*model.FundSnapshot, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if s, ok := m.snapshots[code]; ok {
		cp := s
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) SaveSnapshots(snaps []model.FundSnapshot) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, s := range snaps {
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = time.Now()
		}
		m.snapshots[s.Code] = s
	}
	return nil
}

func (m *MemoryStore) AllSnapshots() ([]model.FundSnapshot, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]model.FundSnapshot, 0, len(m.snapshots))
	for _, s := range m.snapshots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemoryStore) TriggersForFund(code string) ([]model.FundTrigger, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var out []model.FundTrigger
	for _, t := range m.triggers {
		if t.FundCode == code {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) AllTriggers() ([]model.FundTrigger, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]model.FundTrigger, 0, len(m.triggers))
	for _, t := range m.triggers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FundCode != out[j].FundCode {
			return out[i].FundCode < out[j].FundCode
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) GetTrigger(id string) (*model.FundTrigger, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if t, ok := m.triggers[id]; ok {
		cp := t
		return &cp, nil
	}
	return nil, nil
}

func (m *MemoryStore) CreateTrigger(t *model.FundTrigger) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	m.triggers[t.ID] = *t
	return nil
}

func (m *MemoryStore) UpdateTrigger(t *model.FundTrigger) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.triggers[t.ID]; !ok {
		return fmt.Errorf("触发器不存在: %s", t.ID)
	}
	t.UpdatedAt = time.Now()
	m.triggers[t.ID] = *t
	return nil
}

func (m *MemoryStore) DeleteTrigger(id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.triggers, id)
	return nil
}

func (m *MemoryStore) ConfigValues() (map[string]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make(map[string]string, len(m.config))
	for k, v := range m.config {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) SetConfigValue(key, value string) error {
	if err := model.ValidateConfigValue(key, value); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.config[key] = value
	return nil
}

func (m *MemoryStore) LoadConfig() (model.GlobalConfig, error) {
	values, err := m.ConfigValues()
	if err != nil {
		return model.GlobalConfig{}, err
	}
	return model.ConfigFromMap(values), nil
}

func (m *MemoryStore) MonitoredFunds() ([]model.MonitoredFund, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]model.MonitoredFund, 0, len(m.monitored))
	for _, f := range m.monitored {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FundCode < out[j].FundCode })
	return out, nil
}

func (m *MemoryStore) MonitoredCodes() ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var out []string
	for code, f := range m.monitored {
		if f.Enabled {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) ReplaceMonitored(codes []string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	m.monitored = make(map[string]model.MonitoredFund, len(codes))
	for _, code := range codes {
		m.monitored[code] = model.MonitoredFund{FundCode: code, Enabled: true, UpdatedAt: now}
	}
	return nil
}

func (m *MemoryStore) SetMonitored(code string, enabled bool) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.monitored[code] = model.MonitoredFund{FundCode: code, Enabled: enabled, UpdatedAt: time.Now()}
	return nil
}

func (m *MemoryStore) IsMonitored(code string) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	f, ok := m.monitored[code]
	return ok && f.Enabled, nil
}

func (m *MemoryStore) AppendHistory(rec *model.NotificationRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now()
	}
	m.history = append(m.history, *rec)
	return nil
}

func (m *MemoryStore) LastHistory(code string, alertType model.TriggerType) (*model.NotificationRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var latest *model.NotificationRecord
	for i := range m.history {
		rec := m.history[i]
		if rec.FundCode != code || rec.AlertType != alertType {
			continue
		}
		if latest == nil || rec.SentAt.After(latest.SentAt) {
			cp := rec
			latest = &cp
		}
	}
	return latest, nil
}

func (m *MemoryStore) ListHistory(limit, offset int) ([]model.NotificationRecord, int64, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	sorted := make([]model.NotificationRecord, len(m.history))
	copy(sorted, m.history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SentAt.After(sorted[j].SentAt) })

	total := int64(len(sorted))
	if offset >= len(sorted) {
		return []model.NotificationRecord{}, total, nil
	}
	sorted = sorted[offset:]
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, total, nil
}

func (m *MemoryStore) HistoryStats(now time.Time) (model.HistoryStats, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := model.HistoryStats{ByType: make(map[string]int64)}
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, rec := range m.history {
		if !rec.Success {
			continue
		}
		stats.TotalSent++
		stats.ByType[string(rec.AlertType)]++
		if !rec.SentAt.In(now.Location()).Before(dayStart) {
			stats.TodaySent++
		}
	}
	return stats, nil
}

func (m *MemoryStore) Recipients() ([]model.EmailRecipient, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]model.EmailRecipient, 0, len(m.recipients))
	for _, r := range m.recipients {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *MemoryStore) ActiveRecipientEmails() ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var out []string
	for _, r := range m.recipients {
		if r.Active {
			out = append(out, r.Email)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryStore) AddRecipient(email string) (*model.EmailRecipient, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("无效的邮箱地址: %q", email)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.recipients[email]; ok {
		return nil, fmt.Errorf("收件人已存在: %s", email)
	}
	r := model.EmailRecipient{
		ID:      uuid.New().String(),
		Email:   email,
		Active:  true,
		AddedAt: time.Now(),
	}
	m.recipients[email] = r
	return &r, nil
}

func (m *MemoryStore) RemoveRecipient(email string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	email = strings.TrimSpace(strings.ToLower(email))
	if _, ok := m.recipients[email]; !ok {
		return fmt.Errorf("收件人不存在: %s", email)
	}
	delete(m.recipients, email)
	return nil
}

func (m *MemoryStore) WatchedFunds() ([]model.WatchedFund, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]model.WatchedFund, 0, len(m.watched))
	for _, f := range m.watched {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *MemoryStore) AddWatched(code, name string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.watched[code]; ok {
		return fmt.Errorf("基金已在基金池中: %s", code)
	}
	m.watched[code] = model.WatchedFund{Code: code, Name: name, CreatedAt: time.Now()}
	return nil
}

func (m *MemoryStore) RemoveWatched(code string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.watched[code]; !ok {
		return fmt.Errorf("基金不在基金池中: %s", code)
	}
	delete(m.watched, code)
	return nil
}

func (m *MemoryStore) NavChanges() (map[string]model.NavChange, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make(map[string]model.NavChange, len(m.navCache))
	for k, v := range m.navCache {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) SaveNavChange(c model.NavChange) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if c.CachedAt.IsZero() {
		c.CachedAt = time.Now()
	}
	m.navCache[c.FundCode] = c
	return nil
}
