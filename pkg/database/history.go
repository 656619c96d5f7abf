// pkg/database/history.go
package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"QDIIRadar/pkg/model"
)

func (s *Store) AppendHistory(rec *model.NotificationRecord) error {
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now()
	}
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("写入通知历史失败: %w", err)
	}
	return nil
}

func (s *Store) LastHistory(code string, alertType model.TriggerType) (*model.NotificationRecord, error) {
	var rec model.NotificationRecord
	err := s.db.Where("fund_code = ? AND alert_type = ?", code, alertType).
		Order("sent_at DESC").First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取通知历史失败: %w", err)
	}
	return &rec, nil
}

func (s *Store) ListHistory(limit, offset int) ([]model.NotificationRecord, int64, error) {
	var total int64
	if err := s.db.Model(&model.NotificationRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计通知历史失败: %w", err)
	}

	query := s.db.Order("sent_at DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []model.NotificationRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("读取通知历史失败: %w", err)
	}
	return records, total, nil
}

func (s *Store) HistoryStats(now time.Time) (model.HistoryStats, error) {
	stats := model.HistoryStats{ByType: make(map[string]int64)}

	if err := s.db.Model(&model.NotificationRecord{}).
		Where("success = ?", true).Count(&stats.TotalSent).Error; err != nil {
		return stats, fmt.Errorf("统计通知历史失败: %w", err)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := s.db.Model(&model.NotificationRecord{}).
		Where("success = ? AND sent_at >= ?", true, dayStart).
		Count(&stats.TodaySent).Error; err != nil {
		return stats, fmt.Errorf("统计今日通知失败: %w", err)
	}

	rows := []struct {
		AlertType string
		Count     int64
	}{}
	err := s.db.Model(&model.NotificationRecord{}).
		Select("alert_type, count(*) as count").
		Where("success = ?", true).
		Group("alert_type").Scan(&rows).Error
	if err != nil {
		return stats, fmt.Errorf("按类型统计通知失败: %w", err)
	}
	for _, r := range rows {
		stats.ByType[r.AlertType] = r.Count
	}
	return stats, nil
}
