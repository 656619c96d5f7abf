// pkg/database/snapshot.go
package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"QDIIRadar/pkg/model"
)

func (s *Store) LastSnapshot(code string) (*model.FundSnapshot, error) {
	var snap model.FundSnapshot
	err := s.db.First(&snap, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取基金快照失败: %w", err)
	}
	return &snap, nil
}

// SaveSnapshots 每个基金只保留最近一条快照，按主键覆盖
func (s *Store) SaveSnapshots(snaps []model.FundSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	now := time.Now()
	for i := range snaps {
		if snaps[i].UpdatedAt.IsZero() {
			snaps[i].UpdatedAt = now
		}
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		UpdateAll: true,
	}).Create(&snaps).Error
	if err != nil {
		return fmt.Errorf("保存基金快照失败: %w", err)
	}
	return nil
}

func (s *Store) AllSnapshots() ([]model.FundSnapshot, error) {
	var snaps []model.FundSnapshot
	if err := s.db.Order("code").Find(&snaps).Error; err != nil {
		return nil, fmt.Errorf("读取基金快照失败: %w", err)
	}
	return snaps, nil
}
