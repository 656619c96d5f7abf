// pkg/database/watched.go
package database

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"QDIIRadar/pkg/model"
)

func (s *Store) WatchedFunds() ([]model.WatchedFund, error) {
	var funds []model.WatchedFund
	if err := s.db.Order("code").Find(&funds).Error; err != nil {
		return nil, fmt.Errorf("读取基金池失败: %w", err)
	}
	return funds, nil
}

func (s *Store) AddWatched(code, name string) error {
	var count int64
	if err := s.db.Model(&model.WatchedFund{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return fmt.Errorf("检查基金池失败: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("基金已在基金池中: %s", code)
	}
	f := model.WatchedFund{Code: code, Name: name, CreatedAt: time.Now()}
	if err := s.db.Create(&f).Error; err != nil {
		return fmt.Errorf("添加基金失败: %w", err)
	}
	return nil
}

func (s *Store) RemoveWatched(code string) error {
	result := s.db.Delete(&model.WatchedFund{}, "code = ?", code)
	if result.Error != nil {
		return fmt.Errorf("删除基金失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("基金不在基金池中: %s", code)
	}
	return nil
}

func (s *Store) NavChanges() (map[string]model.NavChange, error) {
	var rows []model.NavChange
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("读取净值涨跌缓存失败: %w", err)
	}
	out := make(map[string]model.NavChange, len(rows))
	for _, r := range rows {
		out[r.FundCode] = r
	}
	return out, nil
}

func (s *Store) SaveNavChange(c model.NavChange) error {
	if c.CachedAt.IsZero() {
		c.CachedAt = time.Now()
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fund_code"}},
		UpdateAll: true,
	}).Create(&c).Error
	if err != nil {
		return fmt.Errorf("写入净值涨跌缓存失败: %w", err)
	}
	return nil
}
