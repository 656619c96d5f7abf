// pkg/database/monitored.go
package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"QDIIRadar/pkg/model"
)

func (s *Store) MonitoredFunds() ([]model.MonitoredFund, error) {
	var funds []model.MonitoredFund
	if err := s.db.Order("fund_code").Find(&funds).Error; err != nil {
		return nil, fmt.Errorf("读取监控基金失败: %w", err)
	}
	return funds, nil
}

func (s *Store) MonitoredCodes() ([]string, error) {
	var codes []string
	err := s.db.Model(&model.MonitoredFund{}).
		Where("enabled = ?", true).Order("fund_code").Pluck("fund_code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("读取监控基金失败: %w", err)
	}
	return codes, nil
}

// ReplaceMonitored 整体替换监控集合
func (s *Store) ReplaceMonitored(codes []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.MonitoredFund{}).Error; err != nil {
			return fmt.Errorf("清空监控基金失败: %w", err)
		}
		if len(codes) == 0 {
			return nil
		}
		now := time.Now()
		funds := make([]model.MonitoredFund, 0, len(codes))
		for _, code := range codes {
			funds = append(funds, model.MonitoredFund{FundCode: code, Enabled: true, UpdatedAt: now})
		}
		if err := tx.Create(&funds).Error; err != nil {
			return fmt.Errorf("写入监控基金失败: %w", err)
		}
		return nil
	})
}

func (s *Store) SetMonitored(code string, enabled bool) error {
	f := model.MonitoredFund{FundCode: code, Enabled: enabled, UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fund_code"}},
		UpdateAll: true,
	}).Create(&f).Error
	if err != nil {
		return fmt.Errorf("更新监控基金失败: %w", err)
	}
	return nil
}

func (s *Store) IsMonitored(code string) (bool, error) {
	var count int64
	err := s.db.Model(&model.MonitoredFund{}).
		Where("fund_code = ? AND enabled = ?", code, true).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询监控基金失败: %w", err)
	}
	return count > 0, nil
}
