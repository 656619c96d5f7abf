// pkg/database/trigger.go
package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"QDIIRadar/pkg/model"
)

func (s *Store) TriggersForFund(code string) ([]model.FundTrigger, error) {
	var triggers []model.FundTrigger
	err := s.db.Where("fund_code = ?", code).Order("created_at").Find(&triggers).Error
	if err != nil {
		return nil, fmt.Errorf("读取基金触发器失败: %w", err)
	}
	return triggers, nil
}

func (s *Store) AllTriggers() ([]model.FundTrigger, error) {
	var triggers []model.FundTrigger
	if err := s.db.Order("fund_code, created_at").Find(&triggers).Error; err != nil {
		return nil, fmt.Errorf("读取触发器失败: %w", err)
	}
	return triggers, nil
}

func (s *Store) GetTrigger(id string) (*model.FundTrigger, error) {
	var trigger model.FundTrigger
	err := s.db.First(&trigger, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取触发器失败: %w", err)
	}
	return &trigger, nil
}

func (s *Store) CreateTrigger(t *model.FundTrigger) error {
	if err := s.db.Create(t).Error; err != nil {
		return fmt.Errorf("创建触发器失败: %w", err)
	}
	return nil
}

func (s *Store) UpdateTrigger(t *model.FundTrigger) error {
	result := s.db.Model(&model.FundTrigger{}).Where("id = ?", t.ID).
		Select("trigger_type", "threshold_value", "enabled").
		Updates(map[string]interface{}{
			"trigger_type":    t.TriggerType,
			"threshold_value": t.ThresholdValue,
			"enabled":         t.Enabled,
		})
	if result.Error != nil {
		return fmt.Errorf("更新触发器失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("触发器不存在: %s", t.ID)
	}
	return nil
}

func (s *Store) DeleteTrigger(id string) error {
	if err := s.db.Delete(&model.FundTrigger{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("删除触发器失败: %w", err)
	}
	return nil
}
