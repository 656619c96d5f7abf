// pkg/database/configstore.go
package database

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"QDIIRadar/pkg/model"
)

func (s *Store) ConfigValues() (map[string]string, error) {
	var entries []model.ConfigEntry
	if err := s.db.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("读取配置表失败: %w", err)
	}
	values := make(map[string]string, len(entries))
	for _, e := range entries {
		values[e.Key] = e.Value
	}
	return values, nil
}

func (s *Store) SetConfigValue(key, value string) error {
	if err := model.ValidateConfigValue(key, value); err != nil {
		return err
	}
	entry := model.ConfigEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("写入配置项失败: %w", err)
	}
	return nil
}

func (s *Store) LoadConfig() (model.GlobalConfig, error) {
	values, err := s.ConfigValues()
	if err != nil {
		return model.GlobalConfig{}, err
	}
	return model.ConfigFromMap(values), nil
}
