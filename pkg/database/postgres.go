package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"QDIIRadar/pkg/config"
	"QDIIRadar/pkg/model"
)

// Store Postgres 持久化存储
type Store struct {
	db *gorm.DB
}

// NewStore 建立数据库连接，迁移表结构并写入默认配置
func NewStore(cfg *config.Config) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}

	// 设置连接池参数
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("测试数据库连接失败: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	if err := store.seedDefaultConfig(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	err := s.db.AutoMigrate(
		&model.FundSnapshot{},
		&model.FundTrigger{},
		&model.ConfigEntry{},
		&model.MonitoredFund{},
		&model.NotificationRecord{},
		&model.EmailRecipient{},
		&model.WatchedFund{},
		&model.NavChange{},
	)
	if err != nil {
		return fmt.Errorf("迁移表结构失败: %w", err)
	}
	return nil
}

// seedDefaultConfig 只补缺失项，不覆盖已有值
func (s *Store) seedDefaultConfig() error {
	for key, value := range model.DefaultConfigValues() {
		var count int64
		if err := s.db.Model(&model.ConfigEntry{}).Where("key = ?", key).Count(&count).Error; err != nil {
			return fmt.Errorf("检查配置项失败: %w", err)
		}
		if count > 0 {
			continue
		}
		entry := model.ConfigEntry{Key: key, Value: value, UpdatedAt: time.Now()}
		if err := s.db.Create(&entry).Error; err != nil {
			return fmt.Errorf("写入默认配置失败: %w", err)
		}
	}
	return nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
