// pkg/database/recipient.go
package database

import (
	"fmt"
	"strings"
	"time"

	"QDIIRadar/pkg/model"
)

func (s *Store) Recipients() ([]model.EmailRecipient, error) {
	var recipients []model.EmailRecipient
	if err := s.db.Order("email").Find(&recipients).Error; err != nil {
		return nil, fmt.Errorf("读取收件人失败: %w", err)
	}
	return recipients, nil
}

func (s *Store) ActiveRecipientEmails() ([]string, error) {
	var emails []string
	err := s.db.Model(&model.EmailRecipient{}).
		Where("active = ?", true).Order("email").Pluck("email", &emails).Error
	if err != nil {
		return nil, fmt.Errorf("读取收件人失败: %w", err)
	}
	return emails, nil
}

func (s *Store) AddRecipient(email string) (*model.EmailRecipient, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("无效的邮箱地址: %q", email)
	}

	var count int64
	if err := s.db.Model(&model.EmailRecipient{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("检查收件人失败: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("收件人已存在: %s", email)
	}

	r := model.EmailRecipient{Email: email, Active: true, AddedAt: time.Now()}
	if err := s.db.Create(&r).Error; err != nil {
		return nil, fmt.Errorf("添加收件人失败: %w", err)
	}
	return &r, nil
}

func (s *Store) RemoveRecipient(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	result := s.db.Delete(&model.EmailRecipient{}, "email = ?", email)
	if result.Error != nil {
		return fmt.Errorf("删除收件人失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("收件人不存在: %s", email)
	}
	return nil
}
