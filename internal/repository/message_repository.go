package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"coffee-salon/internal/model"
)

type AgentMessageRepository struct {
	db *gorm.DB
}

func NewAgentMessageRepository(db *gorm.DB) *AgentMessageRepository {
	return &AgentMessageRepository{db: db}
}

func (r *AgentMessageRepository) Create(ctx context.Context, message *model.AgentMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("create agent message failed: %w", err)
	}
	return nil
}

func (r *AgentMessageRepository) ListBySalonID(ctx context.Context, salonID string) ([]model.AgentMessage, error) {
	var messages []model.AgentMessage
	if err := r.db.WithContext(ctx).Where("salon_id = ?", salonID).Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list agent messages failed: %w", err)
	}
	return messages, nil
}

type UserMessageRepository struct {
	db *gorm.DB
}

func NewUserMessageRepository(db *gorm.DB) *UserMessageRepository {
	return &UserMessageRepository{db: db}
}

func (r *UserMessageRepository) Create(ctx context.Context, message *model.UserMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("create user message failed: %w", err)
	}
	return nil
}

func (r *UserMessageRepository) ListBySalonID(ctx context.Context, salonID string) ([]model.UserMessage, error) {
	var messages []model.UserMessage
	if err := r.db.WithContext(ctx).Where("salon_id = ?", salonID).Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list user messages failed: %w", err)
	}
	return messages, nil
}
