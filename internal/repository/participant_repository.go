package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"coffee-salon/internal/model"
)

type ParticipantRepository struct {
	db *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Create(ctx context.Context, participant *model.SalonParticipant) error {
	if err := r.db.WithContext(ctx).Create(participant).Error; err != nil {
		return fmt.Errorf("create salon participant failed: %w", err)
	}
	return nil
}

func (r *ParticipantRepository) ListBySalonID(ctx context.Context, salonID string) ([]model.SalonParticipant, error) {
	var participants []model.SalonParticipant
	if err := r.db.WithContext(ctx).Where("salon_id = ?", salonID).Order("joined_at ASC").Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("list salon participants failed: %w", err)
	}
	return participants, nil
}
