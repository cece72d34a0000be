package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"coffee-salon/internal/model"
)

type SalonRepository struct {
	db *gorm.DB
}

func NewSalonRepository(db *gorm.DB) *SalonRepository {
	return &SalonRepository{db: db}
}

func (r *SalonRepository) Create(ctx context.Context, salon *model.Salon) error {
	if err := r.db.WithContext(ctx).Create(salon).Error; err != nil {
		return fmt.Errorf("create salon failed: %w", err)
	}
	return nil
}

func (r *SalonRepository) GetByID(ctx context.Context, id string) (*model.Salon, error) {
	var salon model.Salon
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&salon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get salon failed: %w", err)
	}
	return &salon, nil
}

// ListByStatus returns the newest salons in the given status.
func (r *SalonRepository) ListByStatus(ctx context.Context, status model.SalonStatus, limit int) ([]model.Salon, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	salons := make([]model.Salon, 0, limit)
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Find(&salons).Error; err != nil {
		return nil, fmt.Errorf("list salons failed: %w", err)
	}
	return salons, nil
}
