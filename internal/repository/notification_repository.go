package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fadilmartias/job-matcher/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db}
}

func (r *NotificationRepository) BulkCreate(ctx context.Context, items []model.Notification) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&items, 100).Error; err != nil {
		return fmt.Errorf("bulk create %d notifications: %w", len(items), err)
	}
	return nil
}
