package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fadilmartias/job-matcher/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db}
}

// ListAdmins returns the active admin users that receive audit notifications.
func (r *UserRepository) ListAdmins(ctx context.Context) ([]model.User, error) {
	var admins []model.User
	err := r.db.WithContext(ctx).
		Where("role = ? AND is_active", model.RoleAdmin).
		Find(&admins).Error
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}
