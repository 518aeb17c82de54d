package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/model"
)

type ResumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) *ResumeRepository {
	return &ResumeRepository{db}
}

func (r *ResumeRepository) FindResumeByID(ctx context.Context, id uuid.UUID) (*model.Resume, error) {
	var res model.Resume
	if err := r.db.WithContext(ctx).First(&res, "id = ? AND NOT is_deleted", id).Error; err != nil {
		return nil, notFound(err, "resume %s", id)
	}
	return &res, nil
}

func (r *ResumeRepository) FindDefaultResume(ctx context.Context, userID uuid.UUID) (*model.Resume, error) {
	var res model.Resume
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_default AND NOT is_deleted", userID).
		Order("updated_at DESC").
		First(&res).Error
	if err != nil {
		return nil, notFound(err, "default resume for user %s", userID)
	}
	return &res, nil
}

// SaveParsedProfile stores the profile and its timestamp in one UPDATE.
func (r *ResumeRepository) SaveParsedProfile(ctx context.Context, id uuid.UUID, profile model.ParsedProfile) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Resume{}).
		Where("id = ? AND NOT is_deleted", id).
		Updates(map[string]any{
			"parsed_data": datatypes.NewJSONType(profile),
			"parsed_at":   now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return fmt.Errorf("save parsed profile for resume %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("resume %s: %w", id, errs.ErrSourceDeleted)
	}
	return nil
}

// ListDefaultWithoutEmbedding returns default, live resumes lacking a vector.
func (r *ResumeRepository) ListDefaultWithoutEmbedding(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.Resume{}).
		Where("is_default AND NOT is_deleted").
		Where("NOT EXISTS (SELECT 1 FROM resume_embeddings re WHERE re.resume_id = resumes.id)").
		Order("created_at").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list resumes without embedding: %w", err)
	}
	return ids, nil
}
