package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/model"
)

type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db}
}

func (r *ApplicationRepository) FindApplicationByID(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	var a model.Application
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "application %s", id)
	}
	return &a, nil
}

// UpdateMatchScore overwrites the cached score; repeated calls converge.
func (r *ApplicationRepository) UpdateMatchScore(ctx context.Context, id uuid.UUID, score float64) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ?", id).
		Updates(map[string]any{"match_score": score, "scored_at": now, "updated_at": now})
	if res.Error != nil {
		return fmt.Errorf("update match score for application %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("application %s: %w", id, errs.ErrSourceDeleted)
	}
	return nil
}

// ListUnscored returns applications still waiting for a score, filtered by
// job or applicant (uuid.Nil means no filter on that column).
func (r *ApplicationRepository) ListUnscored(ctx context.Context, jobID, applicantID uuid.UUID) ([]uuid.UUID, error) {
	q := r.db.WithContext(ctx).Model(&model.Application{}).Where("match_score IS NULL")
	if jobID != uuid.Nil {
		q = q.Where("job_id = ?", jobID)
	}
	if applicantID != uuid.Nil {
		q = q.Where("applicant_id = ?", applicantID)
	}
	var ids []uuid.UUID
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list unscored applications: %w", err)
	}
	return ids, nil
}
