package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fadilmartias/job-matcher/internal/errs"
	"github.com/fadilmartias/job-matcher/internal/model"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db}
}

func (r *JobRepository) FindJobByID(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	var j model.Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "job %s", id)
	}
	return &j, nil
}

// ListJobsWithoutEmbedding returns ids of published, active jobs that have
// no embedding row yet.
func (r *JobRepository) ListJobsWithoutEmbedding(ctx context.Context, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("status = ? AND is_active", model.JobStatusPublished).
		Where("NOT EXISTS (SELECT 1 FROM job_embeddings je WHERE je.job_id = jobs.id)").
		Order("created_at").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list jobs without embedding: %w", err)
	}
	return ids, nil
}

// notFound maps gorm.ErrRecordNotFound to errs.ErrNotFound and wraps
// everything else with the same context.
func notFound(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, errs.ErrNotFound)
	}
	return fmt.Errorf("find %s: %w", what, err)
}
