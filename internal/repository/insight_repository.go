package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fadilmartias/job-matcher/internal/model"
)

type InsightRepository struct {
	db *gorm.DB
}

func NewInsightRepository(db *gorm.DB) *InsightRepository {
	return &InsightRepository{db}
}

func (r *InsightRepository) FindInsight(ctx context.Context, jobID, resumeID uuid.UUID) (*model.JobResumeInsight, error) {
	var i model.JobResumeInsight
	err := r.db.WithContext(ctx).First(&i, "job_id = ? AND resume_id = ?", jobID, resumeID).Error
	if err != nil {
		return nil, notFound(err, "insight job %s resume %s", jobID, resumeID)
	}
	return &i, nil
}

// UpsertInsight stores the insight keyed by (job_id, resume_id).
func (r *InsightRepository) UpsertInsight(ctx context.Context, insight *model.JobResumeInsight) error {
	now := time.Now()
	if insight.CreatedAt.IsZero() {
		insight.CreatedAt = now
	}
	insight.UpdatedAt = now
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}, {Name: "resume_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"strengths", "gaps", "summary", "model", "updated_at"}),
		}).
		Create(insight).Error
	if err != nil {
		return fmt.Errorf("upsert insight job %s resume %s: %w", insight.JobID, insight.ResumeID, err)
	}
	return nil
}

func (r *InsightRepository) DeleteInsight(ctx context.Context, jobID, resumeID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND resume_id = ?", jobID, resumeID).
		Delete(&model.JobResumeInsight{}).Error
	if err != nil {
		return fmt.Errorf("delete insight job %s resume %s: %w", jobID, resumeID, err)
	}
	return nil
}
