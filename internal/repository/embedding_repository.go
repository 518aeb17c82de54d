package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fadilmartias/job-matcher/internal/model"
)

// ResumeCandidate is one row of a job-to-resume similarity scan.
type ResumeCandidate struct {
	ResumeID uuid.UUID
	UserID   uuid.UUID
	Email    string
	Distance float64
}

// JobCandidate is one row of a query-to-job similarity scan.
type JobCandidate struct {
	JobID    uuid.UUID
	Title    string
	Distance float64
}

type EmbeddingRepository struct {
	db *gorm.DB
}

func NewEmbeddingRepository(db *gorm.DB) *EmbeddingRepository {
	return &EmbeddingRepository{db}
}

var embeddingUpdates = clause.AssignmentColumns([]string{"embedding", "source_text", "updated_at"})

// UpsertJobEmbedding replaces the job's vector and source text with a single
// INSERT .. ON CONFLICT statement, so a row is never half written and
// concurrent writers resolve last-write-wins.
func (r *EmbeddingRepository) UpsertJobEmbedding(ctx context.Context, jobID uuid.UUID, vec []float32, sourceText string) error {
	now := time.Now()
	row := model.JobEmbedding{
		JobID:      jobID,
		Embedding:  pgvector.NewVector(vec),
		SourceText: sourceText,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}},
			DoUpdates: embeddingUpdates,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert job embedding %s: %w", jobID, err)
	}
	return nil
}

func (r *EmbeddingRepository) UpsertResumeEmbedding(ctx context.Context, resumeID uuid.UUID, vec []float32, sourceText string) error {
	now := time.Now()
	row := model.ResumeEmbedding{
		ResumeID:   resumeID,
		Embedding:  pgvector.NewVector(vec),
		SourceText: sourceText,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "resume_id"}},
			DoUpdates: embeddingUpdates,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert resume embedding %s: %w", resumeID, err)
	}
	return nil
}

func (r *EmbeddingRepository) FindJobEmbedding(ctx context.Context, jobID uuid.UUID) (*model.JobEmbedding, error) {
	var e model.JobEmbedding
	if err := r.db.WithContext(ctx).First(&e, "job_id = ?", jobID).Error; err != nil {
		return nil, notFound(err, "job embedding %s", jobID)
	}
	return &e, nil
}

func (r *EmbeddingRepository) FindResumeEmbedding(ctx context.Context, resumeID uuid.UUID) (*model.ResumeEmbedding, error) {
	var e model.ResumeEmbedding
	if err := r.db.WithContext(ctx).First(&e, "resume_id = ?", resumeID).Error; err != nil {
		return nil, notFound(err, "resume embedding %s", resumeID)
	}
	return &e, nil
}

// NearestResumes returns up to limit default, live resumes ordered by
// ascending cosine distance to vec. Ordering by the bare vector expression
// lets Postgres use the HNSW index on resume_embeddings.
func (r *EmbeddingRepository) NearestResumes(ctx context.Context, vec pgvector.Vector, limit int) ([]ResumeCandidate, error) {
	var rows []ResumeCandidate
	err := r.db.WithContext(ctx).Raw(`
		SELECT re.resume_id, r.user_id, u.email, re.embedding <=> ? AS distance
		FROM resume_embeddings re
		JOIN resumes r ON r.id = re.resume_id
		JOIN users u ON u.id = r.user_id
		WHERE r.is_default AND NOT r.is_deleted AND u.is_active
		ORDER BY re.embedding <=> ?
		LIMIT ?
	`, vec, vec, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("nearest resumes: %w", err)
	}
	return rows, nil
}

// NearestJobs returns up to limit published, active jobs closest to vec.
func (r *EmbeddingRepository) NearestJobs(ctx context.Context, vec pgvector.Vector, limit int) ([]JobCandidate, error) {
	var rows []JobCandidate
	err := r.db.WithContext(ctx).Raw(`
		SELECT je.job_id, j.title, je.embedding <=> ? AS distance
		FROM job_embeddings je
		JOIN jobs j ON j.id = je.job_id
		WHERE j.status = ? AND j.is_active
		ORDER BY je.embedding <=> ?
		LIMIT ?
	`, vec, model.JobStatusPublished, vec, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("nearest jobs: %w", err)
	}
	return rows, nil
}

// PairDistance computes the cosine distance between one job and one resume
// embedding in the database. found is false when either row is missing.
func (r *EmbeddingRepository) PairDistance(ctx context.Context, jobID, resumeID uuid.UUID) (distance float64, found bool, err error) {
	var rows []struct{ Distance float64 }
	err = r.db.WithContext(ctx).Raw(`
		SELECT je.embedding <=> re.embedding AS distance
		FROM job_embeddings je, resume_embeddings re
		WHERE je.job_id = ? AND re.resume_id = ?
	`, jobID, resumeID).Scan(&rows).Error
	if err != nil {
		return 0, false, fmt.Errorf("pair distance job %s resume %s: %w", jobID, resumeID, err)
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[0].Distance, true, nil
}
