package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDimensions is the vector width shared by the provider call and
// the vector columns below.
const EmbeddingDimensions = 1536

type JobEmbedding struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"job_id"`
	Job        *Job            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Embedding  pgvector.Vector `gorm:"type:vector(1536);not null" json:"-"`
	SourceText string          `gorm:"type:text;not null" json:"source_text"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (e *JobEmbedding) TableName() string {
	return "job_embeddings"
}

type ResumeEmbedding struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResumeID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"resume_id"`
	Resume     *Resume         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Embedding  pgvector.Vector `gorm:"type:vector(1536);not null" json:"-"`
	SourceText string          `gorm:"type:text;not null" json:"source_text"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (e *ResumeEmbedding) TableName() string {
	return "resume_embeddings"
}
