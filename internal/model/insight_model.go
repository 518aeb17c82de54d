package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JobResumeInsight caches the model-generated hiring notes for one
// (job, resume) pair.
type JobResumeInsight struct {
	ID        uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobID     uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_insight_job_resume" json:"job_id"`
	ResumeID  uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_insight_job_resume" json:"resume_id"`
	Strengths datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"strengths"`
	Gaps      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"gaps"`
	Summary   string                      `gorm:"type:text" json:"summary"`
	Model     string                      `gorm:"type:varchar(100)" json:"model"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

func (i *JobResumeInsight) TableName() string {
	return "job_resume_insights"
}
