package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	JobStatusDraft     = "draft"
	JobStatusPublished = "published"
	JobStatusClosed    = "closed"
	JobStatusBlocked   = "blocked"
)

type Job struct {
	ID              uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RecruiterID     uuid.UUID                   `gorm:"type:uuid;index" json:"recruiter_id"`
	Title           string                      `gorm:"type:varchar(255);not null" json:"title"`
	Description     string                      `gorm:"type:text" json:"description"`
	Requirements    string                      `gorm:"type:text" json:"requirements"`
	Skills          datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"skills"`
	ExperienceLevel string                      `gorm:"type:varchar(20)" json:"experience_level"`
	Status          string                      `gorm:"type:varchar(20);default:draft" json:"status"`
	IsActive        bool                        `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

func (j *Job) TableName() string {
	return "jobs"
}

// Matchable reports whether the job takes part in embedding and fan-out.
func (j *Job) Matchable() bool {
	return j.Status == JobStatusPublished && j.IsActive
}
