package model

import (
	"time"

	"github.com/google/uuid"
)

type Application struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_application_job_user" json:"job_id"`
	ApplicantID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_application_job_user" json:"applicant_id"`
	Status      string     `gorm:"type:varchar(20);default:applied" json:"status"`
	MatchScore  *float64   `gorm:"type:double precision" json:"match_score"`
	ScoredAt    *time.Time `json:"scored_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (a *Application) TableName() string {
	return "applications"
}
