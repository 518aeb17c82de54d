package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/fadilmartias/job-matcher/internal/model"
)

type TaskAcceptedDTO struct {
	Task     string    `json:"task"`
	EntityID uuid.UUID `json:"entity_id"`
	Status   string    `json:"status"` // always "queued"
}

type ApplicationScoreDTO struct {
	ApplicationID uuid.UUID  `json:"application_id"`
	JobID         uuid.UUID  `json:"job_id"`
	ApplicantID   uuid.UUID  `json:"applicant_id"`
	MatchScore    float64    `json:"match_score"`
	ScoredAt      *time.Time `json:"scored_at"`
}

type PairMatchDTO struct {
	JobID        uuid.UUID `json:"job_id"`
	UserID       uuid.UUID `json:"user_id"`
	MatchPercent float64   `json:"match_percent"`
}

type InsightDTO struct {
	JobID     uuid.UUID `json:"job_id"`
	ResumeID  uuid.UUID `json:"resume_id"`
	Strengths []string  `json:"strengths"`
	Gaps      []string  `json:"gaps"`
	Summary   string    `json:"summary"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewInsightDTO(i *model.JobResumeInsight) InsightDTO {
	return InsightDTO{
		JobID:     i.JobID,
		ResumeID:  i.ResumeID,
		Strengths: nonNil(i.Strengths),
		Gaps:      nonNil(i.Gaps),
		Summary:   i.Summary,
		UpdatedAt: i.UpdatedAt,
	}
}

type SearchJobsRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
