package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	LevelFresher = "fresher"
	LevelMid     = "mid"
	LevelSenior  = "senior"
)

// ParsedProfile is the structured candidate profile recovered from a resume.
// Fields the resume does not mention stay nil and serialize as null.
type ParsedProfile struct {
	Role              *string  `json:"role"`
	Skills            []string `json:"skills"`
	ExperienceSummary *string  `json:"experience_summary"`
	Education         *string  `json:"education"`
	ExperienceLevel   *string  `json:"experience_level"`
	ProjectsSummary   *string  `json:"projects_summary"`
}

type Resume struct {
	ID         uuid.UUID                         `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID                         `gorm:"type:uuid;not null;index" json:"user_id"`
	Title      string                            `gorm:"type:varchar(255)" json:"title"`
	URL        string                            `gorm:"type:text;not null" json:"url"`
	ParsedData datatypes.JSONType[ParsedProfile] `gorm:"type:jsonb;not null;default:'{}'" json:"parsed_data"`
	ParsedAt   *time.Time                        `json:"parsed_at"`
	IsDefault  bool                              `gorm:"default:false;index" json:"is_default"`
	IsDeleted  bool                              `gorm:"default:false" json:"is_deleted"`
	CreatedAt  time.Time                         `json:"created_at"`
	UpdatedAt  time.Time                         `json:"updated_at"`
}

func (r *Resume) TableName() string {
	return "resumes"
}

// Parsed reports whether the structured profile has been persisted.
func (r *Resume) Parsed() bool {
	return r.ParsedAt != nil
}

func (r *Resume) Profile() ParsedProfile {
	return r.ParsedData.Data()
}
