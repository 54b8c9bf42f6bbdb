package model

import (
	"time"

	"github.com/google/uuid"
)

// InterviewDifficulty selects the difficulty of generated interview rounds.
type InterviewDifficulty string

const (
	InterviewDifficultyJunior InterviewDifficulty = "junior"
	InterviewDifficultyMid    InterviewDifficulty = "mid"
	InterviewDifficultySenior InterviewDifficulty = "senior"
)

// IsValid checks if the difficulty is valid.
func (d InterviewDifficulty) IsValid() bool {
	switch d {
	case InterviewDifficultyJunior, InterviewDifficultyMid, InterviewDifficultySenior:
		return true
	}
	return false
}

// InterviewStyle selects the interview format.
type InterviewStyle string

const (
	InterviewStyleBehavioral   InterviewStyle = "behavioral"
	InterviewStyleTechnical    InterviewStyle = "technical"
	InterviewStyleSystemDesign InterviewStyle = "system_design"
	InterviewStyleMixed        InterviewStyle = "mixed"
)

// IsValid checks if the style is valid.
func (s InterviewStyle) IsValid() bool {
	switch s {
	case InterviewStyleBehavioral, InterviewStyleTechnical, InterviewStyleSystemDesign, InterviewStyleMixed:
		return true
	}
	return false
}

// InterviewSessionStatus represents the lifecycle state of a session.
type InterviewSessionStatus string

const (
	InterviewSessionStarted   InterviewSessionStatus = "started"
	InterviewSessionCompleted InterviewSessionStatus = "completed"
	InterviewSessionCancelled InterviewSessionStatus = "cancelled"
)

// IsValid checks if the session status is valid.
func (s InterviewSessionStatus) IsValid() bool {
	switch s {
	case InterviewSessionStarted, InterviewSessionCompleted, InterviewSessionCancelled:
		return true
	}
	return false
}

// InterviewConfig is the user-selected configuration for a mock interview.
type InterviewConfig struct {
	JobRole    string              `json:"job_role" gorm:"not null"`
	Difficulty InterviewDifficulty `json:"difficulty" gorm:"not null"`
	Style      InterviewStyle      `json:"style" gorm:"not null"`
	Language   string              `json:"language" gorm:"not null;default:en"`
}

// InterviewSession is one metered mock-interview run. CostUnits is the quota
// amount charged when the session started; it is what a cancellation refunds.
type InterviewSession struct {
	ID        uuid.UUID              `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID              `json:"user_id" gorm:"type:uuid;not null;index"`
	Config    InterviewConfig        `json:"config" gorm:"embedded"`
	Status    InterviewSessionStatus `json:"status" gorm:"not null;default:started"`
	CostUnits int64                  `json:"cost_units" gorm:"not null"`
	Period    string                 `json:"period" gorm:"not null"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// TableName returns the database table name.
func (InterviewSession) TableName() string {
	return "interview_sessions"
}

// InterviewSessionResponse represents session information for API responses.
type InterviewSessionResponse struct {
	ID        uuid.UUID       `json:"id"`
	Config    InterviewConfig `json:"config"`
	Status    string          `json:"status"`
	CostUnits int64           `json:"cost_units"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToResponse converts InterviewSession to InterviewSessionResponse.
func (s *InterviewSession) ToResponse() *InterviewSessionResponse {
	return &InterviewSessionResponse{
		ID:        s.ID,
		Config:    s.Config,
		Status:    string(s.Status),
		CostUnits: s.CostUnits,
		CreatedAt: s.CreatedAt,
	}
}
