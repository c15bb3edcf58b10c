package entities

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel of a risk
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// NormalizeRiskLevel coerces any out-of-enum value to MEDIUM
func NormalizeRiskLevel(l string) RiskLevel {
	switch RiskLevel(l) {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return RiskLevel(l)
	}
	return RiskLevelMedium
}

// RiskLevelRank maps a level to its position in the LOW < MEDIUM < HIGH
// ordering, -1 for unknown values. Escalation detection compares ranks.
func RiskLevelRank(l RiskLevel) int {
	switch l {
	case RiskLevelLow:
		return 0
	case RiskLevelMedium:
		return 1
	case RiskLevelHigh:
		return 2
	}
	return -1
}

// Risk is the stored risk model. Owned by exactly one meeting; optionally
// associated with one project (weak reference).
type Risk struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID      uuid.UUID  `json:"meeting_id" gorm:"type:uuid;not null;index"`
	ProjectID      *uuid.UUID `json:"project_id,omitempty" gorm:"type:uuid;index"`
	Description    string     `json:"description" gorm:"type:varchar(2000);not null"`
	Level          RiskLevel  `json:"level" gorm:"type:varchar(10);not null;default:'MEDIUM'"`
	Owner          string     `json:"owner" gorm:"type:varchar(200)"`
	SourceSentence string     `json:"source_sentence,omitempty" gorm:"type:varchar(1000)"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for GORM
func (Risk) TableName() string {
	return "risks"
}

// NewRisk creates a new risk for a meeting
func NewRisk(meetingID uuid.UUID, description string) *Risk {
	return &Risk{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		Description: description,
		Level:       RiskLevelMedium,
		Owner:       "Unassigned",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}
