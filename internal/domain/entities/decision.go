package entities

import (
	"time"

	"github.com/google/uuid"
)

// Decision is the stored decision model. Owned by exactly one meeting;
// optionally associated with one project (weak reference).
type Decision struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID      uuid.UUID  `json:"meeting_id" gorm:"type:uuid;not null;index"`
	ProjectID      *uuid.UUID `json:"project_id,omitempty" gorm:"type:uuid;index"`
	Content        string     `json:"content" gorm:"type:varchar(2000);not null"`
	Decider        string     `json:"decider,omitempty" gorm:"type:varchar(200)"`
	SourceSentence string     `json:"source_sentence,omitempty" gorm:"type:varchar(1000)"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for GORM
func (Decision) TableName() string {
	return "decisions"
}

// NewDecision creates a new decision for a meeting
func NewDecision(meetingID uuid.UUID, content string) *Decision {
	return &Decision{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Content:   content,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
