package entities

import (
	"time"

	"github.com/google/uuid"
)

// TaskHistory is an append-only record of a field-level task change.
// Rows are never mutated or deleted.
type TaskHistory struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TaskID       uuid.UUID  `json:"task_id" gorm:"type:uuid;not null;index"`
	FieldChanged string     `json:"field_changed" gorm:"type:varchar(100);not null;index"`
	OldValue     string     `json:"old_value" gorm:"type:varchar(500)"`
	NewValue     string     `json:"new_value" gorm:"type:varchar(500)"`
	MeetingID    *uuid.UUID `json:"meeting_id,omitempty" gorm:"type:uuid;index"`
	ChangedAt    time.Time  `json:"changed_at" gorm:"not null;index"`
}

// TableName specifies the table name for GORM
func (TaskHistory) TableName() string {
	return "task_history"
}

// NewTaskHistory creates a task change record
func NewTaskHistory(taskID uuid.UUID, field, oldValue, newValue string, meetingID *uuid.UUID) *TaskHistory {
	return &TaskHistory{
		ID:           uuid.New(),
		TaskID:       taskID,
		FieldChanged: field,
		OldValue:     oldValue,
		NewValue:     newValue,
		MeetingID:    meetingID,
		ChangedAt:    time.Now(),
	}
}

// RiskHistory is an append-only record of a risk level change
type RiskHistory struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RiskID    uuid.UUID  `json:"risk_id" gorm:"type:uuid;not null;index"`
	OldLevel  RiskLevel  `json:"old_level" gorm:"type:varchar(10);not null"`
	NewLevel  RiskLevel  `json:"new_level" gorm:"type:varchar(10);not null"`
	MeetingID *uuid.UUID `json:"meeting_id,omitempty" gorm:"type:uuid;index"`
	ChangedAt time.Time  `json:"changed_at" gorm:"not null;index"`
}

// TableName specifies the table name for GORM
func (RiskHistory) TableName() string {
	return "risk_history"
}

// NewRiskHistory creates a risk level change record
func NewRiskHistory(riskID uuid.UUID, oldLevel, newLevel RiskLevel, meetingID *uuid.UUID) *RiskHistory {
	return &RiskHistory{
		ID:        uuid.New(),
		RiskID:    riskID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		MeetingID: meetingID,
		ChangedAt: time.Now(),
	}
}

// IsEscalation reports whether the recorded change strictly increases the
// level under LOW < MEDIUM < HIGH.
func (h *RiskHistory) IsEscalation() bool {
	return RiskLevelRank(h.NewLevel) > RiskLevelRank(h.OldLevel)
}
