package entities

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatusChange is a status history row joined to current task and
// project metadata, for read-side diff queries.
type TaskStatusChange struct {
	TaskID      uuid.UUID  `json:"task_id"`
	TaskTitle   string     `json:"task_title"`
	ProjectName string     `json:"project_name,omitempty"`
	OldValue    string     `json:"old_value"`
	NewValue    string     `json:"new_value"`
	MeetingID   *uuid.UUID `json:"meeting_id,omitempty"`
	ChangedAt   time.Time  `json:"changed_at"`
}

// RiskLevelChange is a risk level history row joined to current risk and
// project metadata.
type RiskLevelChange struct {
	RiskID          uuid.UUID  `json:"risk_id"`
	RiskDescription string     `json:"risk_description"`
	ProjectName     string     `json:"project_name,omitempty"`
	OldLevel        RiskLevel  `json:"old_level"`
	NewLevel        RiskLevel  `json:"new_level"`
	MeetingID       *uuid.UUID `json:"meeting_id,omitempty"`
	ChangedAt       time.Time  `json:"changed_at"`
}

// TaskLifecycleEvent is one entry in a task's ordered timeline. The first
// event is always the creation, followed by history rows ascending by time.
type TaskLifecycleEvent struct {
	EventType string     `json:"event_type"` // "created" or "changed"
	Field     string     `json:"field,omitempty"`
	OldValue  string     `json:"old_value,omitempty"`
	NewValue  string     `json:"new_value,omitempty"`
	MeetingID *uuid.UUID `json:"meeting_id,omitempty"`
	At        time.Time  `json:"at"`
}

// MeetingDiffSummary aggregates the "what changed since meeting X" queries
type MeetingDiffSummary struct {
	MeetingID      uuid.UUID          `json:"meeting_id"`
	Since          time.Time          `json:"since"`
	NewTasks       []Task             `json:"new_tasks"`
	StatusChanges  []TaskStatusChange `json:"status_changes"`
	EscalatedRisks []RiskLevelChange  `json:"escalated_risks"`
}
