package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "NOT_STARTED"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusUnknown    TaskStatus = "UNKNOWN"
)

// NormalizeTaskStatus coerces any out-of-enum value to UNKNOWN
func NormalizeTaskStatus(s string) TaskStatus {
	switch TaskStatus(s) {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusDone, TaskStatusUnknown:
		return TaskStatus(s)
	}
	return TaskStatusUnknown
}

// Priority of a task
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// NormalizePriority coerces any out-of-enum value to MEDIUM
func NormalizePriority(p string) Priority {
	switch Priority(p) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(p)
	}
	return PriorityMedium
}

// Task is the stored task model. Owned by exactly one meeting; optionally
// associated with one project (weak reference).
type Task struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID      uuid.UUID       `json:"meeting_id" gorm:"type:uuid;not null;index"`
	ProjectID      *uuid.UUID      `json:"project_id,omitempty" gorm:"type:uuid;index"`
	Title          string          `json:"title" gorm:"type:varchar(500);not null"`
	Description    string          `json:"description,omitempty" gorm:"type:varchar(2000)"`
	Owner          string          `json:"owner" gorm:"type:varchar(200)"`
	DueDate        *datatypes.Date `json:"due_date,omitempty"`
	Status         TaskStatus      `json:"status" gorm:"type:varchar(20);not null;default:'UNKNOWN'"`
	Priority       Priority        `json:"priority" gorm:"type:varchar(10);not null;default:'MEDIUM'"`
	SourceSentence string          `json:"source_sentence,omitempty" gorm:"type:varchar(1000)"`
	CreatedAt      time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt      *time.Time      `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for GORM
func (Task) TableName() string {
	return "tasks"
}

// NewTask creates a new task for a meeting
func NewTask(meetingID uuid.UUID, title string) *Task {
	return &Task{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Title:     title,
		Owner:     "Unassigned",
		Status:    TaskStatusUnknown,
		Priority:  PriorityMedium,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
