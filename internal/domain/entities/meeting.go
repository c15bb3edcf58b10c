package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingStatus is the lifecycle state of a meeting
type MeetingStatus string

const (
	MeetingStatusPending      MeetingStatus = "PENDING"
	MeetingStatusTranscribing MeetingStatus = "TRANSCRIBING"
	MeetingStatusProcessing   MeetingStatus = "PROCESSING"
	MeetingStatusDone         MeetingStatus = "DONE"
	MeetingStatusError        MeetingStatus = "ERROR"
)

// IsTerminal reports whether the status accepts no further transitions.
// DONE is terminal; ERROR accepts a retried run moving it forward again.
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusDone
}

// Meeting is the stored meeting model. Created on upload; mutated only by
// the job processor.
type Meeting struct {
	ID           uuid.UUID                         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     string                            `json:"tenant_id" gorm:"type:varchar(255);not null;index"`
	Title        string                            `json:"title" gorm:"type:varchar(500)"`
	MeetingDate  *time.Time                        `json:"meeting_date,omitempty"`
	SourceRef    string                            `json:"source_ref,omitempty" gorm:"type:varchar(1000)"`
	Language     string                            `json:"language,omitempty" gorm:"type:varchar(20)"`
	Status       MeetingStatus                     `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ErrorMessage string                            `json:"error_message,omitempty" gorm:"type:varchar(500)"`
	Participants datatypes.JSONType[[]string]      `json:"participants,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time                         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time                         `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt    *time.Time                        `json:"deleted_at,omitempty" gorm:"index"`
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a new meeting in PENDING
func NewMeeting(tenantID, title string) *Meeting {
	return &Meeting{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Title:     title,
		Status:    MeetingStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
