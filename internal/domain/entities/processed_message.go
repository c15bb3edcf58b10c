package entities

import (
	"time"

	"github.com/google/uuid"
)

// ProcessedMessage is the idempotency ledger. A row existing for a message
// id is proof that processing fully completed, persistence included.
type ProcessedMessage struct {
	MessageID   string    `json:"message_id" gorm:"type:varchar(255);primary_key"`
	MeetingID   uuid.UUID `json:"meeting_id" gorm:"type:uuid;not null;index"`
	ProcessedAt time.Time `json:"processed_at" gorm:"not null"`
}

// TableName specifies the table name for GORM
func (ProcessedMessage) TableName() string {
	return "processed_messages"
}

// NewProcessedMessage records a fully completed job
func NewProcessedMessage(messageID string, meetingID uuid.UUID) *ProcessedMessage {
	return &ProcessedMessage{
		MessageID:   messageID,
		MeetingID:   meetingID,
		ProcessedAt: time.Now(),
	}
}
