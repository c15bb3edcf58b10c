package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
)

// MeetingRepository defines persistence operations for meetings
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting *entities.Meeting) error
	GetMeetingByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)
	// UpdateMeetingStatus sets the status and, for ERROR, the message.
	// Passing a non-ERROR status clears any previous error message.
	UpdateMeetingStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus, errorMessage string) error
	UpdateMeetingLanguage(ctx context.Context, id uuid.UUID, language string) error
}
