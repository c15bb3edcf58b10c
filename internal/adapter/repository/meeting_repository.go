package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
)

// MeetingRepository handles meeting data operations
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// CreateMeeting creates a new meeting
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting *entities.Meeting) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	return r.db.WithContext(ctx).Create(meeting).Error
}

// GetMeetingByID retrieves a meeting by ID, ignoring soft-deleted rows
func (r *MeetingRepository) GetMeetingByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// UpdateMeetingStatus updates the lifecycle status. DONE is terminal: a
// meeting already DONE is never moved again. A non-ERROR status clears the
// error message.
func (r *MeetingRepository) UpdateMeetingStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus, errorMessage string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == entities.MeetingStatusError {
		updates["error_message"] = errorMessage
	} else {
		updates["error_message"] = ""
	}
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status <> ?", id, entities.MeetingStatusDone).
		Updates(updates).Error
}

// UpdateMeetingLanguage records the detected transcript language
func (r *MeetingRepository) UpdateMeetingLanguage(ctx context.Context, id uuid.UUID, language string) error {
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"language":   language,
			"updated_at": time.Now(),
		}).Error
}
