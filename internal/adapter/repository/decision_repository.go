package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
)

// DecisionRepository handles decision data operations
type DecisionRepository struct {
	db *gorm.DB
}

// NewDecisionRepository creates a new decision repository
func NewDecisionRepository(db *gorm.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

// CreateBatch inserts decisions one at a time, tolerating per-row failures
func (r *DecisionRepository) CreateBatch(ctx context.Context, decisions []*entities.Decision) (int, []error) {
	var (
		inserted int
		errs     []error
	)
	for _, decision := range decisions {
		if decision == nil {
			errs = append(errs, errors.New("decision cannot be nil"))
			continue
		}
		if err := r.db.WithContext(ctx).Create(decision).Error; err != nil {
			errs = append(errs, fmt.Errorf("decision %q: %w", decision.Content, err))
			continue
		}
		inserted++
	}
	return inserted, errs
}

// ListDecisionsByMeeting retrieves all decisions owned by a meeting
func (r *DecisionRepository) ListDecisionsByMeeting(ctx context.Context, meetingID uuid.UUID) ([]entities.Decision, error) {
	var decisions []entities.Decision
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND deleted_at IS NULL", meetingID).
		Order("created_at ASC").
		Find(&decisions).Error; err != nil {
		return nil, err
	}
	return decisions, nil
}
