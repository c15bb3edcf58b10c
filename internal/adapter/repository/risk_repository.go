package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
)

// RiskRepository handles risk data operations
type RiskRepository struct {
	db *gorm.DB
}

// NewRiskRepository creates a new risk repository
func NewRiskRepository(db *gorm.DB) *RiskRepository {
	return &RiskRepository{db: db}
}

// CreateBatch inserts risks one at a time, tolerating per-row failures
func (r *RiskRepository) CreateBatch(ctx context.Context, risks []*entities.Risk) (int, []error) {
	var (
		inserted int
		errs     []error
	)
	for _, risk := range risks {
		if risk == nil {
			errs = append(errs, errors.New("risk cannot be nil"))
			continue
		}
		if err := r.db.WithContext(ctx).Create(risk).Error; err != nil {
			errs = append(errs, fmt.Errorf("risk %q: %w", risk.Description, err))
			continue
		}
		inserted++
	}
	return inserted, errs
}

// GetRiskByID retrieves a risk by ID, ignoring soft-deleted rows
func (r *RiskRepository) GetRiskByID(ctx context.Context, id uuid.UUID) (*entities.Risk, error) {
	var risk entities.Risk
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&risk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &risk, nil
}

// ListRisksByMeeting retrieves all risks owned by a meeting
func (r *RiskRepository) ListRisksByMeeting(ctx context.Context, meetingID uuid.UUID) ([]entities.Risk, error) {
	var risks []entities.Risk
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND deleted_at IS NULL", meetingID).
		Order("created_at ASC").
		Find(&risks).Error; err != nil {
		return nil, err
	}
	return risks, nil
}

// UpdateRiskLevel updates the level of a risk
func (r *RiskRepository) UpdateRiskLevel(ctx context.Context, id uuid.UUID, level entities.RiskLevel) error {
	return r.db.WithContext(ctx).
		Model(&entities.Risk{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"level":      level,
			"updated_at": time.Now(),
		}).Error
}
