package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
)

// ProcessedMessageRepository is the idempotency ledger
type ProcessedMessageRepository struct {
	db *gorm.DB
}

// NewProcessedMessageRepository creates a new ledger repository
func NewProcessedMessageRepository(db *gorm.DB) *ProcessedMessageRepository {
	return &ProcessedMessageRepository{db: db}
}

// IsProcessed reports whether a ledger row exists for the message id
func (r *ProcessedMessageRepository) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	var record entities.ProcessedMessage
	if err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MarkProcessed inserts the ledger row. A replayed insert for the same
// message id is a no-op, not an error.
func (r *ProcessedMessageRepository) MarkProcessed(ctx context.Context, record *entities.ProcessedMessage) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record).Error
}
