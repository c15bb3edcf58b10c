package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
)

// HistoryRepository defines append-only change history operations and the
// read-side diff queries built on them.
type HistoryRepository interface {
	CreateTaskHistory(ctx context.Context, entry *entities.TaskHistory) error
	CreateRiskHistory(ctx context.Context, entry *entities.RiskHistory) error
	ListTaskHistory(ctx context.Context, taskID uuid.UUID) ([]entities.TaskHistory, error)
	// StatusChangesSince returns status history rows after the reference
	// point, joined to current task and project metadata.
	StatusChangesSince(ctx context.Context, tenantID string, since time.Time) ([]entities.TaskStatusChange, error)
	// RiskLevelChangesSince returns level history rows after the reference
	// point; filtering escalations from de-escalations is the caller's job.
	RiskLevelChangesSince(ctx context.Context, tenantID string, since time.Time) ([]entities.RiskLevelChange, error)
}

// ProcessedMessageRepository is the idempotency ledger
type ProcessedMessageRepository interface {
	IsProcessed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, record *entities.ProcessedMessage) error
}
