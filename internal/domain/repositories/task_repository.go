package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
)

// TaskRepository defines persistence operations for tasks
type TaskRepository interface {
	// CreateBatch inserts tasks one by one, tolerating per-row failures.
	// Returns the count inserted and the errors collected.
	CreateBatch(ctx context.Context, tasks []*entities.Task) (int, []error)
	GetTaskByID(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	ListTasksByMeeting(ctx context.Context, meetingID uuid.UUID) ([]entities.Task, error)
	// UpdateTaskStatus sets the status; history recording is the caller's
	// responsibility via the diff tracker hook.
	UpdateTaskStatus(ctx context.Context, id uuid.UUID, status entities.TaskStatus) error
	ListTasksCreatedAfter(ctx context.Context, tenantID string, after time.Time) ([]entities.Task, error)
}

// RiskRepository defines persistence operations for risks
type RiskRepository interface {
	CreateBatch(ctx context.Context, risks []*entities.Risk) (int, []error)
	GetRiskByID(ctx context.Context, id uuid.UUID) (*entities.Risk, error)
	ListRisksByMeeting(ctx context.Context, meetingID uuid.UUID) ([]entities.Risk, error)
	UpdateRiskLevel(ctx context.Context, id uuid.UUID, level entities.RiskLevel) error
}

// DecisionRepository defines persistence operations for decisions
type DecisionRepository interface {
	CreateBatch(ctx context.Context, decisions []*entities.Decision) (int, []error)
	ListDecisionsByMeeting(ctx context.Context, meetingID uuid.UUID) ([]entities.Decision, error)
}
