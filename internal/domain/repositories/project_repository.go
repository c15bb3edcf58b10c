package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
)

// ProjectRepository defines persistence operations for projects
type ProjectRepository interface {
	// FindByName looks up a project by exact, case-sensitive name within a
	// tenant. Returns (nil, nil) when absent.
	FindByName(ctx context.Context, tenantID, name string) (*entities.Project, error)
	// InsertOrFetch creates the project, or fetches the existing row when a
	// concurrent writer won the unique (tenant_id, name) race.
	InsertOrFetch(ctx context.Context, project *entities.Project) (*entities.Project, error)
	UpdateLatestMeeting(ctx context.Context, projectID, meetingID uuid.UUID) error
	ListByTenant(ctx context.Context, tenantID string) ([]entities.Project, error)
}
