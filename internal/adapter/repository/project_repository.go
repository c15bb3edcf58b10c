package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
)

// ProjectRepository handles project data operations
type ProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindByName looks up a project by exact, case-sensitive name within a tenant
func (r *ProjectRepository) FindByName(ctx context.Context, tenantID, name string) (*entities.Project, error) {
	var project entities.Project
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &project, nil
}

// InsertOrFetch creates the project, falling back to the existing row when a
// concurrent writer won the unique (tenant_id, name) race. Never creates a
// duplicate row for the same name.
func (r *ProjectRepository) InsertOrFetch(ctx context.Context, project *entities.Project) (*entities.Project, error) {
	if project == nil {
		return nil, errors.New("project cannot be nil")
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "name"}},
			DoNothing: true,
		}).
		Create(project)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected > 0 {
		return project, nil
	}

	// Conflict: another writer inserted this name first, fetch theirs
	existing, err := r.FindByName(ctx, project.TenantID, project.Name)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.New("project vanished after conflicting insert")
	}
	return existing, nil
}

// UpdateLatestMeeting moves the latest-meeting back-reference. Last writer
// wins under concurrent processing.
func (r *ProjectRepository) UpdateLatestMeeting(ctx context.Context, projectID, meetingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.Project{}).
		Where("id = ?", projectID).
		Updates(map[string]interface{}{
			"latest_meeting_id": meetingID,
			"updated_at":        time.Now(),
		}).Error
}

// ListByTenant retrieves all projects for a tenant
func (r *ProjectRepository) ListByTenant(ctx context.Context, tenantID string) ([]entities.Project, error) {
	var projects []entities.Project
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}
