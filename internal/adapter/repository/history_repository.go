package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
)

// HistoryRepository handles append-only change history and the read-side
// diff queries built on it.
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// CreateTaskHistory appends a task change record
func (r *HistoryRepository) CreateTaskHistory(ctx context.Context, entry *entities.TaskHistory) error {
	if entry == nil {
		return errors.New("history entry cannot be nil")
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// CreateRiskHistory appends a risk level change record
func (r *HistoryRepository) CreateRiskHistory(ctx context.Context, entry *entities.RiskHistory) error {
	if entry == nil {
		return errors.New("history entry cannot be nil")
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListTaskHistory retrieves all change records for a task, ascending by time
func (r *HistoryRepository) ListTaskHistory(ctx context.Context, taskID uuid.UUID) ([]entities.TaskHistory, error) {
	var entries []entities.TaskHistory
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("changed_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// StatusChangesSince returns status history rows after the reference point,
// joined to current task and project metadata.
func (r *HistoryRepository) StatusChangesSince(ctx context.Context, tenantID string, since time.Time) ([]entities.TaskStatusChange, error) {
	var changes []entities.TaskStatusChange
	err := r.db.WithContext(ctx).Raw(`
		SELECT th.task_id,
		       t.title AS task_title,
		       COALESCE(p.name, '') AS project_name,
		       th.old_value,
		       th.new_value,
		       th.meeting_id,
		       th.changed_at
		FROM task_history th
		JOIN tasks t ON t.id = th.task_id AND t.deleted_at IS NULL
		JOIN meetings m ON m.id = t.meeting_id
		LEFT JOIN projects p ON p.id = t.project_id
		WHERE th.field_changed = 'status'
		  AND m.tenant_id = ?
		  AND th.changed_at > ?
		ORDER BY th.changed_at ASC
	`, tenantID, since).Scan(&changes).Error
	if err != nil {
		return nil, err
	}
	return changes, nil
}

// RiskLevelChangesSince returns level history rows after the reference
// point, joined to current risk and project metadata.
func (r *HistoryRepository) RiskLevelChangesSince(ctx context.Context, tenantID string, since time.Time) ([]entities.RiskLevelChange, error) {
	var changes []entities.RiskLevelChange
	err := r.db.WithContext(ctx).Raw(`
		SELECT rh.risk_id,
		       k.description AS risk_description,
		       COALESCE(p.name, '') AS project_name,
		       rh.old_level,
		       rh.new_level,
		       rh.meeting_id,
		       rh.changed_at
		FROM risk_history rh
		JOIN risks k ON k.id = rh.risk_id AND k.deleted_at IS NULL
		JOIN meetings m ON m.id = k.meeting_id
		LEFT JOIN projects p ON p.id = k.project_id
		WHERE m.tenant_id = ?
		  AND rh.changed_at > ?
		ORDER BY rh.changed_at ASC
	`, tenantID, since).Scan(&changes).Error
	if err != nil {
		return nil, err
	}
	return changes, nil
}
