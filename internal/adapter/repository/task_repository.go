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

// TaskRepository handles task data operations
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// CreateBatch inserts tasks one at a time so one rejected row never rolls
// back its siblings. Returns the inserted count and the collected errors.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []*entities.Task) (int, []error) {
	var (
		inserted int
		errs     []error
	)
	for _, task := range tasks {
		if task == nil {
			errs = append(errs, errors.New("task cannot be nil"))
			continue
		}
		if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
			errs = append(errs, fmt.Errorf("task %q: %w", task.Title, err))
			continue
		}
		inserted++
	}
	return inserted, errs
}

// GetTaskByID retrieves a task by ID, ignoring soft-deleted rows
func (r *TaskRepository) GetTaskByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	var task entities.Task
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// ListTasksByMeeting retrieves all tasks owned by a meeting
func (r *TaskRepository) ListTasksByMeeting(ctx context.Context, meetingID uuid.UUID) ([]entities.Task, error) {
	var tasks []entities.Task
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND deleted_at IS NULL", meetingID).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateTaskStatus updates the status of a task
func (r *TaskRepository) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status entities.TaskStatus) error {
	return r.db.WithContext(ctx).
		Model(&entities.Task{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// ListTasksCreatedAfter retrieves tasks for a tenant created after the
// reference point, via their owning meetings.
func (r *TaskRepository) ListTasksCreatedAfter(ctx context.Context, tenantID string, after time.Time) ([]entities.Task, error) {
	var tasks []entities.Task
	if err := r.db.WithContext(ctx).
		Joins("JOIN meetings ON meetings.id = tasks.meeting_id").
		Where("meetings.tenant_id = ? AND tasks.created_at > ? AND tasks.deleted_at IS NULL", tenantID, after).
		Order("tasks.created_at ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}
