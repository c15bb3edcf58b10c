package diff

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
	"github.com/kumemura-df/struct-project/internal/domain/repositories"
)

// Tracker records field-level change history and answers "what changed
// since meeting X" queries over it. History is append-only; queries never
// mutate.
type Tracker struct {
	historyRepo repositories.HistoryRepository
	taskRepo    repositories.TaskRepository
	riskRepo    repositories.RiskRepository
	meetingRepo repositories.MeetingRepository
	logger      *zap.Logger
}

// NewTracker creates a diff tracker
func NewTracker(
	historyRepo repositories.HistoryRepository,
	taskRepo repositories.TaskRepository,
	riskRepo repositories.RiskRepository,
	meetingRepo repositories.MeetingRepository,
	logger *zap.Logger,
) *Tracker {
	return &Tracker{
		historyRepo: historyRepo,
		taskRepo:    taskRepo,
		riskRepo:    riskRepo,
		meetingRepo: meetingRepo,
		logger:      logger,
	}
}

// RecordTaskStatusChange appends a status history row. Callers invoke this
// after any persisted status mutation; an unchanged status records nothing.
func (t *Tracker) RecordTaskStatusChange(ctx context.Context, taskID uuid.UUID, oldStatus, newStatus entities.TaskStatus, meetingID *uuid.UUID) error {
	if oldStatus == newStatus {
		return nil
	}
	entry := entities.NewTaskHistory(taskID, "status", string(oldStatus), string(newStatus), meetingID)
	if err := t.historyRepo.CreateTaskHistory(ctx, entry); err != nil {
		return fmt.Errorf("failed to record task status change: %w", err)
	}
	if t.logger != nil {
		t.logger.Info("📝 Task status change recorded",
			zap.String("task_id", taskID.String()),
			zap.String("old", string(oldStatus)),
			zap.String("new", string(newStatus)),
		)
	}
	return nil
}

// RecordRiskLevelChange appends a level history row; an unchanged level
// records nothing.
func (t *Tracker) RecordRiskLevelChange(ctx context.Context, riskID uuid.UUID, oldLevel, newLevel entities.RiskLevel, meetingID *uuid.UUID) error {
	if oldLevel == newLevel {
		return nil
	}
	entry := entities.NewRiskHistory(riskID, oldLevel, newLevel, meetingID)
	if err := t.historyRepo.CreateRiskHistory(ctx, entry); err != nil {
		return fmt.Errorf("failed to record risk level change: %w", err)
	}
	if t.logger != nil {
		t.logger.Info("📝 Risk level change recorded",
			zap.String("risk_id", riskID.String()),
			zap.String("old", string(oldLevel)),
			zap.String("new", string(newLevel)),
		)
	}
	return nil
}

// ChangeTaskStatus is the update path used by callers mutating a task's
// status: it persists the new value and records the history row.
func (t *Tracker) ChangeTaskStatus(ctx context.Context, taskID uuid.UUID, newStatus entities.TaskStatus, meetingID *uuid.UUID) error {
	task, err := t.taskRepo.GetTaskByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return fmt.Errorf("task not found: %s", taskID)
	}
	if task.Status == newStatus {
		return nil
	}
	if err := t.taskRepo.UpdateTaskStatus(ctx, taskID, newStatus); err != nil {
		return err
	}
	return t.RecordTaskStatusChange(ctx, taskID, task.Status, newStatus, meetingID)
}

// ChangeRiskLevel is the symmetric update path for a risk's level
func (t *Tracker) ChangeRiskLevel(ctx context.Context, riskID uuid.UUID, newLevel entities.RiskLevel, meetingID *uuid.UUID) error {
	risk, err := t.riskRepo.GetRiskByID(ctx, riskID)
	if err != nil {
		return err
	}
	if risk == nil {
		return fmt.Errorf("risk not found: %s", riskID)
	}
	if risk.Level == newLevel {
		return nil
	}
	if err := t.riskRepo.UpdateRiskLevel(ctx, riskID, newLevel); err != nil {
		return err
	}
	return t.RecordRiskLevelChange(ctx, riskID, risk.Level, newLevel, meetingID)
}

// sinceMeeting resolves a reference meeting to its creation timestamp
func (t *Tracker) sinceMeeting(ctx context.Context, meetingID uuid.UUID) (time.Time, error) {
	meeting, err := t.meetingRepo.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return time.Time{}, err
	}
	if meeting == nil {
		return time.Time{}, fmt.Errorf("reference meeting not found: %s", meetingID)
	}
	return meeting.CreatedAt, nil
}

// NewTasksSinceDate returns tasks created after the reference date
func (t *Tracker) NewTasksSinceDate(ctx context.Context, tenantID string, since time.Time) ([]entities.Task, error) {
	return t.taskRepo.ListTasksCreatedAfter(ctx, tenantID, since)
}

// NewTasksSinceMeeting returns tasks created after the reference meeting
func (t *Tracker) NewTasksSinceMeeting(ctx context.Context, tenantID string, meetingID uuid.UUID) ([]entities.Task, error) {
	since, err := t.sinceMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	return t.NewTasksSinceDate(ctx, tenantID, since)
}

// StatusChangesSinceDate returns status history after the reference date,
// joined to current task and project metadata.
func (t *Tracker) StatusChangesSinceDate(ctx context.Context, tenantID string, since time.Time) ([]entities.TaskStatusChange, error) {
	return t.historyRepo.StatusChangesSince(ctx, tenantID, since)
}

// StatusChangesSinceMeeting returns status history after the reference meeting
func (t *Tracker) StatusChangesSinceMeeting(ctx context.Context, tenantID string, meetingID uuid.UUID) ([]entities.TaskStatusChange, error) {
	since, err := t.sinceMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	return t.StatusChangesSinceDate(ctx, tenantID, since)
}

// EscalatedRisksSinceDate returns level changes that strictly increased the
// level under LOW < MEDIUM < HIGH.
func (t *Tracker) EscalatedRisksSinceDate(ctx context.Context, tenantID string, since time.Time) ([]entities.RiskLevelChange, error) {
	return t.riskChangesSince(ctx, tenantID, since, true)
}

// DeEscalatedRisksSinceDate is the symmetric strictly-decreasing query
func (t *Tracker) DeEscalatedRisksSinceDate(ctx context.Context, tenantID string, since time.Time) ([]entities.RiskLevelChange, error) {
	return t.riskChangesSince(ctx, tenantID, since, false)
}

// EscalatedRisksSinceMeeting returns escalations after the reference meeting
func (t *Tracker) EscalatedRisksSinceMeeting(ctx context.Context, tenantID string, meetingID uuid.UUID) ([]entities.RiskLevelChange, error) {
	since, err := t.sinceMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	return t.EscalatedRisksSinceDate(ctx, tenantID, since)
}

// DeEscalatedRisksSinceMeeting returns de-escalations after the reference meeting
func (t *Tracker) DeEscalatedRisksSinceMeeting(ctx context.Context, tenantID string, meetingID uuid.UUID) ([]entities.RiskLevelChange, error) {
	since, err := t.sinceMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	return t.DeEscalatedRisksSinceDate(ctx, tenantID, since)
}

func (t *Tracker) riskChangesSince(ctx context.Context, tenantID string, since time.Time, escalations bool) ([]entities.RiskLevelChange, error) {
	changes, err := t.historyRepo.RiskLevelChangesSince(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}
	filtered := make([]entities.RiskLevelChange, 0, len(changes))
	for _, c := range changes {
		oldRank := entities.RiskLevelRank(c.OldLevel)
		newRank := entities.RiskLevelRank(c.NewLevel)
		if escalations && newRank > oldRank {
			filtered = append(filtered, c)
		}
		if !escalations && newRank < oldRank {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// TaskLifecycle returns the full ordered timeline for one task: the
// creation event followed by every history row ascending by time.
func (t *Tracker) TaskLifecycle(ctx context.Context, taskID uuid.UUID) ([]entities.TaskLifecycleEvent, error) {
	task, err := t.taskRepo.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task not found: %s", taskID)
	}

	meetingID := task.MeetingID
	events := []entities.TaskLifecycleEvent{{
		EventType: "created",
		NewValue:  string(task.Status),
		MeetingID: &meetingID,
		At:        task.CreatedAt,
	}}

	history, err := t.historyRepo.ListTaskHistory(ctx, taskID)
	if err != nil {
		return nil, err
	}
	for _, h := range history {
		events = append(events, entities.TaskLifecycleEvent{
			EventType: "changed",
			Field:     h.FieldChanged,
			OldValue:  h.OldValue,
			NewValue:  h.NewValue,
			MeetingID: h.MeetingID,
			At:        h.ChangedAt,
		})
	}
	return events, nil
}

// MeetingDiff aggregates the three "since meeting" queries into one summary
func (t *Tracker) MeetingDiff(ctx context.Context, tenantID string, meetingID uuid.UUID) (*entities.MeetingDiffSummary, error) {
	since, err := t.sinceMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	newTasks, err := t.NewTasksSinceDate(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}
	statusChanges, err := t.StatusChangesSinceDate(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}
	escalations, err := t.EscalatedRisksSinceDate(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}

	return &entities.MeetingDiffSummary{
		MeetingID:      meetingID,
		Since:          since,
		NewTasks:       newTasks,
		StatusChanges:  statusChanges,
		EscalatedRisks: escalations,
	}, nil
}
