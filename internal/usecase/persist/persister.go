package persist

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
	"github.com/kumemura-df/struct-project/internal/domain/repositories"
	"github.com/kumemura-df/struct-project/internal/usecase/extract"
)

// Field length caps applied before insert
const (
	maxTitleLen          = 500
	maxDescriptionLen    = 2000
	maxOwnerLen          = 200
	maxSourceSentenceLen = 1000
	maxDecisionLen       = 2000
)

// Stats counts what was successfully written
type Stats struct {
	Projects  int `json:"projects"`
	Tasks     int `json:"tasks"`
	Risks     int `json:"risks"`
	Decisions int `json:"decisions"`
}

// Persister maps extraction output into durable records. It never aborts on
// a single entity's failure: errors are collected, logged, and returned
// alongside the counts of what succeeded.
type Persister struct {
	projectRepo  repositories.ProjectRepository
	taskRepo     repositories.TaskRepository
	riskRepo     repositories.RiskRepository
	decisionRepo repositories.DecisionRepository
	dates        *extract.DateResolver
	logger       *zap.Logger
}

// NewPersister creates a persister
func NewPersister(
	projectRepo repositories.ProjectRepository,
	taskRepo repositories.TaskRepository,
	riskRepo repositories.RiskRepository,
	decisionRepo repositories.DecisionRepository,
	dates *extract.DateResolver,
	logger *zap.Logger,
) *Persister {
	return &Persister{
		projectRepo:  projectRepo,
		taskRepo:     taskRepo,
		riskRepo:     riskRepo,
		decisionRepo: decisionRepo,
		dates:        dates,
		logger:       logger,
	}
}

// Persist writes the extraction for one meeting. Projects are deduplicated
// by exact name within the tenant; tasks, risks, and decisions go in as
// three independent batches.
func (p *Persister) Persist(ctx context.Context, meeting *entities.Meeting, extraction *entities.ExtractionResult) (*Stats, []error) {
	stats := &Stats{}
	var errs []error

	// Resolve due dates relative to the meeting date, falling back to the
	// upload time when no date was recorded.
	anchor := meeting.CreatedAt
	if meeting.MeetingDate != nil {
		anchor = *meeting.MeetingDate
	}

	projectIDs := p.persistProjects(ctx, meeting, extraction, stats, &errs)

	var tasks []*entities.Task
	for _, et := range extraction.Tasks {
		task := entities.NewTask(meeting.ID, truncate(et.TaskTitle, maxTitleLen))
		task.Description = truncate(et.TaskDescription, maxDescriptionLen)
		task.Owner = truncate(et.Owner, maxOwnerLen)
		task.Status = entities.TaskStatus(et.Status)
		task.Priority = entities.Priority(et.Priority)
		task.SourceSentence = truncate(et.SourceSentence, maxSourceSentenceLen)
		if id, ok := projectIDs[et.ProjectName]; ok {
			projectID := id
			task.ProjectID = &projectID
		}
		if due := p.dates.Resolve(et.DueDateText, anchor); due != nil {
			d := datatypes.Date(*due)
			task.DueDate = &d
		}
		tasks = append(tasks, task)
	}
	inserted, batchErrs := p.taskRepo.CreateBatch(ctx, tasks)
	stats.Tasks = inserted
	errs = append(errs, batchErrs...)

	var risks []*entities.Risk
	for _, er := range extraction.Risks {
		risk := entities.NewRisk(meeting.ID, truncate(er.RiskDescription, maxDescriptionLen))
		risk.Level = entities.RiskLevel(er.RiskLevel)
		risk.Owner = truncate(er.Owner, maxOwnerLen)
		risk.SourceSentence = truncate(er.SourceSentence, maxSourceSentenceLen)
		if id, ok := projectIDs[er.ProjectName]; ok {
			projectID := id
			risk.ProjectID = &projectID
		}
		risks = append(risks, risk)
	}
	inserted, batchErrs = p.riskRepo.CreateBatch(ctx, risks)
	stats.Risks = inserted
	errs = append(errs, batchErrs...)

	var decisions []*entities.Decision
	for _, ed := range extraction.Decisions {
		decision := entities.NewDecision(meeting.ID, truncate(ed.DecisionContent, maxDecisionLen))
		decision.SourceSentence = truncate(ed.SourceSentence, maxSourceSentenceLen)
		if id, ok := projectIDs[ed.ProjectName]; ok {
			projectID := id
			decision.ProjectID = &projectID
		}
		decisions = append(decisions, decision)
	}
	inserted, batchErrs = p.decisionRepo.CreateBatch(ctx, decisions)
	stats.Decisions = inserted
	errs = append(errs, batchErrs...)

	if p.logger != nil {
		p.logger.Info("💾 Persisted extraction",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Int("projects", stats.Projects),
			zap.Int("tasks", stats.Tasks),
			zap.Int("risks", stats.Risks),
			zap.Int("decisions", stats.Decisions),
			zap.Int("errors", len(errs)),
		)
		for _, err := range errs {
			p.logger.Warn("⚠️ Partial persistence failure", zap.Error(err))
		}
	}
	return stats, errs
}

// persistProjects deduplicates by exact name and returns the name→id map
// used to resolve weak project references. An extraction referencing an
// unmapped name simply leaves the association null.
func (p *Persister) persistProjects(ctx context.Context, meeting *entities.Meeting, extraction *entities.ExtractionResult, stats *Stats, errs *[]error) map[string]uuid.UUID {
	projectIDs := make(map[string]uuid.UUID)
	for _, ep := range extraction.Projects {
		project, err := p.projectRepo.InsertOrFetch(ctx, entities.NewProject(meeting.TenantID, truncate(ep.ProjectName, maxTitleLen)))
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		if err := p.projectRepo.UpdateLatestMeeting(ctx, project.ID, meeting.ID); err != nil {
			*errs = append(*errs, err)
		}
		projectIDs[ep.ProjectName] = project.ID
		stats.Projects++
	}
	return projectIDs
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
