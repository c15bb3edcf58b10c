package entities

import "strings"

// ExtractedProject is a project mention in the model output
type ExtractedProject struct {
	ProjectName string `json:"project_name"`
}

// ExtractedTask is a task in the model output
type ExtractedTask struct {
	ProjectName     string `json:"project_name,omitempty"`
	TaskTitle       string `json:"task_title"`
	TaskDescription string `json:"task_description,omitempty"`
	Owner           string `json:"owner,omitempty"`
	DueDateText     string `json:"due_date_text,omitempty"`
	Status          string `json:"status,omitempty"`
	Priority        string `json:"priority,omitempty"`
	SourceSentence  string `json:"source_sentence,omitempty"`
}

// ExtractedRisk is a risk in the model output
type ExtractedRisk struct {
	ProjectName     string `json:"project_name,omitempty"`
	RiskDescription string `json:"risk_description"`
	RiskLevel       string `json:"risk_level,omitempty"`
	Owner           string `json:"owner,omitempty"`
	SourceSentence  string `json:"source_sentence,omitempty"`
}

// ExtractedDecision is a decision in the model output
type ExtractedDecision struct {
	ProjectName     string `json:"project_name,omitempty"`
	DecisionContent string `json:"decision_content"`
	SourceSentence  string `json:"source_sentence,omitempty"`
}

// ExtractionResult is the typed output of one extraction call
type ExtractionResult struct {
	Projects  []ExtractedProject  `json:"projects"`
	Tasks     []ExtractedTask     `json:"tasks"`
	Risks     []ExtractedRisk     `json:"risks"`
	Decisions []ExtractedDecision `json:"decisions"`
}

// Sanitize coerces out-of-enum values to their defaults, fills the default
// owner, and drops entries whose required text is empty. The model output is
// not contract-guaranteed to respect the schema, so coercion never errors.
func (r *ExtractionResult) Sanitize() {
	projects := r.Projects[:0]
	for _, p := range r.Projects {
		p.ProjectName = strings.TrimSpace(p.ProjectName)
		if p.ProjectName == "" {
			continue
		}
		projects = append(projects, p)
	}
	r.Projects = projects

	tasks := r.Tasks[:0]
	for _, t := range r.Tasks {
		t.TaskTitle = strings.TrimSpace(t.TaskTitle)
		if t.TaskTitle == "" {
			continue
		}
		t.Status = string(NormalizeTaskStatus(t.Status))
		t.Priority = string(NormalizePriority(t.Priority))
		if strings.TrimSpace(t.Owner) == "" {
			t.Owner = "Unassigned"
		}
		tasks = append(tasks, t)
	}
	r.Tasks = tasks

	risks := r.Risks[:0]
	for _, k := range r.Risks {
		k.RiskDescription = strings.TrimSpace(k.RiskDescription)
		if k.RiskDescription == "" {
			continue
		}
		k.RiskLevel = string(NormalizeRiskLevel(k.RiskLevel))
		if strings.TrimSpace(k.Owner) == "" {
			k.Owner = "Unassigned"
		}
		risks = append(risks, k)
	}
	r.Risks = risks

	decisions := r.Decisions[:0]
	for _, d := range r.Decisions {
		d.DecisionContent = strings.TrimSpace(d.DecisionContent)
		if d.DecisionContent == "" {
			continue
		}
		decisions = append(decisions, d)
	}
	r.Decisions = decisions
}

// IsEmpty reports whether the extraction produced nothing at all
func (r *ExtractionResult) IsEmpty() bool {
	return len(r.Projects) == 0 && len(r.Tasks) == 0 && len(r.Risks) == 0 && len(r.Decisions) == 0
}
