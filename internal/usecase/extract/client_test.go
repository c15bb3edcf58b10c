package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kumemura-df/struct-project/pkg/ai"
	"github.com/kumemura-df/struct-project/pkg/config"
)

type fakeModel struct {
	responses []string
	errs      []error
	calls     int
	stamps    []time.Time
}

func (f *fakeModel) GenerateContent(ctx context.Context, prompt string) (string, error) {
	idx := f.calls
	f.calls++
	f.stamps = append(f.stamps, time.Now())
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", errors.New("fake model exhausted")
}

func testConfig(maxRetries int) config.ExtractConfig {
	return config.ExtractConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Timeout:        time.Second,
	}
}

const validResponse = `{
	"projects": [{"project_name": "Apollo"}],
	"tasks": [{"project_name": "Apollo", "task_title": "Ship the release", "owner": "Alice", "status": "IN_PROGRESS", "priority": "HIGH", "source_sentence": "Alice will ship the release."}],
	"risks": [],
	"decisions": [{"decision_content": "Release ships Friday", "source_sentence": "We agreed to ship Friday."}]
}`

func TestExtract_Success(t *testing.T) {
	model := &fakeModel{responses: []string{validResponse}}
	client := NewClient(model, testConfig(3), nil)

	result, err := client.Extract(context.Background(), "notes", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.calls != 1 {
		t.Errorf("expected 1 call, got %d", model.calls)
	}
	if len(result.Projects) != 1 || result.Projects[0].ProjectName != "Apollo" {
		t.Errorf("unexpected projects %+v", result.Projects)
	}
	if len(result.Tasks) != 1 || result.Tasks[0].TaskTitle != "Ship the release" {
		t.Errorf("unexpected tasks %+v", result.Tasks)
	}
}

func TestExtract_RetriesTransientThenSucceeds(t *testing.T) {
	model := &fakeModel{
		errs:      []error{ai.ErrResourceExhausted, ai.ErrUnavailable, nil},
		responses: []string{"", "", validResponse},
	}
	client := NewClient(model, testConfig(3), nil)

	result, err := client.Extract(context.Background(), "notes", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.calls != 3 {
		t.Errorf("expected 3 calls, got %d", model.calls)
	}
	if result == nil {
		t.Fatal("expected a result")
	}
}

func TestExtract_RetryBudgetIsMaxRetriesPlusOne(t *testing.T) {
	model := &fakeModel{
		errs: []error{ai.ErrUnavailable, ai.ErrUnavailable, ai.ErrUnavailable, ai.ErrUnavailable, ai.ErrUnavailable},
	}
	client := NewClient(model, testConfig(2), nil)

	_, err := client.Extract(context.Background(), "notes", time.Now())
	if err == nil {
		t.Fatal("expected an error")
	}
	// 1 initial attempt + 2 retries
	if model.calls != 3 {
		t.Errorf("expected 3 calls, got %d", model.calls)
	}
}

func TestExtract_BackoffIntervalsDoubleAndCap(t *testing.T) {
	model := &fakeModel{
		errs: []error{ai.ErrUnavailable, ai.ErrUnavailable, ai.ErrUnavailable, ai.ErrUnavailable},
	}
	cfg := config.ExtractConfig{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     40 * time.Millisecond,
		Timeout:        time.Second,
	}
	client := NewClient(model, cfg, nil)

	_, err := client.Extract(context.Background(), "notes", time.Now())
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(model.stamps) != 4 {
		t.Fatalf("expected 4 attempts, got %d", len(model.stamps))
	}

	// Expected waits between attempts: 10ms, 20ms, then capped at 40ms.
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	const slack = 250 * time.Millisecond
	var gaps []time.Duration
	for i := 1; i < len(model.stamps); i++ {
		gaps = append(gaps, model.stamps[i].Sub(model.stamps[i-1]))
	}
	for i, gap := range gaps {
		if gap < want[i] {
			t.Errorf("gap %d = %v, want at least %v", i, gap, want[i])
		}
		if gap > want[i]+slack {
			t.Errorf("gap %d = %v, exceeds %v plus scheduling slack", i, gap, want[i])
		}
	}
	for i := 1; i < len(gaps); i++ {
		if gaps[i]+5*time.Millisecond < gaps[i-1] {
			t.Errorf("gap %d (%v) shrank below gap %d (%v)", i, gaps[i], i-1, gaps[i-1])
		}
	}
}

func TestExtract_NonRetryableFailsImmediately(t *testing.T) {
	model := &fakeModel{errs: []error{errors.New("invalid api key")}}
	client := NewClient(model, testConfig(3), nil)

	_, err := client.Extract(context.Background(), "notes", time.Now())
	if err == nil {
		t.Fatal("expected an error")
	}
	if model.calls != 1 {
		t.Errorf("expected 1 call, got %d", model.calls)
	}
}

func TestExtract_MalformedJSONIsRetried(t *testing.T) {
	model := &fakeModel{responses: []string{"this is not json", validResponse}}
	client := NewClient(model, testConfig(3), nil)

	result, err := client.Extract(context.Background(), "notes", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.calls != 2 {
		t.Errorf("expected 2 calls, got %d", model.calls)
	}
	if result == nil {
		t.Fatal("expected a result")
	}
}

func TestExtract_StripsCodeFences(t *testing.T) {
	model := &fakeModel{responses: []string{"```json\n" + validResponse + "\n```"}}
	client := NewClient(model, testConfig(0), nil)

	result, err := client.Extract(context.Background(), "notes", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Decisions) != 1 {
		t.Errorf("unexpected decisions %+v", result.Decisions)
	}
}

func TestExtract_SanitizesEnumsAndOwners(t *testing.T) {
	raw := `{
		"tasks": [{"task_title": "Review budget", "owner": "", "status": "WIP", "priority": "URGENT"}],
		"risks": [{"risk_description": "Vendor delay", "risk_level": "SEVERE", "owner": ""}]
	}`
	model := &fakeModel{responses: []string{raw}}
	client := NewClient(model, testConfig(0), nil)

	result, err := client.Extract(context.Background(), "notes", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	task := result.Tasks[0]
	if task.Owner != "Unassigned" {
		t.Errorf("expected Unassigned owner, got %q", task.Owner)
	}
	if task.Status != "UNKNOWN" {
		t.Errorf("expected UNKNOWN status, got %q", task.Status)
	}
	if task.Priority != "MEDIUM" {
		t.Errorf("expected MEDIUM priority, got %q", task.Priority)
	}
	if result.Risks[0].RiskLevel != "MEDIUM" {
		t.Errorf("expected MEDIUM risk level, got %q", result.Risks[0].RiskLevel)
	}
}

func TestBuildPrompt_CarriesDateAndText(t *testing.T) {
	base := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	prompt := buildPrompt("Alice: ship it", base)
	if !strings.Contains(prompt, "2025-12-01") {
		t.Error("prompt must carry the meeting date")
	}
	if !strings.Contains(prompt, "Alice: ship it") {
		t.Error("prompt must carry the transcript text")
	}
}
