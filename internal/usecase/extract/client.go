package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kumemura-df/struct-project/internal/domain/entities"
	"github.com/kumemura-df/struct-project/pkg/ai"
	"github.com/kumemura-df/struct-project/pkg/config"
)

// ModelClient is the opaque AI capability: given a prompt, return the raw
// model text or fail.
type ModelClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Client wraps the extraction call with retry, output sanitization, and a
// per-call timeout. The model is not contract-guaranteed to respect the
// schema, so every response passes through sanitization before use.
type Client struct {
	model  ModelClient
	cfg    config.ExtractConfig
	logger *zap.Logger
}

// NewClient creates an extraction client
func NewClient(model ModelClient, cfg config.ExtractConfig, logger *zap.Logger) *Client {
	return &Client{
		model:  model,
		cfg:    cfg,
		logger: logger,
	}
}

// Extract converts flattened transcript text into typed entities.
// Retryable failures (resource exhausted, unavailable, deadline exceeded,
// malformed JSON from the model) are retried with exponential backoff up to
// MaxRetries+1 total attempts; anything else propagates immediately.
func (c *Client) Extract(ctx context.Context, text string, referenceDate time.Time) (*entities.ExtractionResult, error) {
	prompt := buildPrompt(text, referenceDate)

	var result *entities.ExtractionResult
	attempt := 0

	operation := func() error {
		attempt++

		callCtx := ctx
		var cancel context.CancelFunc
		if c.cfg.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
			defer cancel()
		}

		raw, err := c.model.GenerateContent(callCtx, prompt)
		if err != nil {
			if !ai.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			if c.logger != nil {
				c.logger.Warn("⚠️ Extraction call failed, will retry",
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
			}
			return err
		}

		var parsed entities.ExtractionResult
		if err := json.Unmarshal([]byte(stripCodeFences(raw)), &parsed); err != nil {
			// Model returned malformed JSON, treated as transient
			if c.logger != nil {
				c.logger.Warn("⚠️ Extraction response is not valid JSON, will retry",
					zap.Int("attempt", attempt),
					zap.Error(err),
				)
			}
			return fmt.Errorf("failed to decode extraction response: %w", err)
		}

		parsed.Sanitize()
		result = &parsed
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialBackoff
	bo.MaxInterval = c.cfg.MaxBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.cfg.MaxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if c.logger != nil {
			c.logger.Error("❌ Extraction failed after retries",
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
		}
		return nil, err
	}

	if c.logger != nil {
		c.logger.Info("✅ Extraction completed",
			zap.Int("attempts", attempt),
			zap.Int("projects", len(result.Projects)),
			zap.Int("tasks", len(result.Tasks)),
			zap.Int("risks", len(result.Risks)),
			zap.Int("decisions", len(result.Decisions)),
		)
	}
	return result, nil
}

// stripCodeFences removes a surrounding markdown code fence when the model
// wraps its JSON despite the JSON output mode.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return s
}

func buildPrompt(text string, referenceDate time.Time) string {
	date := referenceDate.Format("2006-01-02")
	return fmt.Sprintf(`You are a project management assistant. Convert the meeting notes below into a structured JSON document.

Meeting date: %s

Output a single JSON object with exactly these array fields:

"projects": project or initiative names discussed.
- project_name: the name as mentioned

"tasks": every action item, explicit or implied.
- project_name: related project ("" if none)
- task_title: short title starting with a verb
- task_description: details
- owner: assignee ("Unassigned" if unknown)
- due_date_text: deadline as stated, e.g. "2025-12-15" or "next Friday" ("" if none)
- status: NOT_STARTED, IN_PROGRESS, DONE, or UNKNOWN
- priority: LOW, MEDIUM, or HIGH
- source_sentence: the verbatim sentence this was extracted from

"risks": explicit and implicit risks or concerns.
- project_name: related project ("" if none)
- risk_description: what could go wrong
- risk_level: LOW, MEDIUM, or HIGH
- owner: risk owner ("Unassigned" if unknown)
- source_sentence: the verbatim sentence

"decisions": things agreed or concluded.
- project_name: related project ("" if none)
- decision_content: what was decided
- source_sentence: the verbatim sentence

Rules:
1. Extract tasks aggressively; anything someone must do is a task.
2. Merge duplicates.
3. Always fill source_sentence with the original wording.
4. Output only the JSON object, no commentary.

Meeting notes:
---
%s
---`, date, text)
}
