package extract

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateResolver resolves natural-language due-date phrases to absolute dates
// using the meeting date as the relative anchor. Resolution failure yields
// no date, never an error.
type DateResolver struct {
	parser *when.Parser
}

// NewDateResolver creates a resolver with English rules
func NewDateResolver() *DateResolver {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &DateResolver{parser: w}
}

var explicitLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
}

// Resolve turns a due-date phrase into an absolute date. Explicit layouts
// are tried first, then the natural-language parser anchored at base.
func (d *DateResolver) Resolve(text string, base time.Time) *time.Time {
	phrase := strings.TrimSpace(text)
	if phrase == "" {
		return nil
	}

	// RFC3339 and similar: the date is the first ten characters
	candidate := phrase
	if len(candidate) > 10 {
		candidate = candidate[:10]
	}
	for _, layout := range explicitLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return &t
		}
	}

	result, err := d.parser.Parse(phrase, base)
	if err != nil || result == nil {
		return nil
	}
	day := time.Date(result.Time.Year(), result.Time.Month(), result.Time.Day(), 0, 0, 0, 0, result.Time.Location())
	return &day
}
