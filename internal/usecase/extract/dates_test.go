package extract

import (
	"testing"
	"time"
)

func TestResolve_ExplicitLayouts(t *testing.T) {
	resolver := NewDateResolver()
	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		in   string
		want string
	}{
		{"2025-12-15", "2025-12-15"},
		{"2025/12/15", "2025-12-15"},
		{"2025.12.15", "2025-12-15"},
		{"2025-12-15T10:00:00Z", "2025-12-15"},
	}
	for _, tc := range cases {
		got := resolver.Resolve(tc.in, base)
		if got == nil {
			t.Errorf("%s: expected a date, got nil", tc.in)
			continue
		}
		if got.Format("2006-01-02") != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.in, tc.want, got.Format("2006-01-02"))
		}
	}
}

func TestResolve_RelativePhrases(t *testing.T) {
	resolver := NewDateResolver()
	// A Monday
	base := time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)

	got := resolver.Resolve("tomorrow", base)
	if got == nil {
		t.Fatal("expected tomorrow to resolve")
	}
	if got.Format("2006-01-02") != "2025-12-02" {
		t.Errorf("expected 2025-12-02, got %s", got.Format("2006-01-02"))
	}

	got = resolver.Resolve("next friday", base)
	if got == nil {
		t.Fatal("expected next friday to resolve")
	}
	if got.Weekday() != time.Friday {
		t.Errorf("expected a Friday, got %s", got.Weekday())
	}
	if !got.After(base) {
		t.Errorf("resolved date %s is not after the anchor", got.Format("2006-01-02"))
	}
}

func TestResolve_UnresolvableYieldsNil(t *testing.T) {
	resolver := NewDateResolver()
	base := time.Now()

	for _, in := range []string{"", "   ", "when the vendor confirms"} {
		if got := resolver.Resolve(in, base); got != nil {
			t.Errorf("%q: expected nil, got %s", in, got.Format("2006-01-02"))
		}
	}
}

func TestResolve_TruncatesToMidnight(t *testing.T) {
	resolver := NewDateResolver()
	base := time.Date(2025, 12, 1, 17, 45, 0, 0, time.UTC)

	got := resolver.Resolve("tomorrow", base)
	if got == nil {
		t.Fatal("expected tomorrow to resolve")
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("expected midnight, got %s", got.Format(time.RFC3339))
	}
}
