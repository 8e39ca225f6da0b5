package guideline

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestResolver(t *testing.T, rows [][]string) *Resolver {
	t.Helper()
	c := NewCache(func(ctx context.Context) ([][]string, error) {
		return rows, nil
	}, time.Minute, zerolog.Nop())
	return NewResolver(c)
}

func TestRecommendExactSeverityMatch(t *testing.T) {
	r := newTestResolver(t, testRows())

	rec := r.Recommend(context.Background(), "Ampicillin", 30, time.Time{}, 5, SeverityRoutine)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}
	if rec.Rule.ID != "1" {
		t.Fatalf("expected routine rule 1, got %s", rec.Rule.ID)
	}
	if rec.DoseText != "25-50 mg/kg/dose" {
		t.Fatalf("unexpected dose text %q", rec.DoseText)
	}
	if rec.FreqText != "12" {
		t.Fatalf("unexpected frequency text %q", rec.FreqText)
	}

	rec = r.Recommend(context.Background(), "Ampicillin", 30, time.Time{}, 5, SeverityCritical)
	if rec == nil || rec.Rule.ID != "2" {
		t.Fatalf("expected critically-ill rule 2, got %+v", rec)
	}
}

func TestRecommendDrugNameCaseInsensitive(t *testing.T) {
	r := newTestResolver(t, testRows())

	rec := r.Recommend(context.Background(), "ampicillin", 30, time.Time{}, 5, SeverityRoutine)
	if rec == nil || rec.Rule.ID != "1" {
		t.Fatalf("expected case-insensitive match, got %+v", rec)
	}
}

func TestRecommendWindowBoundariesInclusive(t *testing.T) {
	r := newTestResolver(t, testRows())

	cases := []struct {
		name    string
		ga      float64
		pna     int
		matches bool
	}{
		{"ga lower edge", 28, 5, true},
		{"ga upper edge", 34, 5, true},
		{"ga below", 27.9, 5, false},
		{"ga above", 34.1, 5, false},
		{"pna lower edge", 30, 0, true},
		{"pna upper edge", 30, 7, true},
		{"pna above", 30, 8, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := r.Recommend(context.Background(), "Ampicillin", tc.ga, time.Time{}, tc.pna, SeverityRoutine)
			if (rec != nil) != tc.matches {
				t.Fatalf("ga=%v pna=%d: match=%v, want %v", tc.ga, tc.pna, rec != nil, tc.matches)
			}
		})
	}
}

func TestRecommendCriticalFallsBackToRoutine(t *testing.T) {
	rows := [][]string{
		{"1", "Gentamicin", "FALSE", "30", "36", "0", "28", "4", "5", "24", "36"},
	}
	r := newTestResolver(t, rows)

	rec := r.Recommend(context.Background(), "Gentamicin", 32, time.Time{}, 10, SeverityCritical)
	if rec == nil || rec.Rule.ID != "1" {
		t.Fatalf("expected fallback to routine rule, got %+v", rec)
	}
}

func TestRecommendRoutineNeverFallsBackUpward(t *testing.T) {
	rows := [][]string{
		{"1", "Vancomycin", "TRUE", "28", "40", "0", "28", "10", "15", "8", "12"},
	}
	r := newTestResolver(t, rows)

	if rec := r.Recommend(context.Background(), "Vancomycin", 32, time.Time{}, 10, SeverityRoutine); rec != nil {
		t.Fatalf("expected no recommendation, got rule %s", rec.Rule.ID)
	}
}

func TestRecommendTieBreaksOnLoadOrder(t *testing.T) {
	rows := [][]string{
		{"1", "Cefotaxime", "FALSE", "28", "36", "0", "14", "50", "50", "12", "12"},
		{"2", "Cefotaxime", "FALSE", "28", "36", "0", "14", "50", "50", "8", "8"},
	}
	r := newTestResolver(t, rows)

	rec := r.Recommend(context.Background(), "Cefotaxime", 30, time.Time{}, 5, SeverityRoutine)
	if rec == nil || rec.Rule.ID != "1" {
		t.Fatalf("expected first row to win, got %+v", rec)
	}
}

func TestRecommendDerivesPNAFromDateOfBirth(t *testing.T) {
	r := newTestResolver(t, testRows())
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	// Born 5.5 days ago: postnatal age rounds up to 6 days, inside [0,7].
	dob := now.Add(-132 * time.Hour)
	rec := r.Recommend(context.Background(), "Ampicillin", 30, dob, 0, SeverityRoutine)
	if rec == nil {
		t.Fatal("expected a recommendation")
	}

	// Born 9 days ago: outside the window.
	dob = now.AddDate(0, 0, -9)
	if rec := r.Recommend(context.Background(), "Ampicillin", 30, dob, 0, SeverityRoutine); rec != nil {
		t.Fatalf("expected no recommendation for 9-day-old, got rule %s", rec.Rule.ID)
	}
}

func TestRecommendUnknownDrug(t *testing.T) {
	r := newTestResolver(t, testRows())

	if rec := r.Recommend(context.Background(), "Meropenem", 30, time.Time{}, 5, SeverityRoutine); rec != nil {
		t.Fatalf("expected no recommendation, got rule %s", rec.Rule.ID)
	}
}
