package guideline

import (
	"context"
	"math"
	"strings"
	"time"
)

// Resolver selects the best-matching guideline rule for a drug and a
// patient context.
type Resolver struct {
	cache *Cache
	now   func() time.Time
}

func NewResolver(cache *Cache) *Resolver {
	return &Resolver{cache: cache, now: time.Now}
}

// Recommend returns the dose/frequency recommendation for drugName given
// the patient's gestational age, date of birth and postnatal age in days
// (0 means unknown; it is then derived from dateOfBirth). A nil result
// means no guideline row fits, which is an expected outcome, not an error.
//
// Matching: case-insensitive drug name, inclusive GA and PNA windows.
// A severity-exact row is preferred; a critically-ill query with no
// critically-ill row in range deliberately falls back to a routine row.
// Routine queries never fall back upward. Ties resolve to the first row
// in guideline load order.
func (r *Resolver) Recommend(ctx context.Context, drugName string, gaWeeks float64, dateOfBirth time.Time, pnaDays int, severity Severity) *Recommendation {
	if pnaDays <= 0 && !dateOfBirth.IsZero() {
		age := r.now().Sub(dateOfBirth)
		pnaDays = int(math.Ceil(age.Hours() / 24))
	}

	var matches []Rule
	for _, rule := range r.cache.Rules(ctx) {
		if !strings.EqualFold(rule.Antibiotic, drugName) {
			continue
		}
		if gaWeeks < rule.GAMinWeeks || gaWeeks > rule.GAMaxWeeks {
			continue
		}
		if pnaDays < rule.PNAMinDays || pnaDays > rule.PNAMaxDays {
			continue
		}
		matches = append(matches, rule)
	}

	for _, m := range matches {
		if m.Severity == severity {
			return newRecommendation(m)
		}
	}
	if severity == SeverityCritical {
		for _, m := range matches {
			if m.Severity == SeverityRoutine {
				return newRecommendation(m)
			}
		}
	}
	return nil
}
