// Package guideline implements the neonatal antibiotic dosing rule engine:
// a TTL-cached rule table, a recommendation resolver and a compliance
// checker over free-text prescription fields.
package guideline

import (
	"strconv"
	"strings"
)

// Severity classifies a guideline row by illness severity.
type Severity string

const (
	SeverityRoutine  Severity = "routine"
	SeverityCritical Severity = "critically_ill"
)

// Rule is one guideline table row: a drug plus gestational/postnatal age
// windows mapped to a per-kg dose range and a dosing interval range.
// Immutable once parsed; identity is the source row order.
type Rule struct {
	ID         string
	Antibiotic string
	Severity   Severity
	GAMinWeeks float64
	GAMaxWeeks float64
	PNAMinDays int
	PNAMaxDays int
	DoseMin    float64 // mg/kg/dose
	DoseMax    float64
	FreqMin    int // hours between doses
	FreqMax    int
}

// ParseRows converts raw tabular guideline rows into typed rules. Columns
// map positionally: id, antibiotic, critically_ill, ga_min, ga_max,
// pna_min, pna_max, dose_min, dose_max, frequency_min, frequency_max.
// Rows with an empty antibiotic name are discarded. Numeric fields are
// parsed once here; downstream code never re-parses them.
func ParseRows(rows [][]string) []Rule {
	rules := make([]Rule, 0, len(rows))
	for _, row := range rows {
		if len(row) < 11 {
			continue
		}
		name := strings.TrimSpace(row[1])
		if name == "" {
			continue
		}
		severity := SeverityRoutine
		if strings.EqualFold(strings.TrimSpace(row[2]), "TRUE") {
			severity = SeverityCritical
		}
		rules = append(rules, Rule{
			ID:         strings.TrimSpace(row[0]),
			Antibiotic: name,
			Severity:   severity,
			GAMinWeeks: parseFloat(row[3]),
			GAMaxWeeks: parseFloat(row[4]),
			PNAMinDays: parseInt(row[5]),
			PNAMaxDays: parseInt(row[6]),
			DoseMin:    parseFloat(row[7]),
			DoseMax:    parseFloat(row[8]),
			FreqMin:    parseInt(row[9]),
			FreqMax:    parseInt(row[10]),
		})
	}
	return rules
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseInt(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return int(parseFloat(s))
	}
	return v
}

// Recommendation is a resolved dose/frequency range for one order. The
// numeric ranges come straight from the matched rule; the display strings
// are what clinicians see in alert messages ("25-50 mg/kg/dose", "12").
type Recommendation struct {
	Rule     Rule
	DoseText string
	FreqText string
}

func newRecommendation(r Rule) *Recommendation {
	return &Recommendation{
		Rule:     r,
		DoseText: formatRange(r.DoseMin, r.DoseMax) + " mg/kg/dose",
		FreqText: formatRange(float64(r.FreqMin), float64(r.FreqMax)),
	}
}

func formatRange(min, max float64) string {
	if min == max {
		return formatNum(min)
	}
	return formatNum(min) + "-" + formatNum(max)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ComplianceResult is the verdict for one prescribed dose/frequency pair.
type ComplianceResult struct {
	Compliant bool   `json:"is_compliant"`
	Reason    string `json:"reason,omitempty"`
}
