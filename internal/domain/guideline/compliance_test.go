package guideline

import (
	"strings"
	"testing"
)

// ampicillinRec mirrors a routine Ampicillin row: 25-50 mg/kg/dose every
// 12 hours. At 1.2 kg the tolerated absolute band is 27.0 - 66.0 mg.
func ampicillinRec() *Recommendation {
	return newRecommendation(Rule{
		ID:         "1",
		Antibiotic: "Ampicillin",
		Severity:   SeverityRoutine,
		GAMinWeeks: 28,
		GAMaxWeeks: 34,
		PNAMaxDays: 7,
		DoseMin:    25,
		DoseMax:    50,
		FreqMin:    12,
		FreqMax:    12,
	})
}

func TestCheckComplianceDoseInRange(t *testing.T) {
	res := CheckCompliance("40 mg", "12 hours", ampicillinRec(), 1.2)
	if !res.Compliant {
		t.Fatalf("expected compliant, got reason %q", res.Reason)
	}
	if res.Reason != "" {
		t.Fatalf("expected empty reason, got %q", res.Reason)
	}
}

func TestCheckComplianceDoseTooLow(t *testing.T) {
	res := CheckCompliance("20 mg", "12 hours", ampicillinRec(), 1.2)
	if res.Compliant {
		t.Fatal("expected non-compliant dose")
	}
	if !strings.Contains(res.Reason, "27.0 - 66.0 mg") {
		t.Fatalf("expected tolerated range in reason, got %q", res.Reason)
	}
	if !strings.Contains(res.Reason, "25-50 mg/kg/dose") {
		t.Fatalf("expected per-kg basis in reason, got %q", res.Reason)
	}
}

func TestCheckComplianceDoseTooHigh(t *testing.T) {
	res := CheckCompliance("70 mg", "12 hours", ampicillinRec(), 1.2)
	if res.Compliant {
		t.Fatal("expected non-compliant dose")
	}
}

func TestCheckComplianceToleranceEdges(t *testing.T) {
	// 25*1.2*0.9 = 27, 50*1.2*1.1 = 66: both edges are compliant.
	if res := CheckCompliance("27", "12", ampicillinRec(), 1.2); !res.Compliant {
		t.Fatalf("expected lower edge compliant, got %q", res.Reason)
	}
	if res := CheckCompliance("66", "12", ampicillinRec(), 1.2); !res.Compliant {
		t.Fatalf("expected upper edge compliant, got %q", res.Reason)
	}
	if res := CheckCompliance("26.9", "12", ampicillinRec(), 1.2); res.Compliant {
		t.Fatal("expected just-below-edge non-compliant")
	}
	if res := CheckCompliance("66.1", "12", ampicillinRec(), 1.2); res.Compliant {
		t.Fatal("expected just-above-edge non-compliant")
	}
}

func TestCheckComplianceFrequencyOnlyAfterDosePasses(t *testing.T) {
	// Both dose and frequency are wrong: only the dose reason surfaces.
	res := CheckCompliance("20 mg", "6 hours", ampicillinRec(), 1.2)
	if res.Compliant {
		t.Fatal("expected non-compliant")
	}
	if strings.Contains(res.Reason, "frequency") {
		t.Fatalf("expected dose reason alone, got %q", res.Reason)
	}
}

func TestCheckComplianceFrequencyViolation(t *testing.T) {
	res := CheckCompliance("40 mg", "6 hours", ampicillinRec(), 1.2)
	if res.Compliant {
		t.Fatal("expected non-compliant frequency")
	}
	if !strings.Contains(res.Reason, "every 12 hours") {
		t.Fatalf("expected recommended interval in reason, got %q", res.Reason)
	}
}

func TestCheckComplianceFrequencyRangeInclusive(t *testing.T) {
	rec := newRecommendation(Rule{
		Antibiotic: "Gentamicin",
		DoseMin:    4,
		DoseMax:    5,
		FreqMin:    24,
		FreqMax:    36,
	})
	for _, freq := range []string{"24", "30", "36"} {
		if res := CheckCompliance("9 mg", freq, rec, 2); !res.Compliant {
			t.Fatalf("freq %s: expected compliant, got %q", freq, res.Reason)
		}
	}
	if res := CheckCompliance("9 mg", "12", rec, 2); res.Compliant {
		t.Fatal("expected frequency 12 non-compliant")
	}
}

func TestCheckComplianceMissingDataIsCompliant(t *testing.T) {
	rec := ampicillinRec()

	cases := []struct {
		name   string
		dose   string
		freq   string
		rec    *Recommendation
		weight float64
	}{
		{"no weight", "40 mg", "12", rec, 0},
		{"nil recommendation", "40 mg", "12", nil, 1.2},
		{"unparsable dose", "per pharmacy", "12", rec, 1.2},
		{"unparsable frequency", "40 mg", "as directed", rec, 1.2},
		{"zero frequency", "40 mg", "0", rec, 1.2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := CheckCompliance(tc.dose, tc.freq, tc.rec, tc.weight)
			if !res.Compliant {
				t.Fatalf("expected compliant, got %q", res.Reason)
			}
		})
	}
}

func TestCheckComplianceUnsetRuleRanges(t *testing.T) {
	rec := newRecommendation(Rule{Antibiotic: "Ampicillin"})
	if res := CheckCompliance("40 mg", "12", rec, 1.2); !res.Compliant {
		t.Fatalf("expected compliant for unset ranges, got %q", res.Reason)
	}
}
