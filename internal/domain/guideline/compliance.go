package guideline

import (
	"fmt"
	"regexp"
	"strconv"
)

// doseTolerance is the fraction by which an actual dose may stray outside
// the weight-scaled guideline range before it is flagged.
const doseTolerance = 0.10

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// firstNumber extracts the first numeric token from free text ("120 mg"
// -> 120). Dose and frequency fields arrive as clinician-entered text.
func firstNumber(s string) (float64, bool) {
	tok := numberPattern.FindString(s)
	if tok == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// CheckCompliance compares a prescribed dose/frequency against a resolved
// recommendation for a patient weighing weightKg.
//
// Missing data never produces a violation: absent weight, an unusable
// recommendation, or an unparsable actual value all yield a compliant
// verdict. The system prefers under-alerting to flooding clinicians with
// alerts based on incomplete records.
//
// The dose is checked first against a ±10% band around the weight-scaled
// range; only when the dose passes is the frequency checked, strictly,
// against the recommended interval window. The two violation reasons are
// never combined.
func CheckCompliance(doseText, freqText string, rec *Recommendation, weightKg float64) ComplianceResult {
	if rec == nil || weightKg <= 0 {
		return ComplianceResult{Compliant: true}
	}
	if rec.Rule.DoseMax <= 0 || rec.Rule.FreqMax <= 0 {
		return ComplianceResult{Compliant: true}
	}

	actualDose, ok := firstNumber(doseText)
	if !ok {
		return ComplianceResult{Compliant: true}
	}

	targetMin := rec.Rule.DoseMin * weightKg
	targetMax := rec.Rule.DoseMax * weightKg
	lowerBound := targetMin * (1 - doseTolerance)
	upperBound := targetMax * (1 + doseTolerance)

	if actualDose < lowerBound || actualDose > upperBound {
		return ComplianceResult{
			Compliant: false,
			Reason: fmt.Sprintf("dose outside ±10%% tolerance: tolerated %.1f - %.1f mg (%s x %skg)",
				lowerBound, upperBound, rec.DoseText, formatNum(weightKg)),
		}
	}

	actualFreq, ok := firstNumber(freqText)
	if !ok || actualFreq == 0 {
		// Unparsable interval is missing data, not a violation.
		return ComplianceResult{Compliant: true}
	}

	freqMin, freqMax := rec.Rule.FreqMin, rec.Rule.FreqMax
	if freqMin > freqMax {
		freqMin, freqMax = freqMax, freqMin
	}
	if int(actualFreq) < freqMin || int(actualFreq) > freqMax {
		return ComplianceResult{
			Compliant: false,
			Reason:    fmt.Sprintf("frequency outside recommendation: every %s hours", rec.FreqText),
		}
	}

	return ComplianceResult{Compliant: true}
}
