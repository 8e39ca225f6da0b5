package alert

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/neodose/neodose/internal/domain/guideline"
	"github.com/neodose/neodose/internal/domain/patient"
)

// ManualEntry is one clinician-entered order handed off for dosing
// evaluation after its write has committed.
type ManualEntry struct {
	PatientID     uuid.UUID
	DrugName      string
	Dose          string
	Frequency     string
	CriticallyIll bool
}

// ManualEvaluator runs the dosing check for a single entered order and,
// on violation, alerts the patient's department. Fire and forget: every
// failure is logged and swallowed, and no patient or order state is
// mutated here. The entry form already carries the alert flag.
type ManualEvaluator struct {
	patients   patient.PatientRepository
	logs       patient.DailyLogRepository
	resolver   *guideline.Resolver
	dispatcher *Dispatcher
	log        zerolog.Logger
}

func NewManualEvaluator(
	patients patient.PatientRepository,
	logs patient.DailyLogRepository,
	resolver *guideline.Resolver,
	dispatcher *Dispatcher,
	logger zerolog.Logger,
) *ManualEvaluator {
	return &ManualEvaluator{
		patients:   patients,
		logs:       logs,
		resolver:   resolver,
		dispatcher: dispatcher,
		log:        logger,
	}
}

func (e *ManualEvaluator) Evaluate(ctx context.Context, entry ManualEntry) {
	p, err := e.patients.GetByID(ctx, entry.PatientID)
	if err != nil {
		e.log.Warn().Err(err).Stringer("patient_id", entry.PatientID).
			Msg("manual dosing evaluation: patient not found")
		return
	}
	logs, err := e.logs.ListByPatient(ctx, p.ID)
	if err != nil {
		e.log.Warn().Err(err).Str("patient", p.Code).
			Msg("manual dosing evaluation: logs unavailable")
		return
	}

	severity := guideline.SeverityRoutine
	if entry.CriticallyIll {
		severity = guideline.SeverityCritical
	}
	var pnaDays int
	var weight float64
	if current := patient.CurrentLog(logs); current != nil {
		pnaDays = current.PostnatalAgeDays
		weight = current.WeightKg
	}

	rec := e.resolver.Recommend(ctx, entry.DrugName, p.GestationalAgeWeeks, p.DateOfBirth, pnaDays, severity)
	res := guideline.CheckCompliance(entry.Dose, entry.Frequency, rec, weight)
	if res.Compliant {
		return
	}

	data := manualData{
		Department:  p.Department,
		PatientName: p.FullName,
		PatientCode: p.Code,
		DrugName:    entry.DrugName,
		Dose:        entry.Dose,
		Frequency:   entry.Frequency,
		Reason:      res.Reason,
	}
	if rec != nil {
		data.RecommendedDose = rec.DoseText
		data.RecommendedFrequency = rec.FreqText
	}

	sent, err := e.dispatcher.DispatchToDepartment(ctx, p.Department,
		"Antibiotic dosing alert: "+p.FullName+" ("+p.Code+")",
		renderManualText(data),
		renderManualHTML(data),
	)
	if err != nil {
		e.log.Error().Err(err).Str("patient", p.Code).
			Msg("manual dosing alert dispatch failed")
		return
	}
	e.log.Info().Str("patient", p.Code).Str("drug", entry.DrugName).
		Int("emails", sent).Msg("manual dosing alert dispatched")
}
