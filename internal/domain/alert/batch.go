package alert

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/neodose/neodose/internal/domain/guideline"
	"github.com/neodose/neodose/internal/domain/patient"
)

// ErrAlreadyRunning is returned when a reconciliation run is refused
// because another run holds the batch lock.
var ErrAlreadyRunning = errors.New("reconciliation batch already running")

// Locker serializes batch runs across processes. Implemented by the
// Postgres advisory lock in internal/platform/db.
type Locker interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Summary is the accounting contract of one reconciliation run. Callers
// must treat EmailsSent as a lower bound: per-recipient failures lower it
// without failing the run.
type Summary struct {
	ProcessedPatients    int `json:"processed_patients"`
	AutoAddedAntibiotics int `json:"auto_added_antibiotics"`
	AlertsGenerated      int `json:"alerts_generated"`
	EmailsSent           int `json:"emails_sent"`
}

// Batch re-evaluates every patient's active antibiotic therapy once per
// day: each still-active order is checked against the current weight and
// carried forward as a fresh row dated today, and violations are routed
// to the patient's department.
//
// Persistence errors fail the whole run. State written before the failure
// stays written; a rerun on the same day is safe because rows already
// dated today are never carried forward again.
type Batch struct {
	patients   patient.PatientRepository
	logs       patient.DailyLogRepository
	orders     patient.OrderRepository
	resolver   *guideline.Resolver
	dispatcher *Dispatcher
	lock       Locker
	now        func() time.Time
	log        zerolog.Logger
}

func NewBatch(
	patients patient.PatientRepository,
	logs patient.DailyLogRepository,
	orders patient.OrderRepository,
	resolver *guideline.Resolver,
	dispatcher *Dispatcher,
	lock Locker,
	logger zerolog.Logger,
) *Batch {
	return &Batch{
		patients:   patients,
		logs:       logs,
		orders:     orders,
		resolver:   resolver,
		dispatcher: dispatcher,
		lock:       lock,
		now:        time.Now,
		log:        logger,
	}
}

func (b *Batch) Run(ctx context.Context) (*Summary, error) {
	if b.lock != nil {
		ok, err := b.lock.TryAcquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire batch lock: %w", err)
		}
		if !ok {
			return nil, ErrAlreadyRunning
		}
		defer func() {
			if err := b.lock.Release(context.Background()); err != nil {
				b.log.Error().Err(err).Msg("release batch lock failed")
			}
		}()
	}

	today := b.now()
	summary := &Summary{}
	deptMessages := make(map[string][]string)

	patients, err := b.patients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}

	for _, p := range patients {
		warning, err := b.reconcilePatient(ctx, p, today, summary, deptMessages)
		if err != nil {
			return nil, fmt.Errorf("patient %s: %w", p.Code, err)
		}
		summary.ProcessedPatients++

		status := patient.AlertNormal
		if warning {
			status = patient.AlertWarning
		}
		if p.AlertStatus != status {
			p.AlertStatus = status
			if err := b.patients.Update(ctx, p); err != nil {
				return nil, fmt.Errorf("update patient %s: %w", p.Code, err)
			}
		}
	}

	// One combined message per department per run, not one per alert.
	depts := make([]string, 0, len(deptMessages))
	for d := range deptMessages {
		depts = append(depts, d)
	}
	sort.Strings(depts)
	for _, dept := range depts {
		msgs := deptMessages[dept]
		sent, err := b.dispatcher.DispatchToDepartment(ctx, dept,
			"Antibiotic dosing alerts - "+dept,
			renderDigestText(dept, msgs),
			renderDigestHTML(dept, msgs),
		)
		if err != nil {
			return nil, fmt.Errorf("dispatch to %s: %w", dept, err)
		}
		summary.EmailsSent += sent
	}

	b.log.Info().
		Int("patients", summary.ProcessedPatients).
		Int("carried_forward", summary.AutoAddedAntibiotics).
		Int("alerts", summary.AlertsGenerated).
		Int("emails", summary.EmailsSent).
		Msg("reconciliation run complete")
	return summary, nil
}

// reconcilePatient carries forward and re-evaluates one patient's latest
// active orders. Returns whether any violation was found this run.
func (b *Batch) reconcilePatient(ctx context.Context, p *patient.Patient, today time.Time, summary *Summary, deptMessages map[string][]string) (bool, error) {
	orders, err := b.orders.ListByPatient(ctx, p.ID)
	if err != nil {
		return false, fmt.Errorf("list orders: %w", err)
	}
	logs, err := b.logs.ListByPatient(ctx, p.ID)
	if err != nil {
		return false, fmt.Errorf("list logs: %w", err)
	}
	current := patient.CurrentLog(logs)

	latest := patient.LatestActiveByDrug(orders, today)
	existsToday := patient.DrugsDatedToday(orders, today)

	keys := make([]string, 0, len(latest))
	for k := range latest {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	warning := false
	for _, key := range keys {
		if existsToday[key] {
			continue
		}
		o := latest[key]

		severity := guideline.SeverityRoutine
		if o.CriticallyIll {
			severity = guideline.SeverityCritical
		}
		var pnaDays int
		var weight float64
		if current != nil {
			pnaDays = current.PostnatalAgeDays
			weight = current.WeightKg
		}

		rec := b.resolver.Recommend(ctx, o.DrugName, p.GestationalAgeWeeks, p.DateOfBirth, pnaDays, severity)
		res := guideline.CheckCompliance(o.Dose, o.Frequency, rec, weight)
		if !res.Compliant {
			warning = true
			summary.AlertsGenerated++
			deptMessages[p.Department] = append(deptMessages[p.Department],
				fmt.Sprintf("%s (%s): %s %s every %s hours: %s",
					p.FullName, p.Code, o.DrugName, o.Dose, o.Frequency, res.Reason))
		}

		carried := &patient.AntibioticOrder{
			PatientID:     p.ID,
			DrugName:      o.DrugName,
			StartDate:     today,
			Dose:          o.Dose,
			Frequency:     o.Frequency,
			Status:        o.Status,
			CriticallyIll: o.CriticallyIll,
			HasAlert:      !res.Compliant,
		}
		if err := b.orders.Create(ctx, carried); err != nil {
			return false, fmt.Errorf("carry forward %s: %w", o.DrugName, err)
		}
		summary.AutoAddedAntibiotics++
	}
	return warning, nil
}
