package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	patients PatientRepository
	logs     DailyLogRepository
	orders   OrderRepository
}

func NewService(patients PatientRepository, logs DailyLogRepository, orders OrderRepository) *Service {
	return &Service{patients: patients, logs: logs, orders: orders}
}

// -- Patient --

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.patients.List(ctx)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByCode(ctx context.Context, code string) (*Patient, error) {
	return s.patients.GetByCode(ctx, code)
}

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Code == "" {
		return fmt.Errorf("patient code is required")
	}
	if p.FullName == "" {
		return fmt.Errorf("patient full name is required")
	}
	if existing, err := s.patients.GetByCode(ctx, p.Code); err == nil && existing != nil {
		return fmt.Errorf("patient code %s already exists", p.Code)
	}
	p.AlertStatus = AlertNormal
	return s.patients.Create(ctx, p)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.FullName == "" {
		return fmt.Errorf("patient full name is required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

// -- DailyLog --

func (s *Service) ListLogs(ctx context.Context, patientID uuid.UUID) ([]*DailyLog, error) {
	return s.logs.ListByPatient(ctx, patientID)
}

func (s *Service) CreateLog(ctx context.Context, l *DailyLog) error {
	if l.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if l.Date.IsZero() {
		l.Date = time.Now()
	}
	return s.logs.Create(ctx, l)
}

// -- AntibioticOrder --

func (s *Service) ListOrders(ctx context.Context, patientID uuid.UUID) ([]*AntibioticOrder, error) {
	return s.orders.ListByPatient(ctx, patientID)
}

func (s *Service) CreateOrder(ctx context.Context, o *AntibioticOrder) error {
	if o.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if o.DrugName == "" {
		return fmt.Errorf("drug_name is required")
	}
	if o.StartDate.IsZero() {
		o.StartDate = time.Now()
	}
	if o.Status == "" {
		o.Status = OrderActive
	}
	return s.orders.Create(ctx, o)
}

func (s *Service) UpdateOrder(ctx context.Context, o *AntibioticOrder) error {
	if o.DrugName == "" {
		return fmt.Errorf("drug_name is required")
	}
	return s.orders.Update(ctx, o)
}

// CurrentLog picks the daily log with the most recent date, the one the
// dosing engine evaluates against. Nil when the patient has no logs.
func CurrentLog(logs []*DailyLog) *DailyLog {
	var current *DailyLog
	for _, l := range logs {
		if current == nil || l.Date.After(current.Date) {
			current = l
		}
	}
	return current
}

// SameDay reports whether two timestamps fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// LatestActiveByDrug groups active orders by drug and keeps the row with
// the latest start date per drug. Rows dated today are excluded: they are
// already current and are not carried forward again. Map keys are
// lowercased drug names.
func LatestActiveByDrug(orders []*AntibioticOrder, today time.Time) map[string]*AntibioticOrder {
	latest := make(map[string]*AntibioticOrder)
	for _, o := range orders {
		if o.Status != OrderActive || SameDay(o.StartDate, today) {
			continue
		}
		key := strings.ToLower(o.DrugName)
		if prev, ok := latest[key]; !ok || o.StartDate.After(prev.StartDate) {
			latest[key] = o
		}
	}
	return latest
}

// DrugsDatedToday returns the lowercased drug names that already have an
// order row dated today, the guard that makes the daily batch idempotent.
func DrugsDatedToday(orders []*AntibioticOrder, today time.Time) map[string]bool {
	seen := make(map[string]bool)
	for _, o := range orders {
		if SameDay(o.StartDate, today) {
			seen[strings.ToLower(o.DrugName)] = true
		}
	}
	return seen
}
