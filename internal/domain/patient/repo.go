package patient

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository defines the persistence interface for patients.
type PatientRepository interface {
	List(ctx context.Context) ([]*Patient, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByCode(ctx context.Context, code string) (*Patient, error)
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DailyLogRepository defines the persistence interface for daily logs.
type DailyLogRepository interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*DailyLog, error)
	Create(ctx context.Context, l *DailyLog) error
}

// OrderRepository defines the persistence interface for antibiotic orders.
type OrderRepository interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*AntibioticOrder, error)
	Create(ctx context.Context, o *AntibioticOrder) error
	Update(ctx context.Context, o *AntibioticOrder) error
	SetAlert(ctx context.Context, id uuid.UUID, hasAlert bool) error
}
