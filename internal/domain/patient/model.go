// Package patient holds the NICU census: patients, their daily
// observation logs and their antibiotic orders.
package patient

import (
	"time"

	"github.com/google/uuid"
)

// AlertStatus is derived state: only the daily reconciliation batch
// writes it.
type AlertStatus string

const (
	AlertNormal  AlertStatus = "normal"
	AlertWarning AlertStatus = "warning"
)

type OrderStatus string

const (
	OrderActive  OrderStatus = "active"
	OrderStopped OrderStatus = "stopped"
)

type Patient struct {
	ID                  uuid.UUID   `json:"id"`
	Code                string      `json:"code"` // hospital patient code, unique
	FullName            string      `json:"full_name"`
	DateOfBirth         time.Time   `json:"date_of_birth"`
	Gender              string      `json:"gender"`
	GestationalAgeWeeks float64     `json:"gestational_age_weeks"`
	Department          string      `json:"department"`
	AlertStatus         AlertStatus `json:"alert_status"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// DailyLog is one observation row. Append-only; the engine always reads
// the row with the most recent date ("current log").
type DailyLog struct {
	ID               uuid.UUID `json:"id"`
	PatientID        uuid.UUID `json:"patient_id"`
	Date             time.Time `json:"date"`
	WeightKg         float64   `json:"weight_kg"`
	HeightCm         *float64  `json:"height_cm,omitempty"`
	PostnatalAgeDays int       `json:"postnatal_age_days"`
	Creatinine       *float64  `json:"creatinine,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AntibioticOrder is one prescription row. A course of therapy is a chain
// of rows for the same drug: the batch inserts a fresh row per day, and
// only the active row with the latest start date is evaluated. Dose and
// frequency stay as entered text; the compliance checker parses them.
type AntibioticOrder struct {
	ID            uuid.UUID   `json:"id"`
	PatientID     uuid.UUID   `json:"patient_id"`
	DrugName      string      `json:"drug_name"`
	StartDate     time.Time   `json:"start_date"`
	Dose          string      `json:"dose"`
	Frequency     string      `json:"frequency"`
	Status        OrderStatus `json:"status"`
	CriticallyIll bool        `json:"is_critically_ill"`
	HasAlert      bool        `json:"has_alert"`
	CreatedAt     time.Time   `json:"created_at"`
}
