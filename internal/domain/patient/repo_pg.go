package patient

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// -- Patient Repository --

type patientRepoPG struct {
	pool *pgxpool.Pool
}

func NewPatientRepo(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientColumns = `id, code, full_name, date_of_birth, gender,
	gestational_age_weeks, department, alert_status, created_at, updated_at`

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientColumns+` FROM patient ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByCode(ctx context.Context, code string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patient WHERE code = $1`, code))
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	if p.AlertStatus == "" {
		p.AlertStatus = AlertNormal
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO patient (id, code, full_name, date_of_birth, gender,
			gestational_age_weeks, department, alert_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Code, p.FullName, p.DateOfBirth, p.Gender,
		p.GestationalAgeWeeks, p.Department, p.AlertStatus,
	)
	return err
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE patient SET
			code = $2, full_name = $3, date_of_birth = $4, gender = $5,
			gestational_age_weeks = $6, department = $7, alert_status = $8,
			updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.Code, p.FullName, p.DateOfBirth, p.Gender,
		p.GestationalAgeWeeks, p.Department, p.AlertStatus,
	)
	return err
}

func (r *patientRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	return err
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.Code, &p.FullName, &p.DateOfBirth, &p.Gender,
		&p.GestationalAgeWeeks, &p.Department, &p.AlertStatus,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// -- DailyLog Repository --

type logRepoPG struct {
	pool *pgxpool.Pool
}

func NewDailyLogRepo(pool *pgxpool.Pool) DailyLogRepository {
	return &logRepoPG{pool: pool}
}

func (r *logRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*DailyLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, date, weight_kg, height_cm, postnatal_age_days, creatinine, created_at
		FROM daily_log WHERE patient_id = $1 ORDER BY date`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*DailyLog
	for rows.Next() {
		var l DailyLog
		if err := rows.Scan(&l.ID, &l.PatientID, &l.Date, &l.WeightKg, &l.HeightCm,
			&l.PostnatalAgeDays, &l.Creatinine, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

func (r *logRepoPG) Create(ctx context.Context, l *DailyLog) error {
	l.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO daily_log (id, patient_id, date, weight_kg, height_cm, postnatal_age_days, creatinine)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.PatientID, l.Date, l.WeightKg, l.HeightCm, l.PostnatalAgeDays, l.Creatinine,
	)
	return err
}

// -- Order Repository --

type orderRepoPG struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) OrderRepository {
	return &orderRepoPG{pool: pool}
}

const orderColumns = `id, patient_id, drug_name, start_date, dose, frequency,
	status, is_critically_ill, has_alert, created_at`

func (r *orderRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*AntibioticOrder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM antibiotic_order WHERE patient_id = $1 ORDER BY start_date, created_at`,
		patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*AntibioticOrder
	for rows.Next() {
		var o AntibioticOrder
		if err := rows.Scan(&o.ID, &o.PatientID, &o.DrugName, &o.StartDate, &o.Dose, &o.Frequency,
			&o.Status, &o.CriticallyIll, &o.HasAlert, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

func (r *orderRepoPG) Create(ctx context.Context, o *AntibioticOrder) error {
	o.ID = uuid.New()
	if o.Status == "" {
		o.Status = OrderActive
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO antibiotic_order (id, patient_id, drug_name, start_date, dose, frequency,
			status, is_critically_ill, has_alert)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		o.ID, o.PatientID, o.DrugName, o.StartDate, o.Dose, o.Frequency,
		o.Status, o.CriticallyIll, o.HasAlert,
	)
	return err
}

func (r *orderRepoPG) Update(ctx context.Context, o *AntibioticOrder) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE antibiotic_order SET
			drug_name = $2, start_date = $3, dose = $4, frequency = $5,
			status = $6, is_critically_ill = $7, has_alert = $8
		WHERE id = $1`,
		o.ID, o.DrugName, o.StartDate, o.Dose, o.Frequency,
		o.Status, o.CriticallyIll, o.HasAlert,
	)
	return err
}

func (r *orderRepoPG) SetAlert(ctx context.Context, id uuid.UUID, hasAlert bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE antibiotic_order SET has_alert = $2 WHERE id = $1`, id, hasAlert)
	return err
}
