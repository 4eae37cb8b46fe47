package agenda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.NationalID,
		&p.FullName,
		&p.BirthDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.BirthDate = localDate(p.BirthDate)
	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.Date,
		&a.StartMin,
		&a.EndMin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = localDate(a.Date)
	return &a, nil
}

// localDate rebuilds a DATE column value at local midnight. pgx scans
// DATE as UTC midnight, which would shift StartsAt by the zone offset.
func localDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// Interface methods

func (r *PgRepository) FindPatientByNationalID(ctx context.Context, nationalID string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, national_id, full_name, birth_date
		FROM patients
		WHERE national_id = $1
	`, nationalID)
	return scanPatient(row)
}

func (r *PgRepository) CreatePatient(ctx context.Context, p *Patient) (*Patient, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, national_id, full_name, birth_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, national_id, full_name, birth_date
	`, id, p.NationalID, p.FullName, p.BirthDate)

	created, err := scanPatient(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateNationalID
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) DeletePatient(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (r *PgRepository) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, national_id, full_name, birth_date
		FROM patients
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, date, start_min, end_min)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, patient_id, date, start_min, end_min
	`, id, a.PatientID, a.Date, a.StartMin, a.EndMin)

	return scanAppointment(row)
}

func (r *PgRepository) FindAppointment(ctx context.Context, patientID uuid.UUID, date time.Time, startMin int) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, date, start_min, end_min
		FROM appointments
		WHERE patient_id = $1 AND date = $2 AND start_min = $3
	`, patientID, date, startMin)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]AppointmentDetail, error) {
	query := `
		SELECT a.id, a.patient_id, a.date, a.start_min, a.end_min,
		       p.id, p.national_id, p.full_name, p.birth_date
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE 1=1
	`
	args := []any{}

	if filter.PatientID != uuid.Nil {
		args = append(args, filter.PatientID)
		query += fmt.Sprintf(" AND a.patient_id = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND a.date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND a.date <= $%d", len(args))
	}

	query += " ORDER BY a.date, a.start_min"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		var d AppointmentDetail
		var p Patient

		err := rows.Scan(
			&d.ID,
			&d.PatientID,
			&d.Date,
			&d.StartMin,
			&d.EndMin,
			&p.ID,
			&p.NationalID,
			&p.FullName,
			&p.BirthDate,
		)
		if err != nil {
			return nil, err
		}

		d.Date = localDate(d.Date)
		p.BirthDate = localDate(p.BirthDate)
		d.Patient = &p
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) DeleteAppointmentsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE date < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, patient_id, payload, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, now()))
	`, ev.EventType, ev.AppointmentID, ev.PatientID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
