package agenda

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDuplicateNationalID = errors.New("a patient with this national id already exists")
)

// PatientOrder selects the ordering of registry listings.
type PatientOrder string

const (
	OrderByNationalID PatientOrder = "national_id"
	OrderByName       PatientOrder = "name"
)

// AppointmentFilter narrows ListAppointments. Fields are conjunctive;
// zero values mean "no constraint". From/To bound the appointment date,
// inclusive on both ends.
type AppointmentFilter struct {
	PatientID uuid.UUID
	From      time.Time
	To        time.Time
}

// Repository contains all store interactions needed by the registry and
// the scheduler. Implementations must return results ordered by
// (date, start) for appointments; patient ordering is applied by the
// registry itself.
type Repository interface {
	FindPatientByNationalID(ctx context.Context, nationalID string) (*Patient, error)
	CreatePatient(ctx context.Context, p *Patient) (*Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) error
	ListPatients(ctx context.Context) ([]Patient, error)

	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	FindAppointment(ctx context.Context, patientID uuid.UUID, date time.Time, startMin int) (*Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]AppointmentDetail, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// Retention worker
	DeleteAppointmentsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
