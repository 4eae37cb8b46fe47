package agenda

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hackgods/clinic-agenda/internal/nationalid"
)

const (
	MinNameLength = 5
	MinPatientAge = 13
)

const (
	EventPatientRegistered = "PATIENT_REGISTERED"
	EventPatientRemoved    = "PATIENT_REMOVED"
)

var (
	ErrInvalidNationalID     = errors.New("national id failed check-digit validation")
	ErrNameTooShort          = fmt.Errorf("full name must have at least %d characters", MinNameLength)
	ErrUnderMinAge           = fmt.Errorf("patient must be at least %d years old", MinPatientAge)
	ErrHasFutureAppointments = errors.New("patient has future appointments and cannot be removed")
)

// Registry manages the patient roster. Removal takes the per-patient
// lock so it cannot race a concurrent Schedule for the same patient.
type Registry struct {
	repo     Repository
	locker   Locker
	log      *zap.Logger
	collator *collate.Collator
	nowFn    func() time.Time
}

func NewRegistry(repo Repository, locker Locker, log *zap.Logger) *Registry {
	return &Registry{
		repo:     repo,
		locker:   locker,
		log:      log,
		collator: collate.New(language.Und, collate.IgnoreCase),
		nowFn:    time.Now,
	}
}

// Register validates and persists a new patient. Failure order: id
// already taken, id invalid, name too short, patient too young.
func (r *Registry) Register(ctx context.Context, nationalID, fullName string, birthDate time.Time) (*Patient, error) {
	id, err := nationalid.Normalize(nationalID)
	if err != nil {
		return nil, ErrInvalidNationalID
	}

	existing, err := r.repo.FindPatientByNationalID(ctx, id)
	if err != nil && !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("look up patient: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateNationalID
	}

	if !nationalid.Valid(id) {
		return nil, ErrInvalidNationalID
	}

	if nameLength(fullName) < MinNameLength {
		return nil, ErrNameTooShort
	}

	p := &Patient{
		NationalID: id,
		FullName:   strings.TrimSpace(fullName),
		BirthDate:  DateOf(birthDate),
	}
	if p.AgeAt(r.nowFn()) < MinPatientAge {
		return nil, ErrUnderMinAge
	}

	created, err := r.repo.CreatePatient(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	r.logEvent(ctx, EventPatientRegistered, EventLog{PatientID: &created.ID})

	return created, nil
}

// Remove deletes a patient, unless any of their appointments is still
// ahead. The future check and the delete run inside the patient lock.
func (r *Registry) Remove(ctx context.Context, nationalID string) error {
	id, err := nationalid.Normalize(nationalID)
	if err != nil {
		return ErrPatientNotFound
	}

	p, err := r.repo.FindPatientByNationalID(ctx, id)
	if err != nil {
		return err
	}

	err = r.locker.WithPatientLock(ctx, p.ID, func(lockCtx context.Context) error {
		appts, err := r.repo.ListAppointments(lockCtx, AppointmentFilter{PatientID: p.ID})
		if err != nil {
			return fmt.Errorf("list appointments: %w", err)
		}

		now := r.nowFn()
		for _, a := range appts {
			if a.IsFutureAt(now) {
				return ErrHasFutureAppointments
			}
		}

		return r.repo.DeletePatient(lockCtx, p.ID)
	})
	if err != nil {
		return err
	}

	r.logEvent(ctx, EventPatientRemoved, EventLog{PatientID: &p.ID})

	return nil
}

// ListPatients returns the roster in the requested order, each row
// annotated with the patient's future appointments.
func (r *Registry) ListPatients(ctx context.Context, orderBy PatientOrder) ([]PatientSummary, error) {
	patients, err := r.repo.ListPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}

	now := r.nowFn()
	appts, err := r.repo.ListAppointments(ctx, AppointmentFilter{From: DateOf(now)})
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	futureByPatient := make(map[string][]Appointment)
	for _, a := range appts {
		if a.IsFutureAt(now) {
			key := a.PatientID.String()
			futureByPatient[key] = append(futureByPatient[key], a.Appointment)
		}
	}

	result := make([]PatientSummary, 0, len(patients))
	for _, p := range patients {
		result = append(result, PatientSummary{
			Patient:            p,
			FutureAppointments: futureByPatient[p.ID.String()],
		})
	}

	switch orderBy {
	case OrderByName:
		sort.SliceStable(result, func(i, j int) bool {
			return r.collator.CompareString(result[i].FullName, result[j].FullName) < 0
		})
	default:
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].NationalID < result[j].NationalID
		})
	}

	return result, nil
}

func (r *Registry) logEvent(ctx context.Context, eventType string, ev EventLog) {
	ev.EventType = eventType
	ev.CreatedAt = r.nowFn()

	if err := r.repo.InsertEvent(ctx, ev); err != nil {
		r.log.Warn("failed to insert event log",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// nameLength counts non-whitespace characters.
func nameLength(name string) int {
	n := 0
	for _, r := range name {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
