package agenda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-agenda/internal/nationalid"
	redisclient "github.com/hackgods/clinic-agenda/internal/redis"
)

const (
	EventAppointmentScheduled = "APPOINTMENT_SCHEDULED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentsPurged   = "APPOINTMENTS_PURGED"
)

var (
	ErrInvalidTimeRange    = errors.New("end time must be after start time")
	ErrNotQuarterHour      = errors.New("times must fall on quarter-hour boundaries")
	ErrOutsideWorkingHours = errors.New("times must lie within working hours (08:00 to 19:00)")
	ErrNotInFuture         = errors.New("appointment must start in the future")
	ErrTimeUnavailable     = errors.New("patient already has an appointment overlapping this time")
	ErrAlreadyBooked       = errors.New("patient already has a future appointment")
	ErrPastAppointment     = errors.New("appointment has already started and cannot be cancelled")
	ErrInvalidDateRange    = errors.New("start date must not be after end date")
	ErrPatientBusy         = errors.New("another booking for this patient is in progress, please retry")
)

// Service is the appointment scheduler. Conflict checks and the insert
// run inside a per-patient critical section so concurrent calls cannot
// both validate against a stale snapshot.
type Service struct {
	repo   Repository
	locker Locker
	log    *zap.Logger
	nowFn  func() time.Time
}

func NewService(repo Repository, locker Locker, log *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		log:    log,
		nowFn:  time.Now,
	}
}

// Schedule validates and books an appointment. The first failing rule
// short-circuits and is reported verbatim to the caller.
func (s *Service) Schedule(ctx context.Context, nationalID string, date time.Time, startHHMM, endHHMM string) (*Appointment, error) {
	p, err := s.resolvePatient(ctx, nationalID)
	if err != nil {
		return nil, err
	}

	startMin, err := ToMinutes(startHHMM)
	if err != nil {
		return nil, err
	}
	endMin, err := ToMinutes(endHHMM)
	if err != nil {
		return nil, err
	}

	if endMin <= startMin {
		return nil, ErrInvalidTimeRange
	}
	if !IsQuarterHour(startMin) || !IsQuarterHour(endMin) {
		return nil, ErrNotQuarterHour
	}
	if startMin < OpeningMinute || endMin > ClosingMinute {
		return nil, ErrOutsideWorkingHours
	}

	day := DateOf(date)
	now := s.nowFn()
	if !day.Add(time.Duration(startMin) * time.Minute).After(now) {
		return nil, ErrNotInFuture
	}

	var created *Appointment

	err = s.locker.WithPatientLock(ctx, p.ID, func(lockCtx context.Context) error {
		existing, err := s.repo.ListAppointments(lockCtx, AppointmentFilter{PatientID: p.ID})
		if err != nil {
			return fmt.Errorf("list appointments: %w", err)
		}

		for _, a := range existing {
			if a.Date.Equal(day) && a.Overlaps(startMin, endMin) {
				return ErrTimeUnavailable
			}
		}

		// One pending booking per patient: an appointment blocks new
		// ones while its date is still ahead. Slots later today stay
		// bookable; those are guarded by the overlap rule above.
		today := DateOf(now)
		for _, a := range existing {
			if a.Date.After(today) {
				return ErrAlreadyBooked
			}
		}

		appt, err := s.repo.CreateAppointment(lockCtx, &Appointment{
			PatientID: p.ID,
			Date:      day,
			StartMin:  startMin,
			EndMin:    endMin,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, EventAppointmentScheduled, &appt.ID, &p.ID, map[string]any{
			"date":  day.Format("2006-01-02"),
			"start": FormatMinutes(startMin),
			"end":   FormatMinutes(endMin),
		})

		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrPatientBusy
		}
		return nil, err
	}

	return created, nil
}

// Cancel removes the appointment identified by patient, date and start
// time, provided it has not started yet.
func (s *Service) Cancel(ctx context.Context, nationalID string, date time.Time, startHHMM string) error {
	p, err := s.resolvePatient(ctx, nationalID)
	if err != nil {
		return err
	}

	startMin, err := ToMinutes(startHHMM)
	if err != nil {
		return err
	}

	day := DateOf(date)

	err = s.locker.WithPatientLock(ctx, p.ID, func(lockCtx context.Context) error {
		appt, err := s.repo.FindAppointment(lockCtx, p.ID, day, startMin)
		if err != nil {
			return err
		}

		if !appt.IsFutureAt(s.nowFn()) {
			return ErrPastAppointment
		}

		if err := s.repo.DeleteAppointment(lockCtx, appt.ID); err != nil {
			return err
		}

		s.logEvent(lockCtx, EventAppointmentCancelled, &appt.ID, &p.ID, map[string]any{
			"date":  day.Format("2006-01-02"),
			"start": FormatMinutes(startMin),
		})

		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return ErrPatientBusy
		}
		return err
	}

	return nil
}

// List returns every appointment ordered by date then start time.
func (s *Service) List(ctx context.Context) ([]AppointmentDetail, error) {
	return s.repo.ListAppointments(ctx, AppointmentFilter{})
}

// ListByRange returns the appointments whose date falls inside
// [from, to], both ends inclusive, in the same order as List.
func (s *Service) ListByRange(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error) {
	fromDay := DateOf(from)
	toDay := DateOf(to)
	if fromDay.After(toDay) {
		return nil, ErrInvalidDateRange
	}

	return s.repo.ListAppointments(ctx, AppointmentFilter{From: fromDay, To: toDay})
}

// PurgeBefore deletes appointments dated before cutoff. The retention
// worker calls this periodically; the cutoff is clamped to today so a
// misconfigured retention period can never remove upcoming bookings.
func (s *Service) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	day := DateOf(cutoff)
	today := DateOf(s.nowFn())
	if day.After(today) {
		day = today
	}

	removed, err := s.repo.DeleteAppointmentsBefore(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("delete appointments before %s: %w", day.Format("2006-01-02"), err)
	}

	if removed > 0 {
		s.logEvent(ctx, EventAppointmentsPurged, nil, nil, map[string]any{
			"cutoff":  day.Format("2006-01-02"),
			"removed": removed,
		})
	}

	return removed, nil
}

func (s *Service) resolvePatient(ctx context.Context, nationalID string) (*Patient, error) {
	id, err := nationalid.Normalize(nationalID)
	if err != nil {
		return nil, ErrPatientNotFound
	}
	return s.repo.FindPatientByNationalID(ctx, id)
}

func (s *Service) logEvent(ctx context.Context, eventType string, apptID, patientID *uuid.UUID, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("failed to marshal event payload",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		data = nil
	}

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: apptID,
		PatientID:     patientID,
		Payload:       data,
		CreatedAt:     s.nowFn(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("failed to insert event log",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
