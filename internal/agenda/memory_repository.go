package agenda

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a mutex-guarded in-process store. It backs the
// test suite and the console app's demo mode, and is always constructed
// and injected explicitly; there is no process-wide shared instance.
type MemoryRepository struct {
	mu           sync.RWMutex
	patients     map[uuid.UUID]Patient
	appointments map[uuid.UUID]Appointment
	events       []EventLog
	nextEventID  int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		patients:     make(map[uuid.UUID]Patient),
		appointments: make(map[uuid.UUID]Appointment),
		nextEventID:  1,
	}
}

func (r *MemoryRepository) FindPatientByNationalID(_ context.Context, nationalID string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.patients {
		if p.NationalID == nationalID {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (r *MemoryRepository) CreatePatient(_ context.Context, p *Patient) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.patients {
		if existing.NationalID == p.NationalID {
			return nil, ErrDuplicateNationalID
		}
	}

	created := *p
	created.ID = uuid.New()
	r.patients[created.ID] = created

	cp := created
	return &cp, nil
}

func (r *MemoryRepository) DeletePatient(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[id]; !ok {
		return ErrPatientNotFound
	}
	delete(r.patients, id)

	// Cascade, matching the Postgres schema.
	for aid, a := range r.appointments {
		if a.PatientID == id {
			delete(r.appointments, aid)
		}
	}
	return nil
}

func (r *MemoryRepository) ListPatients(_ context.Context) ([]Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Patient, 0, len(r.patients))
	for _, p := range r.patients {
		result = append(result, p)
	}
	return result, nil
}

func (r *MemoryRepository) CreateAppointment(_ context.Context, a *Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := *a
	created.ID = uuid.New()
	r.appointments[created.ID] = created

	cp := created
	return &cp, nil
}

func (r *MemoryRepository) FindAppointment(_ context.Context, patientID uuid.UUID, date time.Time, startMin int) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.appointments {
		if a.PatientID == patientID && a.Date.Equal(date) && a.StartMin == startMin {
			cp := a
			return &cp, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (r *MemoryRepository) ListAppointments(_ context.Context, filter AppointmentFilter) ([]AppointmentDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []AppointmentDetail
	for _, a := range r.appointments {
		if filter.PatientID != uuid.Nil && a.PatientID != filter.PatientID {
			continue
		}
		if !filter.From.IsZero() && a.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && a.Date.After(filter.To) {
			continue
		}

		d := AppointmentDetail{Appointment: a}
		if p, ok := r.patients[a.PatientID]; ok {
			cp := p
			d.Patient = &cp
		}
		result = append(result, d)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].StartMin < result[j].StartMin
	})

	return result, nil
}

func (r *MemoryRepository) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *MemoryRepository) DeleteAppointmentsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, a := range r.appointments {
		if a.Date.Before(cutoff) {
			delete(r.appointments, id)
			removed++
		}
	}
	return removed, nil
}

func (r *MemoryRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ev.ID = r.nextEventID
	r.nextEventID++
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of the recorded event log, oldest first. Test
// helper; the Postgres store exposes no equivalent.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EventLog, len(r.events))
	copy(out, r.events)
	return out
}
