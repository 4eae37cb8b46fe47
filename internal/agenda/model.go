package agenda

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID         uuid.UUID
	NationalID string
	FullName   string
	BirthDate  time.Time
}

// AgeAt returns the patient's age in whole calendar years at the given
// moment. A birthday not yet reached that year does not count.
func (p *Patient) AgeAt(now time.Time) int {
	years := now.Year() - p.BirthDate.Year()
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if now.Before(anniversary) {
		years--
	}
	return years
}

// Appointment is one booked interval for a patient. Date is a local
// calendar day (midnight); StartMin/EndMin are minutes since midnight,
// half-open [StartMin, EndMin).
type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	Date      time.Time
	StartMin  int
	EndMin    int
}

// StartsAt combines Date and StartMin into a point in time.
func (a *Appointment) StartsAt() time.Time {
	return a.Date.Add(time.Duration(a.StartMin) * time.Minute)
}

// IsFutureAt reports whether the appointment has not yet started.
func (a *Appointment) IsFutureAt(now time.Time) bool {
	return a.StartsAt().After(now)
}

// Overlaps reports whether two half-open minute intervals on the same
// day share at least one instant.
func (a *Appointment) Overlaps(startMin, endMin int) bool {
	return a.StartMin < endMin && startMin < a.EndMin
}

// AppointmentDetail is an appointment joined with its patient, as the
// listing views need it.
type AppointmentDetail struct {
	Appointment
	Patient *Patient
}

// PatientSummary is a registry listing row: the patient plus any
// appointments that are still ahead of them.
type PatientSummary struct {
	Patient
	FutureAppointments []Appointment
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	PatientID     *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// DateOf truncates a moment to its local calendar day.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
