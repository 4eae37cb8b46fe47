package agenda

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type MemoryRepositorySuite struct {
	suite.Suite
	repo *MemoryRepository
	ctx  context.Context
}

func (s *MemoryRepositorySuite) SetupTest() {
	s.repo = NewMemoryRepository()
	s.ctx = context.Background()
}

func TestMemoryRepositorySuite(t *testing.T) {
	suite.Run(t, new(MemoryRepositorySuite))
}

func (s *MemoryRepositorySuite) newPatient(nationalID string) *Patient {
	p, err := s.repo.CreatePatient(s.ctx, &Patient{
		NationalID: nationalID,
		FullName:   "Test Patient",
		BirthDate:  time.Date(1985, 1, 20, 0, 0, 0, 0, time.Local),
	})
	s.Require().NoError(err)
	return p
}

func (s *MemoryRepositorySuite) newAppointment(patientID uuid.UUID, date time.Time, startMin, endMin int) *Appointment {
	a, err := s.repo.CreateAppointment(s.ctx, &Appointment{
		PatientID: patientID,
		Date:      date,
		StartMin:  startMin,
		EndMin:    endMin,
	})
	s.Require().NoError(err)
	return a
}

func (s *MemoryRepositorySuite) TestPatientLifecycle() {
	s.Run("creates and finds by national id", func() {
		p := s.newPatient("12345678909")
		s.NotEqual(uuid.Nil, p.ID)

		found, err := s.repo.FindPatientByNationalID(s.ctx, "12345678909")
		s.Require().NoError(err)
		s.Equal(p.ID, found.ID)
	})

	s.Run("returns ErrPatientNotFound for unknown id", func() {
		_, err := s.repo.FindPatientByNationalID(s.ctx, "54090137004")
		s.Require().ErrorIs(err, ErrPatientNotFound)
	})

	s.Run("rejects duplicate national id", func() {
		_, err := s.repo.CreatePatient(s.ctx, &Patient{NationalID: "12345678909"})
		s.Require().ErrorIs(err, ErrDuplicateNationalID)
	})

	s.Run("deletes and forgets", func() {
		p := s.newPatient("54090137004")
		s.Require().NoError(s.repo.DeletePatient(s.ctx, p.ID))
		s.ErrorIs(s.repo.DeletePatient(s.ctx, p.ID), ErrPatientNotFound)
	})
}

func (s *MemoryRepositorySuite) TestAppointmentFilters() {
	base := time.Date(2026, 5, 4, 0, 0, 0, 0, time.Local)
	alice := s.newPatient("12345678909")
	bruno := s.newPatient("54090137004")

	s.newAppointment(alice.ID, base, 540, 570)
	s.newAppointment(alice.ID, base.AddDate(0, 0, 2), 600, 630)
	s.newAppointment(bruno.ID, base.AddDate(0, 0, 1), 480, 510)

	s.Run("lists all ordered by date and start", func() {
		all, err := s.repo.ListAppointments(s.ctx, AppointmentFilter{})
		s.Require().NoError(err)
		s.Require().Len(all, 3)
		s.Equal(540, all[0].StartMin)
		s.Equal(480, all[1].StartMin)
		s.Equal(600, all[2].StartMin)
	})

	s.Run("filters by patient", func() {
		mine, err := s.repo.ListAppointments(s.ctx, AppointmentFilter{PatientID: alice.ID})
		s.Require().NoError(err)
		s.Len(mine, 2)
	})

	s.Run("filters conjunctively with the date range", func() {
		got, err := s.repo.ListAppointments(s.ctx, AppointmentFilter{
			PatientID: alice.ID,
			From:      base.AddDate(0, 0, 1),
			To:        base.AddDate(0, 0, 2),
		})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(600, got[0].StartMin)
	})

	s.Run("joins the patient row", func() {
		all, err := s.repo.ListAppointments(s.ctx, AppointmentFilter{PatientID: bruno.ID})
		s.Require().NoError(err)
		s.Require().Len(all, 1)
		s.Require().NotNil(all[0].Patient)
		s.Equal("54090137004", all[0].Patient.NationalID)
	})
}

func (s *MemoryRepositorySuite) TestFindAndDeleteAppointment() {
	date := time.Date(2026, 5, 4, 0, 0, 0, 0, time.Local)
	p := s.newPatient("12345678909")
	a := s.newAppointment(p.ID, date, 540, 570)

	found, err := s.repo.FindAppointment(s.ctx, p.ID, date, 540)
	s.Require().NoError(err)
	s.Equal(a.ID, found.ID)

	_, err = s.repo.FindAppointment(s.ctx, p.ID, date, 600)
	s.ErrorIs(err, ErrAppointmentNotFound)

	s.Require().NoError(s.repo.DeleteAppointment(s.ctx, a.ID))
	s.ErrorIs(s.repo.DeleteAppointment(s.ctx, a.ID), ErrAppointmentNotFound)
}

func (s *MemoryRepositorySuite) TestDeleteAppointmentsBefore() {
	base := time.Date(2026, 5, 4, 0, 0, 0, 0, time.Local)
	p := s.newPatient("12345678909")

	s.newAppointment(p.ID, base.AddDate(0, 0, -30), 540, 570)
	s.newAppointment(p.ID, base.AddDate(0, 0, -1), 540, 570)
	s.newAppointment(p.ID, base, 540, 570)

	removed, err := s.repo.DeleteAppointmentsBefore(s.ctx, base)
	s.Require().NoError(err)
	s.EqualValues(2, removed)

	left, err := s.repo.ListAppointments(s.ctx, AppointmentFilter{})
	s.Require().NoError(err)
	s.Len(left, 1)
}
