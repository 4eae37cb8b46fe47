package agenda

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Tuesday, 10 March 2026, noon.
var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)

const testPatientID = "12345678909"

func newTestService(t *testing.T, now time.Time) (*Service, *MemoryRepository) {
	t.Helper()

	repo := NewMemoryRepository()
	svc := NewService(repo, NewMutexLocker(), zap.NewNop())
	svc.nowFn = func() time.Time { return now }
	return svc, repo
}

func addPatient(t *testing.T, repo *MemoryRepository, nationalID string) *Patient {
	t.Helper()

	p, err := repo.CreatePatient(context.Background(), &Patient{
		NationalID: nationalID,
		FullName:   "Alice Johnson",
		BirthDate:  time.Date(1990, 6, 15, 0, 0, 0, 0, time.Local),
	})
	require.NoError(t, err)
	return p
}

func day(offset int) time.Time {
	return DateOf(testNow).AddDate(0, 0, offset)
}

func TestSchedule(t *testing.T) {
	ctx := context.Background()

	t.Run("books a valid future slot", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		addPatient(t, repo, testPatientID)

		appt, err := svc.Schedule(ctx, testPatientID, day(1), "0900", "0930")
		require.NoError(t, err)
		assert.Equal(t, 540, appt.StartMin)
		assert.Equal(t, 570, appt.EndMin)
		assert.True(t, appt.Date.Equal(day(1)))
	})

	t.Run("fails for unknown patient", func(t *testing.T) {
		svc, _ := newTestService(t, testNow)

		_, err := svc.Schedule(ctx, testPatientID, day(1), "0900", "0930")
		assert.ErrorIs(t, err, ErrPatientNotFound)
	})

	t.Run("fails on malformed time", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		addPatient(t, repo, testPatientID)

		_, err := svc.Schedule(ctx, testPatientID, day(1), "25000", "0930")
		assert.ErrorIs(t, err, ErrBadTimeFormat)
	})

	t.Run("fails when end is not after start", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		addPatient(t, repo, testPatientID)

		_, err := svc.Schedule(ctx, testPatientID, day(1), "0930", "0900")
		assert.ErrorIs(t, err, ErrInvalidTimeRange)

		_, err = svc.Schedule(ctx, testPatientID, day(1), "0930", "0930")
		assert.ErrorIs(t, err, ErrInvalidTimeRange)
	})

	t.Run("fails off the quarter-hour grid", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		addPatient(t, repo, testPatientID)

		_, err := svc.Schedule(ctx, testPatientID, day(1), "0905", "0920")
		assert.ErrorIs(t, err, ErrNotQuarterHour)
	})

	t.Run("fails outside working hours", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		addPatient(t, repo, testPatientID)

		_, err := svc.Schedule(ctx, testPatientID, day(1), "0700", "0800")
		assert.ErrorIs(t, err, ErrOutsideWorkingHours)

		_, err = svc.Schedule(ctx, testPatientID, day(1), "1845", "1915")
		assert.ErrorIs(t, err, ErrOutsideWorkingHours)
	})

	t.Run("fails when the start is not in the future", func(t *testing.T) {
		svc, repo := newTestService(t, testNow) // noon
		addPatient(t, repo, testPatientID)

		_, err := svc.Schedule(ctx, testPatientID, day(0), "0800", "0830")
		assert.ErrorIs(t, err, ErrNotInFuture)

		_, err = svc.Schedule(ctx, testPatientID, day(-1), "0900", "0930")
		assert.ErrorIs(t, err, ErrNotInFuture)
	})

	t.Run("rejects overlapping interval on the same day", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		addPatient(t, repo, testPatientID)

		_, err := svc.Schedule(ctx, testPatientID, day(1), "0900", "0930")
		require.NoError(t, err)

		_, err = svc.Schedule(ctx, testPatientID, day(1), "0915", "0945")
		assert.ErrorIs(t, err, ErrTimeUnavailable)
	})

	t.Run("allows touching intervals later the same day", func(t *testing.T) {
		morning := time.Date(2026, 3, 10, 7, 0, 0, 0, time.Local)
		svc, repo := newTestService(t, morning)
		addPatient(t, repo, testPatientID)

		_, err := svc.Schedule(ctx, testPatientID, day(0), "0900", "0930")
		require.NoError(t, err)

		// [0900,0930) and [0930,1000) touch but do not overlap.
		_, err = svc.Schedule(ctx, testPatientID, day(0), "0930", "1000")
		require.NoError(t, err)
	})

	t.Run("rejects a second pending booking regardless of date and time", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		addPatient(t, repo, testPatientID)

		_, err := svc.Schedule(ctx, testPatientID, day(1), "0900", "0930")
		require.NoError(t, err)

		_, err = svc.Schedule(ctx, testPatientID, day(5), "1500", "1530")
		assert.ErrorIs(t, err, ErrAlreadyBooked)

		_, err = svc.Schedule(ctx, testPatientID, day(1), "1000", "1030")
		assert.ErrorIs(t, err, ErrAlreadyBooked)
	})

	t.Run("records a scheduled event", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		addPatient(t, repo, testPatientID)

		_, err := svc.Schedule(ctx, testPatientID, day(1), "0900", "0930")
		require.NoError(t, err)

		events := repo.Events()
		require.Len(t, events, 1)
		assert.Equal(t, EventAppointmentScheduled, events[0].EventType)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("removes a future appointment", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		addPatient(t, repo, testPatientID)

		_, err := svc.Schedule(ctx, testPatientID, day(2), "1000", "1030")
		require.NoError(t, err)

		require.NoError(t, svc.Cancel(ctx, testPatientID, day(2), "1000"))

		appts, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, appts)
	})

	t.Run("fails for a past appointment", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		p := addPatient(t, repo, testPatientID)

		_, err := repo.CreateAppointment(ctx, &Appointment{
			PatientID: p.ID,
			Date:      day(-1),
			StartMin:  540,
			EndMin:    570,
		})
		require.NoError(t, err)

		err = svc.Cancel(ctx, testPatientID, day(-1), "0900")
		assert.ErrorIs(t, err, ErrPastAppointment)
	})

	t.Run("fails when nothing matches", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		addPatient(t, repo, testPatientID)

		err := svc.Cancel(ctx, testPatientID, day(2), "1000")
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})

	t.Run("fails for unknown patient", func(t *testing.T) {
		svc, _ := newTestService(t, testNow)

		err := svc.Cancel(ctx, testPatientID, day(2), "1000")
		assert.ErrorIs(t, err, ErrPatientNotFound)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by date then start time", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		first := addPatient(t, repo, testPatientID)
		second := addPatient(t, repo, "54090137004")

		for _, a := range []Appointment{
			{PatientID: first.ID, Date: day(3), StartMin: 600, EndMin: 630},
			{PatientID: second.ID, Date: day(1), StartMin: 900, EndMin: 930},
			{PatientID: second.ID, Date: day(3), StartMin: 480, EndMin: 510},
		} {
			_, err := repo.CreateAppointment(ctx, &a)
			require.NoError(t, err)
		}

		appts, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, appts, 3)

		assert.True(t, appts[0].Date.Equal(day(1)))
		assert.True(t, appts[1].Date.Equal(day(3)))
		assert.Equal(t, 480, appts[1].StartMin)
		assert.Equal(t, 600, appts[2].StartMin)
	})

	t.Run("range bounds are inclusive", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		p := addPatient(t, repo, testPatientID)

		for _, offset := range []int{1, 2, 3, 4} {
			_, err := repo.CreateAppointment(ctx, &Appointment{
				PatientID: p.ID,
				Date:      day(offset),
				StartMin:  540,
				EndMin:    570,
			})
			require.NoError(t, err)
		}

		appts, err := svc.ListByRange(ctx, day(2), day(3))
		require.NoError(t, err)
		require.Len(t, appts, 2)
		assert.True(t, appts[0].Date.Equal(day(2)))
		assert.True(t, appts[1].Date.Equal(day(3)))
	})

	t.Run("rejects inverted ranges", func(t *testing.T) {
		svc, _ := newTestService(t, testNow)

		_, err := svc.ListByRange(ctx, day(3), day(2))
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})
}

func TestPurgeBefore(t *testing.T) {
	ctx := context.Background()

	t.Run("removes old rows and keeps the rest", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		p := addPatient(t, repo, testPatientID)

		for _, offset := range []int{-400, -10, 2} {
			_, err := repo.CreateAppointment(ctx, &Appointment{
				PatientID: p.ID,
				Date:      day(offset),
				StartMin:  540,
				EndMin:    570,
			})
			require.NoError(t, err)
		}

		removed, err := svc.PurgeBefore(ctx, testNow.AddDate(0, 0, -30))
		require.NoError(t, err)
		assert.EqualValues(t, 1, removed)

		appts, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, appts, 2)
	})

	t.Run("clamps a future cutoff to today", func(t *testing.T) {
		svc, repo := newTestService(t, testNow)
		p := addPatient(t, repo, testPatientID)

		_, err := repo.CreateAppointment(ctx, &Appointment{
			PatientID: p.ID,
			Date:      day(2),
			StartMin:  540,
			EndMin:    570,
		})
		require.NoError(t, err)

		removed, err := svc.PurgeBefore(ctx, testNow.AddDate(0, 0, 30))
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}
