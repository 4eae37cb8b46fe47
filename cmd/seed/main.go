package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-agenda/internal/agenda"
	"github.com/hackgods/clinic-agenda/internal/db"
	"github.com/hackgods/clinic-agenda/internal/nationalid"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	patientIDs, err := seedPatients(context.Background(), pool, 500)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, patientIDs); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	ids := make([]uuid.UUID, 0, count)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			// Patients must be at least 13; keep a margin above it.
			birth := gofakeit.DateRange(
				time.Now().AddDate(-90, 0, 0),
				time.Now().AddDate(-14, 0, 0),
			)

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, national_id, full_name, birth_date)
				VALUES ($1, $2, $3, $4)
			`, id, nationalid.Generate(), name, agenda.DateOf(birth))
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}

			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	return ids, nil
}

// seedAppointments gives every patient a handful of past visits and
// roughly a third of them one upcoming booking, mirroring the
// one-future-appointment rule the scheduler enforces.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, patientIDs []uuid.UUID) error {
	log.Printf("seeding appointments for %d patients", len(patientIDs))

	today := agenda.DateOf(time.Now())

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	total := 0
	for _, patientID := range patientIDs {
		pastVisits := gofakeit.Number(0, 3)
		for i := 0; i < pastVisits; i++ {
			date := today.AddDate(0, 0, -gofakeit.Number(1, 365))
			start, end := randomSlot()

			if err := insertAppointment(ctx, tx, patientID, date, start, end); err != nil {
				return err
			}
			total++
		}

		if gofakeit.Number(1, 3) == 1 {
			date := today.AddDate(0, 0, gofakeit.Number(1, 30))
			start, end := randomSlot()

			if err := insertAppointment(ctx, tx, patientID, date, start, end); err != nil {
				return err
			}
			total++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("appointments seeded: %d", total)
	return nil
}

// randomSlot picks a quarter-hour aligned interval of 1 to 4 slots
// inside working hours.
func randomSlot() (startMin, endMin int) {
	slots := (agenda.ClosingMinute - agenda.OpeningMinute) / agenda.SlotGranularity
	length := gofakeit.Number(1, 4)
	first := gofakeit.Number(0, slots-length)

	startMin = agenda.OpeningMinute + first*agenda.SlotGranularity
	endMin = startMin + length*agenda.SlotGranularity
	return startMin, endMin
}

func insertAppointment(ctx context.Context, tx pgx.Tx, patientID uuid.UUID, date time.Time, startMin, endMin int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, date, start_min, end_min)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), patientID, date, startMin, endMin)
	return err
}
