package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-agenda/internal/agenda"
)

type RouterConfig struct {
	Registry  *agenda.Registry
	Scheduler *agenda.Service
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Log       *zap.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/patients", registerPatientHandler(cfg.Registry))
	r.Get("/patients", listPatientsHandler(cfg.Registry))
	r.Delete("/patients/{nationalID}", deletePatientHandler(cfg.Registry))

	r.Post("/appointments", scheduleAppointmentHandler(cfg.Scheduler))
	r.Get("/appointments", listAppointmentsHandler(cfg.Scheduler))
	r.Post("/appointments/cancel", cancelAppointmentHandler(cfg.Scheduler))

	return r
}
