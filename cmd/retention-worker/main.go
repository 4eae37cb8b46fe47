package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-agenda/internal/agenda"
	"github.com/hackgods/clinic-agenda/internal/config"
	"github.com/hackgods/clinic-agenda/internal/db"
	"github.com/hackgods/clinic-agenda/internal/logger"
)

// The retention worker deletes appointments whose date fell out of the
// retention window. It only ever touches past rows, so it needs no
// patient locking against the schedulers.
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load error: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString("logger error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("retention-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.WorkerInterval),
		zap.Duration("retention", cfg.RetentionPeriod),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	log.Info("connected to Postgres")

	repo := agenda.NewPgRepository(pgPool)
	svc := agenda.NewService(repo, agenda.NewMutexLocker(), log)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.RetentionPeriod, log)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info("shutdown signal received, stopping retention worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.RetentionPeriod, log)
		}
	}
}

func runOnce(ctx context.Context, svc *agenda.Service, retention time.Duration, log *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	cutoff := start.Add(-retention)

	removed, err := svc.PurgeBefore(runCtx, cutoff)
	if err != nil {
		log.Error("retention run error", zap.Error(err))
		return
	}

	log.Info("retention run complete",
		zap.Int64("removed", removed),
		zap.Duration("took", time.Since(start)),
	)
}
