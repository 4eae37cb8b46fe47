package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-agenda/internal/agenda"
	"github.com/hackgods/clinic-agenda/internal/cli"
	"github.com/hackgods/clinic-agenda/internal/config"
	"github.com/hackgods/clinic-agenda/internal/db"
	"github.com/hackgods/clinic-agenda/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load error: " + err.Error() + "\n")
		os.Exit(1)
	}

	// The console shares stdout with the menu, so keep logs on stderr
	// and quiet unless something goes wrong.
	log, err := logger.New("warn", cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString("logger error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	var repo agenda.Repository
	switch cfg.Store {
	case config.StoreMemory:
		repo = agenda.NewMemoryRepository()
	default:
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancel()
		if err != nil {
			log.Fatal("postgres connection error", zap.Error(err))
		}
		defer pool.Close()

		if err := db.EnsureSchema(ctx, pool); err != nil {
			log.Fatal("schema error", zap.Error(err))
		}

		repo = agenda.NewPgRepository(pool)
	}

	// Single process, single user: an in-process lock is enough here.
	locker := agenda.NewMutexLocker()

	registry := agenda.NewRegistry(repo, locker, log)
	scheduler := agenda.NewService(repo, locker, log)

	menu := cli.NewMenu(os.Stdin, os.Stdout, registry, scheduler)
	if err := menu.Run(ctx); err != nil {
		log.Fatal("menu error", zap.Error(err))
	}
}
