package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/jose-valero/queue-display-bot/internal/infra/logger"
	"github.com/jose-valero/queue-display-bot/internal/infra/storage"
)

// ranks sin refrescar por más de esto se consideran viejos
const rankMaxAge = 7 * 24 * time.Hour

type cleaner interface {
	ExpireStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

type deduper interface {
	Dedupe(ctx context.Context) (int64, error)
}

func handler(ctx context.Context) (string, error) {
	log, err := logger.New(os.Getenv("LOG_LEVEL"), "json")
	if err != nil {
		log = logger.Nop()
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "no DATABASE_URL", nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Sprintf("parse: %v", err), nil
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Sprintf("pool: %v", err), nil
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return clean(cctx, storage.NewRankRepo(db), storage.NewDisplayRepo(db), log), nil
}

// clean corre cada tarea aunque la anterior falle; el resultado resume las dos.
func clean(ctx context.Context, ranks cleaner, displays deduper, log logger.Logger) string {
	expired, err := ranks.ExpireStale(ctx, rankMaxAge)
	if err != nil {
		log.Warn("[janitor] expire ranks", "error", err)
	}
	deduped, err2 := displays.Dedupe(ctx)
	if err2 != nil {
		log.Warn("[janitor] dedupe displays", "error", err2)
	}
	log.Info("[janitor] done", "ranks_expired", expired, "displays_deduped", deduped)

	if err != nil || err2 != nil {
		return fmt.Sprintf("partial: ranks=%d displays=%d", expired, deduped)
	}
	return fmt.Sprintf("ok: ranks=%d displays=%d", expired, deduped)
}

func main() { lambda.Start(handler) }
