// Command migrate applies the client-state schema to STATE_DATABASE_URL.
// The server migrates on start as well; this is for deployments that
// migrate ahead of a rollout.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/paydesk/console/internal/store"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	dsn := envOr("STATE_DATABASE_URL", "file:payroll-console.db")

	if store.IsPostgresDSN(dsn) {
		if err := store.MigratePostgres(dsn); err != nil {
			slog.Error("migration failed", "err", err)
			os.Exit(1)
		}
		fmt.Println("migrations complete")
		return
	}

	// Opening a SQLite store applies its migrations.
	s, err := store.Open(ctx, dsn, nil, nil)
	if err != nil {
		slog.Error("migration failed", "err", err)
		os.Exit(1)
	}
	defer s.Close()

	fmt.Println("migrations complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
