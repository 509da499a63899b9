package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/paydesk/console/internal/crypto"
	"github.com/paydesk/console/internal/store/migrations"
)

// PgxIface is the subset of *pgxpool.Pool the store uses.
type PgxIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type postgresBackend struct {
	db PgxIface
}

// NewPostgres builds a SessionStore over an already migrated pool.
func NewPostgres(db PgxIface, crypter *crypto.Crypter, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{b: &postgresBackend{db: db}, crypter: crypter, logger: logger}
}

func openPostgres(ctx context.Context, dsn string) (*postgresBackend, error) {
	if err := MigratePostgres(dsn); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &postgresBackend{db: pool}, nil
}

// MigratePostgres applies the embedded migrations to the database at dsn.
func MigratePostgres(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open postgres for migrations: %w", err)
	}
	defer db.Close()

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}
	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{MultiStatementEnabled: true})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (b *postgresBackend) get(ctx context.Context, clientID, key string) (string, error) {
	var v string
	err := b.db.QueryRow(ctx,
		`SELECT value FROM client_state WHERE client_id = $1 AND key = $2`,
		clientID, key,
	).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

func (b *postgresBackend) set(ctx context.Context, clientID, key, value string) error {
	_, err := b.db.Exec(ctx, `
		INSERT INTO client_state (client_id, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (client_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		clientID, key, value,
	)
	return err
}

func (b *postgresBackend) delete(ctx context.Context, clientID string, keys []string) error {
	_, err := b.db.Exec(ctx,
		`DELETE FROM client_state WHERE client_id = $1 AND key = ANY($2)`,
		clientID, keys,
	)
	return err
}

func (b *postgresBackend) deleteBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := b.db.Query(ctx, `DELETE FROM client_state WHERE updated_at < $1 RETURNING client_id`, cutoff)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (b *postgresBackend) ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}

func (b *postgresBackend) close() error {
	b.db.Close()
	return nil
}
