package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/paydesk/console/internal/store/migrations"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

type sqliteBackend struct {
	db *sql.DB
}

func openSQLite(ctx context.Context, dsn string) (*sqliteBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := migrateSQLite(db); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// One writer at a time prevents SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return &sqliteBackend{db: db}, nil
}

func migrateSQLite(db *sql.DB) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	return m.Up()
}

func (b *sqliteBackend) get(ctx context.Context, clientID, key string) (string, error) {
	var v string
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM client_state WHERE client_id = ? AND key = ?`,
		clientID, key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

func (b *sqliteBackend) set(ctx context.Context, clientID, key, value string) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO client_state (client_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (client_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		clientID, key, value, time.Now().UTC().Format(sqliteTimeLayout),
	)
	return err
}

func (b *sqliteBackend) delete(ctx context.Context, clientID string, keys []string) error {
	args := make([]any, 0, len(keys)+1)
	args = append(args, clientID)
	for _, k := range keys {
		args = append(args, k)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM client_state WHERE client_id = ? AND key IN (`+placeholders+`)`,
		args...,
	)
	return err
}

func (b *sqliteBackend) deleteBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := b.db.QueryContext(ctx,
		`DELETE FROM client_state WHERE updated_at < ? RETURNING client_id`,
		cutoff.Format(sqliteTimeLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (b *sqliteBackend) ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *sqliteBackend) close() error {
	return b.db.Close()
}
