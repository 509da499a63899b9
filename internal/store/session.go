package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/paydesk/console/internal/crypto"
	"github.com/paydesk/console/internal/session"
)

var ErrNotFound = errors.New("store: not found")

// backend is the dialect-specific half of SessionStore.
type backend interface {
	get(ctx context.Context, clientID, key string) (string, error)
	set(ctx context.Context, clientID, key, value string) error
	delete(ctx context.Context, clientID string, keys []string) error
	deleteBefore(ctx context.Context, cutoff time.Time) ([]string, error)
	ping(ctx context.Context) error
	close() error
}

// SessionStore persists every client's session values (token and role) so
// they survive page reloads and front-end restarts. Values are sealed with
// the Crypter when one is configured.
type SessionStore struct {
	b       backend
	crypter *crypto.Crypter
	logger  *slog.Logger
}

// Open connects to dsn and applies pending migrations. postgres:// and
// postgresql:// DSNs select PostgreSQL; anything else is a SQLite DSN.
func Open(ctx context.Context, dsn string, crypter *crypto.Crypter, logger *slog.Logger) (*SessionStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		b   backend
		err error
	)
	if IsPostgresDSN(dsn) {
		b, err = openPostgres(ctx, dsn)
	} else {
		b, err = openSQLite(ctx, dsn)
	}
	if err != nil {
		return nil, err
	}
	return &SessionStore{b: b, crypter: crypter, logger: logger}, nil
}

// IsPostgresDSN reports whether dsn addresses a PostgreSQL server.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Scope returns the session.Store view of a single client's values.
func (s *SessionStore) Scope(clientID string) session.Store {
	return &scoped{s: s, clientID: clientID}
}

// DeleteStale removes values not written since cutoff and returns the ids of
// the clients that lost any, each once and sorted.
func (s *SessionStore) DeleteStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	ids, err := s.b.deleteBefore(ctx, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("delete stale client state: %w", err)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if len(ids) > 0 {
		s.logger.Info("store: removed stale client state", "clients", len(ids))
	}
	return ids, nil
}

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.b.ping(ctx)
}

func (s *SessionStore) Close() error {
	return s.b.close()
}

func (s *SessionStore) seal(v string) (string, error) {
	if s.crypter == nil {
		return v, nil
	}
	return s.crypter.EncryptString(v)
}

func (s *SessionStore) open(v string) (string, error) {
	if s.crypter == nil {
		return v, nil
	}
	return s.crypter.DecryptString(v)
}

type scoped struct {
	s        *SessionStore
	clientID string
}

func (c *scoped) Get(ctx context.Context, key string) (string, error) {
	raw, err := c.s.b.get(ctx, c.clientID, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	v, err := c.s.open(raw)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", key, err)
	}
	return v, nil
}

func (c *scoped) Set(ctx context.Context, key, value string) error {
	sealed, err := c.s.seal(value)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	if err := c.s.b.set(ctx, c.clientID, key, sealed); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (c *scoped) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.s.b.delete(ctx, c.clientID, keys); err != nil {
		return fmt.Errorf("delete %s: %w", strings.Join(keys, ","), err)
	}
	return nil
}
