package app

import (
	"context"
	"log/slog"
	"time"
)

type staleDeleter interface {
	DeleteStale(ctx context.Context, cutoff time.Time) ([]string, error)
}

type clientForgetter interface {
	Forget(id string)
}

// janitor periodically drops persisted client state that has not been
// written for longer than retention. Clients that lose their state are
// evicted from the registry so that no live orchestrator keeps showing a
// session whose token is gone.
type janitor struct {
	store     staleDeleter
	clients   clientForgetter
	retention time.Duration
	every     time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func newJanitor(store staleDeleter, clients clientForgetter, retention, every time.Duration, logger *slog.Logger) *janitor {
	return &janitor{store: store, clients: clients, retention: retention, every: every, logger: logger, now: time.Now}
}

// Start sweeps once immediately and then on every tick until ctx is
// cancelled.
func (j *janitor) Start(ctx context.Context) {
	ticker := time.NewTicker(j.every)
	defer ticker.Stop()

	j.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *janitor) sweep(ctx context.Context) {
	ids, err := j.store.DeleteStale(ctx, j.now().Add(-j.retention))
	if err != nil {
		if ctx.Err() == nil {
			j.logger.Warn("janitor: delete stale client state", "err", err)
		}
		return
	}
	for _, id := range ids {
		j.clients.Forget(id)
	}
	if len(ids) > 0 {
		j.logger.Info("janitor: deleted stale client state", "clients", len(ids))
	}
}
