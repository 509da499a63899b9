// Package clients keeps one orchestrator alive per browser or CLI client.
package clients

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/paydesk/console/internal/admin"
	"github.com/paydesk/console/internal/apiclient"
	"github.com/paydesk/console/internal/auth"
	"github.com/paydesk/console/internal/employee"
	"github.com/paydesk/console/internal/metrics"
	"github.com/paydesk/console/internal/orchestrator"
	"github.com/paydesk/console/internal/session"
)

// Client bundles everything that serves a single client.
type Client struct {
	ID           string
	Orchestrator *orchestrator.Orchestrator
	Admin        *admin.Gateway
	Notices      *orchestrator.NoticeQueue
}

// Scoper hands out a client's persisted session storage.
type Scoper interface {
	Scope(clientID string) session.Store
}

// Deps are shared by every client built by Build.
type Deps struct {
	BaseURL    string
	HTTPClient *http.Client
	State      Scoper
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Build wires a fresh client over its persisted session storage. The
// orchestrator is not started.
func (d Deps) Build(id string) *Client {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("client", shortID(id))

	opts := []apiclient.Option{apiclient.WithLogger(logger), apiclient.WithMetrics(d.Metrics)}
	if d.HTTPClient != nil {
		opts = append(opts, apiclient.WithHTTPClient(d.HTTPClient))
	}
	tokens := d.State.Scope(id)
	api := apiclient.New(d.BaseURL, tokens, opts...)

	notices := orchestrator.NewNoticeQueue(0)
	o := orchestrator.New(
		auth.NewManager(api, tokens, logger),
		employee.NewGateway(api),
		notices,
		orchestrator.WithLogger(logger),
		orchestrator.WithMetrics(d.Metrics),
	)
	return &Client{ID: id, Orchestrator: o, Admin: admin.NewGateway(api), Notices: notices}
}

// Registry caches started clients for ttl since their last use.
type Registry struct {
	build  func(id string) *Client
	ttl    time.Duration
	cache  *cache.Cache
	group  singleflight.Group
	logger *slog.Logger
}

func NewRegistry(build func(id string) *Client, ttl time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(id string, _ any) {
		logger.Debug("clients: evicted idle client", "client", shortID(id))
	})
	return &Registry{build: build, ttl: ttl, cache: c, logger: logger}
}

// Get returns the client for id, building and starting it on first use.
// Concurrent first requests for the same id share one startup.
func (r *Registry) Get(ctx context.Context, id string) *Client {
	if c, ok := r.lookup(id); ok {
		return c
	}

	v, _, _ := r.group.Do(id, func() (any, error) {
		if c, ok := r.lookup(id); ok {
			return c, nil
		}
		c := r.build(id)
		// Startup is shared by every waiter, so it must outlive the request
		// that happened to trigger it.
		c.Orchestrator.Start(context.WithoutCancel(ctx))
		r.cache.Set(id, c, cache.DefaultExpiration)
		r.logger.Debug("clients: started client", "client", shortID(id), "phase", c.Orchestrator.State().Phase())
		return c, nil
	})
	return v.(*Client)
}

func (r *Registry) lookup(id string) (*Client, bool) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	// Reset the idle timer.
	r.cache.Set(id, v, cache.DefaultExpiration)
	return v.(*Client), true
}

// Forget drops the live client for id. Its persisted state is untouched.
func (r *Registry) Forget(id string) {
	r.cache.Delete(id)
}

func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
