package app

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/paydesk/console/internal/admin"
	"github.com/paydesk/console/internal/apiclient"
	"github.com/paydesk/console/internal/clients"
	"github.com/paydesk/console/internal/config"
	"github.com/paydesk/console/internal/crypto"
	"github.com/paydesk/console/internal/metrics"
	"github.com/paydesk/console/internal/middleware"
	"github.com/paydesk/console/internal/store"
	"github.com/paydesk/console/internal/web"
)

// stateRetention is how long a client's persisted session outlives its last
// write, and the lifetime of the identity cookie.
const stateRetention = 30 * 24 * time.Hour

type App struct {
	config    *config.Config
	logger    *slog.Logger
	state     *store.SessionStore
	clients   *clients.Registry
	cookies   *sessions.CookieStore
	csrfKey   []byte
	registry  *prometheus.Registry
	templates *template.Template
	backend   *admin.Gateway
}

func (app *App) Close() {
	if err := app.state.Close(); err != nil {
		app.logger.Warn("app: close state store", "err", err)
	}
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := newLogger(cfg)

	stateKey, err := crypto.DeriveKey(cfg.SessionSecret, "client-state")
	if err != nil {
		return nil, fmt.Errorf("derive state key: %w", err)
	}
	crypter, err := crypto.New(stateKey)
	if err != nil {
		return nil, fmt.Errorf("state crypter: %w", err)
	}
	state, err := store.Open(ctx, cfg.StateDatabaseURL, crypter, logger)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	csrfKey, err := crypto.DeriveKey(cfg.SessionSecret, "csrf")
	if err != nil {
		state.Close()
		return nil, fmt.Errorf("derive csrf key: %w", err)
	}
	cookies, err := middleware.NewCookieStore(cfg.SessionSecret, cfg.SecureCookies, stateRetention)
	if err != nil {
		state.Close()
		return nil, err
	}
	tmpl, err := web.Templates(cfg.Currency)
	if err != nil {
		state.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	httpClient := &http.Client{Timeout: cfg.APITimeout}
	deps := clients.Deps{
		BaseURL:    cfg.APIURL,
		HTTPClient: httpClient,
		State:      state,
		Logger:     logger,
		Metrics:    m,
	}
	probe := apiclient.New(cfg.APIURL, nil,
		apiclient.WithHTTPClient(httpClient), apiclient.WithLogger(logger), apiclient.WithMetrics(m))

	return &App{
		config:    cfg,
		logger:    logger,
		state:     state,
		clients:   clients.NewRegistry(deps.Build, cfg.ClientTTL, logger),
		cookies:   cookies,
		csrfKey:   csrfKey,
		registry:  reg,
		templates: tmpl,
		backend:   admin.NewGateway(probe),
	}, nil
}

func (app *App) Start(ctx context.Context) error {
	// Create an errgroup derived from the parent context
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", app.config.Port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}

	g.Go(func() error {
		app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env, "api", app.config.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		newJanitor(app.state, app.clients, stateRetention, time.Hour, app.logger).Start(gctx)
		return nil
	})

	// Start shutdown listener
	g.Go(func() error {
		<-gctx.Done() // Wait for OS signal or parent context to fail

		app.logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	app.logger.Info("stopped server")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	logLevel := slog.LevelInfo

	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	slog.SetDefault(logger)
	return logger
}
