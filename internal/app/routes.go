package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/paydesk/console/internal/handler"
	"github.com/paydesk/console/internal/middleware"
	"github.com/paydesk/console/internal/model"
	"github.com/paydesk/console/internal/web"
)

func (app *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS)))

	base := &handler.BaseHandler{Logger: app.logger, Templates: app.templates}

	r.Get("/healthz", handler.Health(base, app.state, app.backend))
	r.Handle(app.config.MetricsPath, promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(app.csrfProtect())
		r.Use(middleware.Client(app.cookies, app.clients, app.logger))

		authHandler := handler.NewAuthHandler(base)
		r.Get("/", authHandler.Home)
		r.Get("/login", authHandler.LoginPage)
		r.With(middleware.RateLimit(middleware.PerMinute(app.config.LoginRatePerMinute))).
			Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSignedIn)

			accountHandler := handler.NewAccountHandler(base)
			r.Get("/account/password", accountHandler.PasswordPage)
			r.Post("/account/password", accountHandler.ChangePassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleUser))

			dashboardHandler := handler.NewDashboardHandler(base)
			r.Get("/dashboard", dashboardHandler.Page)
			r.Post("/dashboard/refresh", dashboardHandler.Refresh)
			r.Post("/dashboard/notifications/read-all", dashboardHandler.MarkAllRead)
			r.Post("/dashboard/notifications/{id}/read", dashboardHandler.MarkRead)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())

			adminHandler := handler.NewAdminHandler(base, app.config.Currency)
			r.Get("/admin", adminHandler.Page)
			r.Post("/admin/employees", adminHandler.CreateEmployee)
			r.Post("/admin/employees/{id}", adminHandler.UpdateEmployee)
			r.Post("/admin/employees/{id}/delete", adminHandler.DeleteEmployee)
			r.Post("/admin/payroll/calculate", adminHandler.CalculatePayroll)
			r.Get("/admin/payroll/payslip/{id}/{month}", adminHandler.Payslip)
			r.Get("/admin/{tab}", adminHandler.Page)
		})
	})
	return r
}

// csrfProtect guards every form post. Outside production the front-end is
// served over plain HTTP, which gorilla/csrf must be told about.
func (app *App) csrfProtect() func(http.Handler) http.Handler {
	protect := csrf.Protect(app.csrfKey,
		csrf.Path("/"),
		csrf.Secure(app.config.SecureCookies),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(app.config.Cors.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			app.logger.Warn("csrf: rejected request", "uri", r.URL.RequestURI(), "reason", csrf.FailureReason(r))
			http.Error(w, "Forbidden", http.StatusForbidden)
		})),
	)
	return func(next http.Handler) http.Handler {
		h := protect(next)
		if app.config.SecureCookies {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
