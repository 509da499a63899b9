package handler

import (
	"context"
	"net/http"

	"github.com/paydesk/console/internal/apiclient"
	"github.com/paydesk/console/internal/model"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type backendProbe interface {
	Health(ctx context.Context) (*model.BackendHealth, error)
}

type healthReport struct {
	Status     string `json:"status"`
	StateStore string `json:"state_store"`
	Backend    string `json:"backend"`
	Detail     string `json:"detail,omitempty"`
}

// Health reports on the state store and the payroll backend. Either one
// failing answers 503.
func Health(base *BaseHandler, db pinger, backend backendProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := healthReport{Status: "ok", StateStore: "ok", Backend: "ok"}
		code := http.StatusOK

		if err := db.Ping(r.Context()); err != nil {
			base.Logger.Warn("health: state store ping", "err", err)
			report.Status, report.StateStore = "degraded", "unavailable"
			code = http.StatusServiceUnavailable
		}

		bh, err := backend.Health(r.Context())
		switch {
		case err != nil:
			report.Status, report.Backend = "degraded", "unreachable"
			report.Detail = apiclient.Message(err)
			code = http.StatusServiceUnavailable
		case !bh.Healthy():
			report.Status, report.Backend = "degraded", bh.Status
			report.Detail = bh.Error
			code = http.StatusServiceUnavailable
		}

		if err := base.writeJSON(w, code, report, nil); err != nil {
			base.logError(r, err)
		}
	}
}
