package middleware

import (
	"net/http"

	"github.com/paydesk/console/internal/model"
)

// RequireRole allows only signed-in clients with the given role. Anonymous
// clients are redirected to /login; any other role gets 403 Forbidden. A
// client with an unrecognised role counts as a user. The check reads the
// role, not the phase, so a client mid-load is not turned away.
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := ClientFromContext(r.Context())
			if c == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			st := c.Orchestrator.State()
			switch {
			case !st.LoggedIn:
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			case role == model.RoleAdmin && st.Role != model.RoleAdmin,
				role == model.RoleUser && st.Role == model.RoleAdmin:
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin allows only administrators.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)
}

// RequireSignedIn allows any signed-in client.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := ClientFromContext(r.Context())
		if c == nil || !c.Orchestrator.State().LoggedIn {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
