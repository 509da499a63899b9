package handler

import (
	"net/http"

	"github.com/paydesk/console/internal/orchestrator"
)

const (
	msgPasswordMismatch = "New passwords do not match"
	msgPasswordEmpty    = "Enter your current and new password"
)

// AccountHandler serves the change-password page for both roles.
type AccountHandler struct {
	*BaseHandler
}

func NewAccountHandler(base *BaseHandler) *AccountHandler {
	return &AccountHandler{BaseHandler: base}
}

func (h *AccountHandler) PasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "password.html", "Change password", nil)
}

// ChangePassword submits the change and redirects back to the form, where
// the outcome is shown as a notice.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")

	switch {
	case current == "" || next == "":
		notify(c, orchestrator.LevelError, msgPasswordEmpty)
	case next != r.FormValue("confirm_password"):
		notify(c, orchestrator.LevelError, msgPasswordMismatch)
	default:
		_ = c.Orchestrator.ChangePassword(r.Context(), current, next)
	}
	http.Redirect(w, r, "/account/password", http.StatusSeeOther)
}
