package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// DashboardHandler serves the employee's self-service view.
type DashboardHandler struct {
	*BaseHandler
}

func NewDashboardHandler(base *BaseHandler) *DashboardHandler {
	return &DashboardHandler{BaseHandler: base}
}

// Page renders whatever the last bulk load committed. Slots that failed to
// load render as empty sections.
func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "dashboard.html", "Dashboard", nil)
}

// Refresh reloads the four dashboard slots.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	c.Orchestrator.LoadEmployeeData(r.Context())
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// MarkRead flags one notification. A failure leaves the entry unread and
// shows nothing.
func (h *DashboardHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	c.Orchestrator.MarkNotificationRead(r.Context(), chi.URLParam(r, "id"))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// MarkAllRead flags every notification. The outcome is reported as a notice.
func (h *DashboardHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	_ = c.Orchestrator.MarkAllNotificationsRead(r.Context())
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}
