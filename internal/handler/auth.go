package handler

import (
	"errors"
	"net/http"

	"github.com/paydesk/console/internal/model"
)

var errNoClient = errors.New("handler: request has no client")

// AuthHandler handles sign-in, sign-out and the landing redirect.
type AuthHandler struct {
	*BaseHandler
}

func NewAuthHandler(base *BaseHandler) *AuthHandler {
	return &AuthHandler{BaseHandler: base}
}

// Home sends the client to the view that matches its session.
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	st := c.Orchestrator.State()
	http.Redirect(w, r, landing(st.LoggedIn, st.Role), http.StatusSeeOther)
}

func landing(loggedIn bool, role model.Role) string {
	switch {
	case !loggedIn:
		return "/login"
	case role == model.RoleAdmin:
		return "/admin"
	default:
		return "/dashboard"
	}
}

// LoginPage renders the sign-in form, or skips it for a signed-in client.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if st := c.Orchestrator.State(); st.LoggedIn {
		http.Redirect(w, r, landing(true, st.Role), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login.html", "Sign in", "")
}

// Login signs the client in. A rejected attempt re-renders the form with the
// email kept and the failure notice shown.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	email := r.FormValue("email")
	password := r.FormValue("password")

	if err := c.Orchestrator.Login(r.Context(), email, password); err != nil {
		h.render(w, r, http.StatusUnauthorized, "login.html", "Sign in", email)
		return
	}
	st := c.Orchestrator.State()
	http.Redirect(w, r, landing(st.LoggedIn, st.Role), http.StatusSeeOther)
}

// Logout signs the client out. It never fails from the client's view.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	c.Orchestrator.Logout(r.Context())
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
