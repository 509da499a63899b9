package handler

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/paydesk/console/internal/clients"
	appmw "github.com/paydesk/console/internal/middleware"
	"github.com/paydesk/console/internal/orchestrator"
)

type envelope map[string]any

// Page is the data every view is executed with.
type Page struct {
	Title   string
	State   orchestrator.State
	Notices []orchestrator.Notice
	CSRF    template.HTML
	Tabs    []orchestrator.Tab
	Data    any
}

type BaseHandler struct {
	Logger    *slog.Logger
	Templates *template.Template
}

func (h *BaseHandler) logError(r *http.Request, err error) {
	method := r.Method
	uri := r.URL.RequestURI()

	h.Logger.Error(err.Error(), "method", method, "uri", uri)
}

func (h *BaseHandler) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	env := envelope{"error": message}

	err := h.writeJSON(w, status, env, nil)
	if err != nil {
		h.logError(r, err)
		w.WriteHeader(500)
	}
}

func (h *BaseHandler) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, err)

	message := "the server encountered a problem and could not process your request"
	h.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (h *BaseHandler) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	for k, v := range headers {
		for _, value := range v {
			w.Header().Add(k, value)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)

	if err := encoder.Encode(data); err != nil {
		return err
	}

	return nil
}

// render executes a view for the request's client. Pending notices are
// drained into the page, so each one is shown once.
func (h *BaseHandler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	p := Page{Title: title, CSRF: csrf.TemplateField(r), Tabs: orchestrator.Tabs, Data: data}
	if c := appmw.ClientFromContext(r.Context()); c != nil {
		p.State = c.Orchestrator.State()
		p.Notices = c.Notices.Drain()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.Templates.ExecuteTemplate(w, name, p); err != nil {
		h.Logger.Error("handler: template error", "template", name, "err", err)
	}
}

// client returns the request's client. Routes that use it sit behind the
// Client middleware, so a missing client is a wiring error.
func (h *BaseHandler) client(w http.ResponseWriter, r *http.Request) (*clients.Client, bool) {
	c := appmw.ClientFromContext(r.Context())
	if c == nil {
		h.serverErrorResponse(w, r, errNoClient)
		return nil, false
	}
	return c, true
}

func notify(c *clients.Client, level orchestrator.Level, msg string) {
	c.Notices.Notify(orchestrator.Notice{Level: level, Message: msg})
}
