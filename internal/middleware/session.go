package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/paydesk/console/internal/clients"
	"github.com/paydesk/console/internal/crypto"
)

const ClientCookieName = "payroll_client"

const clientIDValue = "cid"

type contextKey string

const contextKeyClient contextKey = "client"

// ClientSource returns the live client for an id.
type ClientSource interface {
	Get(ctx context.Context, id string) *clients.Client
}

// NewCookieStore returns a signed and encrypted cookie store whose keys are
// derived from secret.
func NewCookieStore(secret string, secure bool, maxAge time.Duration) (*sessions.CookieStore, error) {
	authKey, err := crypto.DeriveKey(secret, "cookie-auth")
	if err != nil {
		return nil, fmt.Errorf("derive cookie auth key: %w", err)
	}
	encKey, err := crypto.DeriveKey(secret, "cookie-encryption")
	if err != nil {
		return nil, fmt.Errorf("derive cookie encryption key: %w", err)
	}

	store := sessions.NewCookieStore(authKey, encKey)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(maxAge.Seconds()))
	return store, nil
}

// Client identifies the browser by a random id kept in a cookie, issuing one
// on first contact, and places its live client in the request context.
// A cookie that fails verification is replaced with a fresh identity.
func Client(cookies sessions.Store, source ClientSource, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := cookies.Get(r, ClientCookieName)
			if err != nil {
				logger.Debug("middleware: discarding unreadable client cookie", "err", err)
			}

			id, _ := sess.Values[clientIDValue].(string)
			if _, perr := uuid.Parse(id); perr != nil {
				id = uuid.NewString()
				sess.Values[clientIDValue] = id
			}
			// Saving on every request slides the cookie's expiry.
			if err := sess.Save(r, w); err != nil {
				logger.Error("middleware: save client cookie", "err", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			c := source.Get(r.Context(), id)
			ctx := context.WithValue(r.Context(), contextKeyClient, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientFromContext returns the client placed by the Client middleware, or
// nil outside of it.
func ClientFromContext(ctx context.Context) *clients.Client {
	c, _ := ctx.Value(contextKeyClient).(*clients.Client)
	return c
}

// WithClient returns a copy of ctx carrying c.
func WithClient(ctx context.Context, c *clients.Client) context.Context {
	return context.WithValue(ctx, contextKeyClient, c)
}
