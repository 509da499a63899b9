package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/paydesk/console/internal/apiclient"
	"github.com/paydesk/console/internal/model"
	"github.com/paydesk/console/internal/session"
)

// Default messages used when the backend supplies none.
const (
	MsgLoginSucceeded        = "Signed in successfully"
	MsgLoginFailed           = "Sign in failed"
	MsgPasswordChangeFailed  = "Password change failed"
	MsgPasswordChangeSuccess = "Password changed successfully"
)

// Poster is the slice of the API client the manager needs.
type Poster interface {
	Post(ctx context.Context, path string, body, out any) error
}

// LoginResult describes a successful sign-in.
type LoginResult struct {
	Success bool
	Token   string
	Role    model.Role
	Message string
}

// Manager signs a client in and out and answers questions about its session
// from persisted storage only.
type Manager struct {
	api    Poster
	store  session.Store
	logger *slog.Logger
}

func NewManager(api Poster, store session.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{api: api, store: store, logger: logger}
}

// Login checks the credentials against the backend and persists the
// resulting token and role. The previous session, if any, is overwritten.
func (m *Manager) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var resp model.LoginResponse
	err := m.api.Post(ctx, "/login", model.LoginRequest{Email: username, Password: password}, &resp)
	if err != nil {
		return nil, withDefault(err, MsgLoginFailed)
	}
	if resp.AccessToken == "" {
		return nil, &apiclient.Error{Message: MsgLoginFailed}
	}

	role := model.RoleFromID(resp.RoleID)
	if err := m.store.Set(ctx, model.KeyAuthToken, resp.AccessToken); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}
	if err := m.store.Set(ctx, model.KeyUserRole, string(role)); err != nil {
		// A token without its role must not outlive a failed sign-in.
		if derr := m.store.Delete(ctx, model.KeyAuthToken, model.KeyUserRole); derr != nil {
			m.logger.Warn("auth: roll back token", "err", derr)
		}
		return nil, fmt.Errorf("persist role: %w", err)
	}

	m.logger.Info("auth: signed in", "role", role)
	return &LoginResult{
		Success: true,
		Token:   resp.AccessToken,
		Role:    role,
		Message: MsgLoginSucceeded,
	}, nil
}

// Logout clears the persisted token and role. Both keys are always
// attempted; clearing an anonymous session is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	var errs []error
	for _, key := range []string{model.KeyAuthToken, model.KeyUserRole} {
		if err := m.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Session returns the persisted session. A read failure reads as anonymous.
func (m *Manager) Session(ctx context.Context) model.Session {
	token, err := m.store.Get(ctx, model.KeyAuthToken)
	if err != nil {
		m.logger.Warn("auth: read token", "err", err)
		return model.Session{}
	}
	role, err := m.store.Get(ctx, model.KeyUserRole)
	if err != nil {
		m.logger.Warn("auth: read role", "err", err)
		return model.Session{}
	}
	return model.Session{Token: token, Role: model.Role(role)}
}

func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	return m.Session(ctx).Token != ""
}

// Role returns the persisted role, or "" when none is stored.
func (m *Manager) Role(ctx context.Context) model.Role {
	return m.Session(ctx).Role
}

func (m *Manager) IsAdmin(ctx context.Context) bool {
	return m.Role(ctx) == model.RoleAdmin
}

// ChangePassword fails whenever the backend reports success=false, even with
// a 2xx status.
func (m *Manager) ChangePassword(ctx context.Context, current, next string) (*model.Envelope[struct{}], error) {
	var env model.Envelope[struct{}]
	err := m.api.Post(ctx, "/auth/change-password",
		model.ChangePasswordRequest{CurrentPassword: current, NewPassword: next}, &env)
	if err != nil {
		return nil, withDefault(err, MsgPasswordChangeFailed)
	}
	if !env.Success {
		msg := env.Reason()
		if msg == "" {
			msg = MsgPasswordChangeFailed
		}
		return nil, &apiclient.Error{Message: msg}
	}
	return &env, nil
}

// withDefault keeps err when it carries a message and otherwise replaces it
// with one carrying def.
func withDefault(err error, def string) error {
	if apiclient.Message(err) != "" {
		return err
	}
	return &apiclient.Error{Message: def, Err: err}
}
