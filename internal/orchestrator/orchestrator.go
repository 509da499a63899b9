// Package orchestrator owns one client's session and dashboard state and
// sequences sign-in, the employee bulk load, sign-out and notification
// updates. It is the only place where failures from the API layer are turned
// into user-visible notices.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/paydesk/console/internal/apiclient"
	"github.com/paydesk/console/internal/auth"
	"github.com/paydesk/console/internal/metrics"
	"github.com/paydesk/console/internal/model"
	"github.com/paydesk/console/internal/settle"
)

// SessionManager signs the client in and out.
type SessionManager interface {
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
	Role(ctx context.Context) model.Role
	ChangePassword(ctx context.Context, current, next string) (*model.Envelope[struct{}], error)
}

// EmployeeGateway reads the signed-in employee's records.
type EmployeeGateway interface {
	GetProfile(ctx context.Context) (*model.Envelope[model.Employee], error)
	GetSalary(ctx context.Context) (*model.Envelope[model.Salary], error)
	GetPaymentHistory(ctx context.Context) (*model.Envelope[[]model.PaymentRecord], error)
	GetNotifications(ctx context.Context) (*model.Envelope[[]model.Notification], error)
	MarkNotificationAsRead(ctx context.Context, id string) error
	MarkAllNotificationsAsRead(ctx context.Context) error
}

// ErrSessionChanged reports a sign-in that was overtaken by a sign-out or
// another sign-in before it could commit.
var ErrSessionChanged = errors.New("orchestrator: session changed during sign-in")

type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// Orchestrator is safe for concurrent use. State is guarded by mu; network
// calls are made without holding it.
type Orchestrator struct {
	sessions SessionManager
	gateway  EmployeeGateway
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu      sync.Mutex
	state   State
	started bool
	// epoch changes on every sign-in and sign-out. Work begun under an older
	// epoch must not commit.
	epoch uint64
}

func New(sessions SessionManager, gateway EmployeeGateway, notifier Notifier, opts ...Option) *Orchestrator {
	if notifier == nil {
		notifier = NotifierFunc(func(Notice) {})
	}
	o := &Orchestrator{
		sessions: sessions,
		gateway:  gateway,
		notifier: notifier,
		logger:   slog.Default(),
		state:    initialState(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns a copy of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Start restores a persisted session. A restored user session is bulk
// loaded before Start returns; an admin session makes no network call. Only
// the first call does anything.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return
	}
	o.started = true
	epoch := o.epoch
	o.mu.Unlock()

	if o.sessions.IsAuthenticated(ctx) {
		role := o.sessions.Role(ctx)
		o.mu.Lock()
		if o.epoch == epoch {
			o.state = restore(o.state, role)
		}
		o.mu.Unlock()

		o.logger.Debug("orchestrator: restored session", "role", role)
		if role == model.RoleUser {
			o.load(ctx, epoch)
		}
	}

	o.finishLoading(epoch)
}

// LoadEmployeeData runs the bulk load for the current session.
func (o *Orchestrator) LoadEmployeeData(ctx context.Context) {
	o.mu.Lock()
	epoch := o.epoch
	o.state.Loading = true
	o.mu.Unlock()

	o.load(ctx, epoch)
	o.finishLoading(epoch)
}

// load issues the four reads concurrently, waits for all of them and
// commits whatever succeeded, unless the session changed in the meantime.
func (o *Orchestrator) load(ctx context.Context, epoch uint64) {
	var g settle.Group
	profile := settle.Go(&g, ctx, o.gateway.GetProfile)
	salary := settle.Go(&g, ctx, o.gateway.GetSalary)
	history := settle.Go(&g, ctx, o.gateway.GetPaymentHistory)
	notifications := settle.Go(&g, ctx, o.gateway.GetNotifications)
	g.Wait()

	b := BulkLoad{
		Profile:       *profile,
		Salary:        *salary,
		History:       *history,
		Notifications: *notifications,
	}
	o.observeBulk(b)

	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		o.logger.Debug("orchestrator: discarded bulk load from a previous session")
		return
	}
	var notices []Notice
	o.state, notices = applyBulkLoad(o.state, b)
	o.mu.Unlock()

	o.emit(notices)
}

func (o *Orchestrator) finishLoading(epoch uint64) {
	o.mu.Lock()
	if o.epoch == epoch {
		o.state.Loading = false
	}
	o.mu.Unlock()
}

// Login signs the client in. An admin lands on the console straight away; a
// user's data is bulk loaded before Login returns. On failure the client
// stays as it was and the error is returned after a notice is emitted. A
// sign-out that lands while the credentials are being checked wins: the
// persisted session is cleared again and ErrSessionChanged is returned.
func (o *Orchestrator) Login(ctx context.Context, username, password string) error {
	o.mu.Lock()
	epoch := o.epoch
	o.state.Loading = true
	o.mu.Unlock()

	res, err := o.sessions.Login(ctx, username, password)
	if err != nil {
		o.metrics.ObserveLogin(false, "")
		o.logger.Info("orchestrator: sign in failed", "err", err)

		o.mu.Lock()
		var notices []Notice
		o.state, notices = loginFailed(o.state, err)
		o.mu.Unlock()
		o.finishLoading(epoch)
		o.emit(notices)
		return err
	}
	o.metrics.ObserveLogin(true, string(res.Role))

	o.mu.Lock()
	if o.epoch != epoch {
		signedOut := !o.state.LoggedIn
		o.mu.Unlock()
		o.logger.Debug("orchestrator: discarded sign-in overtaken by a session change")
		if signedOut {
			if err := o.sessions.Logout(ctx); err != nil {
				o.logger.Warn("orchestrator: clear session", "err", err)
			}
		}
		return ErrSessionChanged
	}
	o.epoch++
	epoch = o.epoch
	var notices []Notice
	o.state, notices = loggedIn(o.state, res)
	o.mu.Unlock()
	o.emit(notices)

	if res.Role == model.RoleUser {
		o.load(ctx, epoch)
	}
	o.finishLoading(epoch)
	return nil
}

// Logout always leaves the client anonymous, whatever the session manager
// reports.
func (o *Orchestrator) Logout(ctx context.Context) {
	if err := o.sessions.Logout(ctx); err != nil {
		o.logger.Warn("orchestrator: clear session", "err", err)
	}

	o.mu.Lock()
	o.epoch++
	var notices []Notice
	o.state, notices = loggedOut(o.state)
	o.mu.Unlock()
	o.emit(notices)
}

// MarkNotificationRead flags one notification. Failures are logged and
// otherwise ignored: the local entry keeps its flag and no notice is shown.
func (o *Orchestrator) MarkNotificationRead(ctx context.Context, id string) {
	if err := o.gateway.MarkNotificationAsRead(ctx, id); err != nil {
		o.logger.Debug("orchestrator: mark notification read", "id", id, "err", err)
		return
	}
	o.mu.Lock()
	o.state = markRead(o.state, id)
	o.mu.Unlock()
}

// MarkAllNotificationsRead flags every local notification once the backend
// accepted the change, and leaves them untouched otherwise.
func (o *Orchestrator) MarkAllNotificationsRead(ctx context.Context) error {
	if err := o.gateway.MarkAllNotificationsAsRead(ctx); err != nil {
		o.logger.Info("orchestrator: mark all notifications read", "err", err)
		o.emit([]Notice{failure(MsgAllReadFailed)})
		return err
	}
	o.mu.Lock()
	var notices []Notice
	o.state, notices = markAllRead(o.state)
	o.mu.Unlock()
	o.emit(notices)
	return nil
}

func (o *Orchestrator) ChangePassword(ctx context.Context, current, next string) error {
	env, err := o.sessions.ChangePassword(ctx, current, next)
	if err != nil {
		msg := apiclient.Message(err)
		if msg == "" {
			msg = auth.MsgPasswordChangeFailed
		}
		o.emit([]Notice{failure(msg)})
		return err
	}
	msg := env.Reason()
	if msg == "" {
		msg = auth.MsgPasswordChangeSuccess
	}
	o.emit([]Notice{success(msg)})
	return nil
}

// SetAdminTab switches the admin console section.
func (o *Orchestrator) SetAdminTab(name string) error {
	tab, err := ParseTab(name)
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.state.AdminTab = tab
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) emit(notices []Notice) {
	for _, n := range notices {
		o.notifier.Notify(n)
	}
}

func (o *Orchestrator) observeBulk(b BulkLoad) {
	o.metrics.ObserveSlot("profile", outcome(b.Profile))
	o.metrics.ObserveSlot("salary", outcome(b.Salary))
	o.metrics.ObserveSlot("payment_history", outcome(b.History))
	o.metrics.ObserveSlot("notifications", outcome(b.Notifications))
}

type envelope interface {
	OK() bool
}

func outcome[E envelope](r settle.Result[E]) string {
	switch {
	case r.Err != nil:
		return metrics.OutcomeFailed
	case r.Value.OK():
		return metrics.OutcomeCommitted
	default:
		return metrics.OutcomeEmpty
	}
}
