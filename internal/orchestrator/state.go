package orchestrator

import (
	"errors"
	"slices"

	"github.com/paydesk/console/internal/apiclient"
	"github.com/paydesk/console/internal/auth"
	"github.com/paydesk/console/internal/model"
	"github.com/paydesk/console/internal/settle"
)

type Phase string

const (
	PhaseAnonymous Phase = "ANONYMOUS"
	PhaseLoading   Phase = "LOADING"
	PhaseAdmin     Phase = "AUTHENTICATED_ADMIN"
	PhaseUser      Phase = "AUTHENTICATED_USER"
)

// Tab is a section of the admin console.
type Tab string

const (
	TabDashboard   Tab = "dashboard"
	TabEmployees   Tab = "employees"
	TabDepartments Tab = "departments"
	TabPayroll     Tab = "payroll"
)

// Tabs lists the admin console sections in display order.
var Tabs = []Tab{TabDashboard, TabEmployees, TabDepartments, TabPayroll}

var ErrUnknownTab = errors.New("orchestrator: unknown admin tab")

func ParseTab(s string) (Tab, error) {
	t := Tab(s)
	if slices.Contains(Tabs, t) {
		return t, nil
	}
	return "", ErrUnknownTab
}

// State is everything the presentation layer renders.
type State struct {
	LoggedIn       bool
	Role           model.Role
	Loading        bool
	Employee       *model.Employee
	Salary         *model.Salary
	PaymentHistory []model.PaymentRecord
	Notifications  []model.Notification
	AdminTab       Tab
}

func initialState() State {
	return State{Loading: true, AdminTab: TabDashboard}
}

// Phase collapses the state onto the four rendering phases. A signed-in
// client with a role other than admin renders as a user.
func (s State) Phase() Phase {
	switch {
	case !s.LoggedIn:
		return PhaseAnonymous
	case s.Loading:
		return PhaseLoading
	case s.Role == model.RoleAdmin:
		return PhaseAdmin
	default:
		return PhaseUser
	}
}

func (s State) UnreadCount() int {
	return model.UnreadCount(s.Notifications)
}

func (s State) clone() State {
	out := s
	if s.Employee != nil {
		e := *s.Employee
		out.Employee = &e
	}
	if s.Salary != nil {
		v := *s.Salary
		out.Salary = &v
	}
	out.PaymentHistory = slices.Clone(s.PaymentHistory)
	out.Notifications = slices.Clone(s.Notifications)
	return out
}

// Messages shown to the user.
const (
	MsgProfileUnavailable = "Could not load profile information. Check that the employee_id in the users table matches an employee record."
	MsgProfileFailed      = "Failed to load profile information. Check the employee_id in the users table."
	MsgLoginInvalid       = "Invalid username or password"
	MsgSignedOut          = "Signed out"
	MsgAllRead            = "All notifications marked as read"
	MsgAllReadFailed      = "Could not update notifications"
)

// restore re-enters a persisted session.
func restore(s State, role model.Role) State {
	s.LoggedIn = true
	s.Role = role
	return s
}

// loggedIn replaces whatever the client showed before with a fresh session.
func loggedIn(s State, res *auth.LoginResult) (State, []Notice) {
	out, _ := loggedOut(s)
	out.LoggedIn = true
	out.Role = res.Role
	out.Loading = s.Loading
	msg := res.Message
	if msg == "" {
		msg = auth.MsgLoginSucceeded
	}
	return out, []Notice{success(msg)}
}

// loginFailed leaves the client anonymous.
func loginFailed(s State, err error) (State, []Notice) {
	msg := apiclient.Message(err)
	if msg == "" {
		msg = MsgLoginInvalid
	}
	return s, []Notice{failure(msg)}
}

// loggedOut empties every session-derived slot.
func loggedOut(State) (State, []Notice) {
	return State{AdminTab: TabDashboard}, []Notice{info(MsgSignedOut)}
}

// BulkLoad holds the four settled reads of a bulk load.
type BulkLoad struct {
	Profile       settle.Result[*model.Envelope[model.Employee]]
	Salary        settle.Result[*model.Envelope[model.Salary]]
	History       settle.Result[*model.Envelope[[]model.PaymentRecord]]
	Notifications settle.Result[*model.Envelope[[]model.Notification]]
}

// applyBulkLoad commits every slot that produced data and leaves the others
// untouched. Only the profile slot reports problems to the user.
func applyBulkLoad(s State, b BulkLoad) (State, []Notice) {
	var notices []Notice

	switch {
	case b.Profile.Err != nil:
		msg := apiclient.Message(b.Profile.Err)
		if msg == "" {
			msg = MsgProfileFailed
		}
		notices = append(notices, failure(msg))
	case b.Profile.Value.OK():
		e := *b.Profile.Value.Data
		s.Employee = &e
	default:
		msg := b.Profile.Value.Reason()
		if msg == "" {
			msg = MsgProfileUnavailable
		}
		notices = append(notices, failure(msg))
	}

	if b.Salary.Err == nil && b.Salary.Value.OK() {
		v := *b.Salary.Value.Data
		s.Salary = &v
	}
	if b.History.Err == nil && b.History.Value.OK() {
		s.PaymentHistory = slices.Clone(*b.History.Value.Data)
	}
	if b.Notifications.Err == nil && b.Notifications.Value.OK() {
		s.Notifications = slices.Clone(*b.Notifications.Value.Data)
	}
	return s, notices
}

// markRead flags the notification with the given id and no other.
func markRead(s State, id string) State {
	s.Notifications = slices.Clone(s.Notifications)
	for i := range s.Notifications {
		if s.Notifications[i].ID == id {
			s.Notifications[i].IsRead = true
		}
	}
	return s
}

func markAllRead(s State) (State, []Notice) {
	s.Notifications = slices.Clone(s.Notifications)
	for i := range s.Notifications {
		s.Notifications[i].IsRead = true
	}
	return s, []Notice{success(MsgAllRead)}
}
