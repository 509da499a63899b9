package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/console/internal/config"
	"github.com/paydesk/console/internal/fakeapi"
	"github.com/paydesk/console/internal/model"
)

var csrfField = regexp.MustCompile(`name="gorilla\.csrf\.Token" value="([^"]+)"`)

type testEnv struct {
	fake    *fakeapi.Server
	srv     *httptest.Server
	browser *http.Client
}

func newTestConfig(t *testing.T, apiURL string) *config.Config {
	return &config.Config{
		Port:               "0",
		Env:                "production",
		APIURL:             apiURL,
		StateDatabaseURL:   "file:" + filepath.Join(t.TempDir(), "state.db"),
		ClientTTL:          time.Hour,
		SessionSecret:      "test-secret-0123456789",
		LoginRatePerMinute: 100,
		MetricsPath:        "/metrics",
		Currency:           "USD",
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fake := fakeapi.New()
	backend := httptest.NewServer(fake.Handler())
	t.Cleanup(backend.Close)

	app, err := New(context.Background(), newTestConfig(t, backend.URL))
	require.NoError(t, err)
	t.Cleanup(app.Close)

	srv := httptest.NewServer(app.routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{fake: fake, srv: srv, browser: &http.Client{Jar: jar}}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	res, err := e.browser.Get(e.srv.URL + path)
	require.NoError(t, err)
	return res, readBody(t, res)
}

// post submits a form carrying a CSRF token taken from a freshly rendered
// page.
func (e *testEnv) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("gorilla.csrf.Token", e.token(t))
	res, err := e.browser.PostForm(e.srv.URL+path, form)
	require.NoError(t, err)
	return res, readBody(t, res)
}

func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	_, body := e.get(t, "/account/password")
	m := csrfField.FindStringSubmatch(body)
	if m == nil {
		_, body = e.get(t, "/login")
		m = csrfField.FindStringSubmatch(body)
	}
	require.NotNil(t, m, "no csrf field rendered")
	return m[1]
}

func (e *testEnv) signIn(t *testing.T, email, password string) (*http.Response, string) {
	t.Helper()
	return e.post(t, "/login", url.Values{"email": {email}, "password": {password}})
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

func TestAnonymousIsSentToLogin(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/", "/dashboard", "/admin", "/account/password"} {
		t.Run(path, func(t *testing.T) {
			res, body := e.get(t, path)
			assert.Equal(t, http.StatusOK, res.StatusCode)
			assert.Equal(t, "/login", res.Request.URL.Path)
			assert.Contains(t, body, "Sign in")
		})
	}
}

func TestUserJourney(t *testing.T) {
	e := newTestEnv(t)

	res, body := e.signIn(t, fakeapi.UserEmail, fakeapi.UserPassword)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "/dashboard", res.Request.URL.Path)
	assert.Contains(t, body, "Signed in successfully")
	assert.Contains(t, body, "Nguyen Van An")
	assert.Contains(t, body, "$15,425,000.00")
	assert.Contains(t, body, "Mark all as read")

	res, body = e.post(t, "/dashboard/notifications/n1/read", nil)
	assert.Equal(t, "/dashboard", res.Request.URL.Path)
	assert.NotContains(t, body, "Mark all as read")
	assert.Equal(t, 0, model.UnreadCount(e.fake.Notifications(fakeapi.UserEmployee)))

	res, _ = e.get(t, "/admin")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body = e.post(t, "/logout", nil)
	assert.Equal(t, "/login", res.Request.URL.Path)
	assert.Contains(t, body, "Signed out")

	res, _ = e.get(t, "/dashboard")
	assert.Equal(t, "/login", res.Request.URL.Path)
}

func TestLoginRejected(t *testing.T) {
	e := newTestEnv(t)

	res, body := e.signIn(t, fakeapi.UserEmail, "wrong")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Contains(t, body, "Incorrect email or password")
	assert.Contains(t, body, fakeapi.UserEmail, "email is kept in the form")
}

func TestDashboard_PartialFailure(t *testing.T) {
	e := newTestEnv(t)
	e.fake.Fail("GET /employee/salary", http.StatusInternalServerError)

	res, body := e.signIn(t, fakeapi.UserEmail, fakeapi.UserPassword)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Nguyen Van An")
	assert.Contains(t, body, "No salary data.")
	assert.Contains(t, body, "Payslip available")
}

func TestAdminConsole(t *testing.T) {
	e := newTestEnv(t)

	res, body := e.signIn(t, fakeapi.AdminEmail, fakeapi.AdminPassword)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "/admin", res.Request.URL.Path)
	assert.Contains(t, body, "healthy")
	assert.Equal(t, 0, e.fake.Calls("GET /employee/profile"), "administrators skip the bulk load")

	res, body = e.post(t, "/admin/employees", url.Values{
		"full_name":   {"Tran Thi Binh"},
		"email":       {"binh@example.com"},
		"position_id": {"2"},
	})
	assert.Equal(t, "/admin/employees", res.Request.URL.Path)
	assert.Contains(t, body, "Employee created")
	assert.Contains(t, body, "Tran Thi Binh")

	_, body = e.post(t, "/admin/payroll/calculate", url.Values{"employee_id": {"2"}, "month": {"2024-05-01"}})
	assert.Contains(t, body, "Payroll calculated")
	assert.Contains(t, body, "Tran Thi Binh")

	res, body = e.get(t, "/admin/payroll/payslip/2/2024-05-01")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "Payslip")

	res, _ = e.get(t, "/admin/payroll/payslip/2/2023-01-01")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = e.get(t, "/admin/reports")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	_, body = e.get(t, "/admin/departments")
	assert.Contains(t, body, "Department 1")

	_, body = e.post(t, "/admin/employees/2/delete", url.Values{})
	assert.Contains(t, body, "Deleted employee 2")

	res, _ = e.get(t, "/dashboard")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestChangePassword(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t, fakeapi.UserEmail, fakeapi.UserPassword)

	_, body := e.post(t, "/account/password", url.Values{
		"current_password": {fakeapi.UserPassword},
		"new_password":     {"brand-new"},
		"confirm_password": {"different"},
	})
	assert.Contains(t, body, "New passwords do not match")

	_, body = e.post(t, "/account/password", url.Values{
		"current_password": {fakeapi.UserPassword},
		"new_password":     {"brand-new"},
		"confirm_password": {"brand-new"},
	})
	assert.Contains(t, body, "Password changed successfully")
}

func TestSessionSurvivesRestart(t *testing.T) {
	fake := fakeapi.New()
	backend := httptest.NewServer(fake.Handler())
	t.Cleanup(backend.Close)
	cfg := newTestConfig(t, backend.URL)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	serve := func() *testEnv {
		app, err := New(context.Background(), cfg)
		require.NoError(t, err)
		t.Cleanup(app.Close)
		srv := httptest.NewServer(app.routes())
		t.Cleanup(srv.Close)
		return &testEnv{fake: fake, srv: srv, browser: &http.Client{Jar: jar}}
	}

	first := serve()
	first.signIn(t, fakeapi.UserEmail, fakeapi.UserPassword)

	// Cookies are not port-specific, so the jar presents the same identity
	// to the second server.
	second := serve()

	res, body := second.get(t, "/")
	assert.Equal(t, "/dashboard", res.Request.URL.Path)
	assert.Contains(t, body, "Nguyen Van An")
}

func TestCSRFRequired(t *testing.T) {
	e := newTestEnv(t)
	e.get(t, "/login")

	res, err := e.browser.PostForm(e.srv.URL+"/login", url.Values{
		"email":    {fakeapi.UserEmail},
		"password": {fakeapi.UserPassword},
	})
	require.NoError(t, err)
	readBody(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, 0, e.fake.Calls("POST /login"))
}

func TestHealthz(t *testing.T) {
	e := newTestEnv(t)

	res, body := e.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, "ok", got["status"])

	e.fake.Fail("GET /health", http.StatusBadGateway)
	res, body = e.get(t, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
	assert.Contains(t, body, "unreachable")
}

func TestMetrics(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t, fakeapi.UserEmail, fakeapi.UserPassword)

	_, body := e.get(t, "/metrics")
	assert.Contains(t, body, `payroll_console_logins_total{result="success",role="user"} 1`)
	assert.Contains(t, body, `payroll_console_bulk_load_slots_total{outcome="committed",slot="profile"} 1`)
}

func TestSecurityHeadersOnPages(t *testing.T) {
	e := newTestEnv(t)
	res, _ := e.get(t, "/login")
	assert.Equal(t, "DENY", res.Header.Get("X-Frame-Options"))
}

type fakeStale struct {
	cutoffs []time.Time
	ids     []string
}

func (f *fakeStale) DeleteStale(_ context.Context, cutoff time.Time) ([]string, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.ids, nil
}

type fakeForgetter struct {
	forgotten []string
}

func (f *fakeForgetter) Forget(id string) {
	f.forgotten = append(f.forgotten, id)
}

func TestJanitor_SweepsOnStart(t *testing.T) {
	store := &fakeStale{ids: []string{"a", "b"}}
	clients := &fakeForgetter{}
	j := newJanitor(store, clients, time.Hour, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j.Start(ctx)

	require.Len(t, store.cutoffs, 1)
	assert.Equal(t, now.Add(-time.Hour), store.cutoffs[0])
	assert.Equal(t, []string{"a", "b"}, clients.forgotten)
}

func TestJanitor_SignsOutSweptClients(t *testing.T) {
	fake := fakeapi.New()
	backend := httptest.NewServer(fake.Handler())
	t.Cleanup(backend.Close)

	app, err := New(context.Background(), newTestConfig(t, backend.URL))
	require.NoError(t, err)
	t.Cleanup(app.Close)
	srv := httptest.NewServer(app.routes())
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	e := &testEnv{fake: fake, srv: srv, browser: &http.Client{Jar: jar}}

	res, _ := e.signIn(t, fakeapi.UserEmail, fakeapi.UserPassword)
	require.Equal(t, "/dashboard", res.Request.URL.Path)
	require.Equal(t, 1, app.clients.Len())

	// A negative retention puts the cutoff in the future, so every row is stale.
	newJanitor(app.state, app.clients, -time.Hour, time.Hour, app.logger).sweep(context.Background())
	assert.Zero(t, app.clients.Len())

	res, _ = e.get(t, "/dashboard")
	assert.Equal(t, "/login", res.Request.URL.Path)
}
