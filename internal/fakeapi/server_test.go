package fakeapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/console/internal/admin"
	"github.com/paydesk/console/internal/apiclient"
	"github.com/paydesk/console/internal/auth"
	"github.com/paydesk/console/internal/employee"
	"github.com/paydesk/console/internal/model"
	"github.com/paydesk/console/internal/session"
)

type rig struct {
	fake *Server
	api  *apiclient.Client
	auth *auth.Manager
}

func newRig(t *testing.T) *rig {
	t.Helper()
	fake := New()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := session.NewMemoryStore()
	api := apiclient.New(srv.URL, store, apiclient.WithLogger(logger))
	return &rig{fake: fake, api: api, auth: auth.NewManager(api, store, logger)}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	res, err := r.auth.Login(ctx, AdminEmail, AdminPassword)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.Role)

	res, err = r.auth.Login(ctx, UserEmail, UserPassword)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, res.Role)

	_, err = r.auth.Login(ctx, UserEmail, "wrong")
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Incorrect email or password", apiErr.Message)
}

func TestEmployeeEndpoints(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	gw := employee.NewGateway(r.api)

	_, err := gw.GetProfile(ctx)
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr, "no token yet")
	assert.Equal(t, "Not authenticated", apiErr.Message)

	_, err = r.auth.Login(ctx, UserEmail, UserPassword)
	require.NoError(t, err)

	profile, err := gw.GetProfile(ctx)
	require.NoError(t, err)
	require.True(t, profile.OK())
	assert.Equal(t, "NV001", profile.Data.EmployeeCode)

	salary, err := gw.GetSalary(ctx)
	require.NoError(t, err)
	assert.True(t, salary.Data.NetSalary.Equal(decimal.NewFromInt(15425000)))

	notes, err := gw.GetNotifications(ctx)
	require.NoError(t, err)
	assert.Len(t, *notes.Data, 2)

	require.NoError(t, gw.MarkNotificationAsRead(ctx, "n1"))
	assert.Equal(t, 0, model.UnreadCount(r.fake.Notifications(UserEmployee)))

	err = gw.MarkNotificationAsRead(ctx, "missing")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, 1, r.fake.Calls("POST /employee/notifications/n1/read"))
}

func TestEmployeeEndpoints_NoLinkedRecord(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	require.NoError(t, r.fake.AddAccount("orphan@example.com", "secret", 2, 99))
	_, err := r.auth.Login(ctx, "orphan@example.com", "secret")
	require.NoError(t, err)

	env, err := employee.NewGateway(r.api).GetProfile(ctx)
	require.NoError(t, err)
	assert.False(t, env.OK())
	assert.NotEmpty(t, env.Reason())
}

func TestFailAndDelay(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	_, err := r.auth.Login(ctx, UserEmail, UserPassword)
	require.NoError(t, err)
	gw := employee.NewGateway(r.api)

	r.fake.Fail("GET /employee/salary", http.StatusInternalServerError)
	_, err = gw.GetSalary(ctx)
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)

	r.fake.Fail("GET /employee/salary", 0)
	_, err = gw.GetSalary(ctx)
	require.NoError(t, err)

	r.fake.Delay("GET /employee/profile", time.Hour)
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = gw.GetProfile(cctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	_, err := r.auth.Login(ctx, UserEmail, UserPassword)
	require.NoError(t, err)

	_, err = r.auth.ChangePassword(ctx, "wrong", "new-secret")
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Current password is incorrect", apiErr.Message)

	_, err = r.auth.ChangePassword(ctx, UserPassword, "new-secret")
	require.NoError(t, err)

	_, err = r.auth.Login(ctx, UserEmail, "new-secret")
	assert.NoError(t, err)
}

func TestAdminEndpoints(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	gw := admin.NewGateway(r.api)

	_, err := r.auth.Login(ctx, UserEmail, UserPassword)
	require.NoError(t, err)
	_, err = gw.ListEmployees(ctx)
	var apiErr *apiclient.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)

	_, err = r.auth.Login(ctx, AdminEmail, AdminPassword)
	require.NoError(t, err)

	name, email, pos := "Tran Thi Binh", "binh@example.com", 2
	created, err := gw.CreateEmployee(ctx, model.EmployeeInput{FullName: &name, Email: &email, PositionID: &pos})
	require.NoError(t, err)
	assert.Equal(t, 2, created.EmployeeID)

	_, err = gw.CreateEmployee(ctx, model.EmployeeInput{FullName: &name, Email: &email})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Email already exists", apiErr.Message)

	phone := "0912345678"
	updated, err := gw.UpdateEmployee(ctx, created.EmployeeID, model.EmployeeInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, name, updated.FullName, "update is partial")

	res, err := gw.CalculatePayroll(ctx, model.PayrollRequest{EmployeeID: created.EmployeeID, Month: "2024-05-01"})
	require.NoError(t, err)
	assert.True(t, res.NetSalary.Equal(res.BaseSalary.Add(res.TotalAllowance).Sub(res.TotalDeduction)))

	rows, err := gw.PayrollReport(ctx, admin.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = gw.PayrollReport(ctx, admin.ReportFilter{RoleID: 4, EmployeeID: UserEmployee})
	require.NoError(t, err)
	assert.Empty(t, rows)

	slip, err := gw.Payslip(ctx, created.EmployeeID, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, name, slip.FullName)

	del, err := gw.DeleteEmployee(ctx, created.EmployeeID)
	require.NoError(t, err)
	assert.Equal(t, "success", del.Status)

	list, err := gw.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	health, err := gw.Health(ctx)
	require.NoError(t, err)
	assert.True(t, health.Healthy())
}
