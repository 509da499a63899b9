package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/console/internal/apiclient"
	"github.com/paydesk/console/internal/model"
)

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

type request struct {
	method string
	uri    string
	body   map[string]any
}

func newGateway(t *testing.T, reply string) (*Gateway, *request) {
	t.Helper()
	got := &request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.uri = r.URL.RequestURI()
		got.body = nil
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, &got.body))
		}
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return NewGateway(apiclient.New(srv.URL, nil)), got
}

func TestGateway_EmployeeCRUD(t *testing.T) {
	ctx := context.Background()
	record := `{"employee_id":4,"full_name":"Le Van C","email":"c@example.com","department_id":2,"status":"active"}`

	t.Run("list", func(t *testing.T) {
		g, got := newGateway(t, "["+record+"]")
		list, err := g.ListEmployees(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Le Van C", list[0].FullName)
		assert.Equal(t, 2, *list[0].DepartmentID)
		assert.Equal(t, "GET /employees", got.method+" "+got.uri)
	})

	t.Run("get", func(t *testing.T) {
		g, got := newGateway(t, record)
		e, err := g.GetEmployee(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, e.EmployeeID)
		assert.Equal(t, "/employees/4", got.uri)
	})

	t.Run("create", func(t *testing.T) {
		g, got := newGateway(t, record)
		_, err := g.CreateEmployee(ctx, model.EmployeeInput{
			FullName: strp("Le Van C"), Email: strp("c@example.com"), DepartmentID: intp(2),
		})
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, got.method)
		assert.Equal(t, map[string]any{"full_name": "Le Van C", "email": "c@example.com", "department_id": 2.0}, got.body)
	})

	t.Run("partial update", func(t *testing.T) {
		g, got := newGateway(t, record)
		_, err := g.UpdateEmployee(ctx, 4, model.EmployeeInput{Status: strp("inactive")})
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, got.method)
		assert.Equal(t, "/employees/4", got.uri)
		assert.Equal(t, map[string]any{"status": "inactive"}, got.body)
	})

	t.Run("delete", func(t *testing.T) {
		g, got := newGateway(t, `{"status":"success","message":"deleted"}`)
		res, err := g.DeleteEmployee(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "success", res.Status)
		assert.Equal(t, http.MethodDelete, got.method)
	})
}

func TestGateway_Payroll(t *testing.T) {
	ctx := context.Background()

	t.Run("calculate", func(t *testing.T) {
		g, got := newGateway(t, `{"status":"success","message":"done","base_salary":10000000,"total_allowance":1500000,"total_deduction":1050000.5,"net_salary":10449999.5}`)
		res, err := g.CalculatePayroll(ctx, model.PayrollRequest{EmployeeID: 4, Month: "2024-05-01"})
		require.NoError(t, err)
		assert.Equal(t, "/calculate-payroll", got.uri)
		assert.Equal(t, map[string]any{"employee_id": 4.0, "month": "2024-05-01"}, got.body)
		assert.True(t, res.NetSalary.Equal(decimal.RequireFromString("10449999.5")))
	})

	t.Run("report filters", func(t *testing.T) {
		tests := []struct {
			filter ReportFilter
			uri    string
		}{
			{ReportFilter{}, "/payroll-report"},
			{ReportFilter{RoleID: 4, EmployeeID: 9}, "/payroll-report?employee_id=9&role_id=4"},
		}
		for _, tt := range tests {
			g, got := newGateway(t, `[{"employee_id":9,"full_name":"X","month":"2024-05-01","net_salary":5}]`)
			rows, err := g.PayrollReport(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, rows, 1)
			assert.Equal(t, tt.uri, got.uri)
		}
	})

	t.Run("payslip", func(t *testing.T) {
		g, got := newGateway(t, `{"employee_id":9,"month":"2024-05-01","full_name":"X","department_name":"IT","net_salary":"12.50"}`)
		slip, err := g.Payslip(ctx, 9, "2024-05-01")
		require.NoError(t, err)
		assert.Equal(t, "/payslip/9/2024-05-01", got.uri)
		assert.Equal(t, "IT", slip.DepartmentName)
		assert.Equal(t, "12.5", slip.NetSalary.String())
	})

	t.Run("health", func(t *testing.T) {
		g, _ := newGateway(t, `{"status":"unhealthy","error":"db down"}`)
		h, err := g.Health(ctx)
		require.NoError(t, err)
		assert.False(t, h.Healthy())
		assert.Equal(t, "db down", h.Error)
	})
}

func TestDepartments(t *testing.T) {
	employees := []model.EmployeeRecord{
		{EmployeeID: 1, DepartmentID: intp(3), Status: "active"},
		{EmployeeID: 2, DepartmentID: intp(1), Status: "inactive"},
		{EmployeeID: 3, DepartmentID: intp(3)},
		{EmployeeID: 4},
		{EmployeeID: 5, DepartmentID: intp(1), Status: "active"},
	}

	got := Departments(employees)
	require.Len(t, got, 2)

	assert.Equal(t, 1, got[0].ID)
	assert.Len(t, got[0].Employees, 2)
	assert.Equal(t, 1, got[0].Active)

	assert.Equal(t, 3, got[1].ID)
	assert.Equal(t, 2, got[1].Active)

	assert.Empty(t, Departments(nil))
}
