package admin

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/paydesk/console/internal/model"
)

// API is the HTTP client surface used by the admin console.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// StatusResult is the {status, message} answer of mutation endpoints.
type StatusResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Gateway wraps the backend's administrative endpoints. Like the employee
// gateway it never recovers: failures are returned as they come.
type Gateway struct {
	api API
}

func NewGateway(api API) *Gateway {
	return &Gateway{api: api}
}

func (g *Gateway) ListEmployees(ctx context.Context) ([]model.EmployeeRecord, error) {
	var out []model.EmployeeRecord
	if err := g.api.Get(ctx, "/employees", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gateway) GetEmployee(ctx context.Context, id int) (*model.EmployeeRecord, error) {
	var out model.EmployeeRecord
	if err := g.api.Get(ctx, employeePath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) CreateEmployee(ctx context.Context, in model.EmployeeInput) (*model.EmployeeRecord, error) {
	var out model.EmployeeRecord
	if err := g.api.Post(ctx, "/employees", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEmployee sends only the non-nil fields of in.
func (g *Gateway) UpdateEmployee(ctx context.Context, id int, in model.EmployeeInput) (*model.EmployeeRecord, error) {
	var out model.EmployeeRecord
	if err := g.api.Put(ctx, employeePath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Gateway) DeleteEmployee(ctx context.Context, id int) (*StatusResult, error) {
	var out StatusResult
	if err := g.api.Delete(ctx, employeePath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CalculatePayroll asks the backend to compute and store one month's payroll
// for one employee. month is a YYYY-MM-DD date.
func (g *Gateway) CalculatePayroll(ctx context.Context, req model.PayrollRequest) (*model.PayrollResult, error) {
	var out model.PayrollResult
	if err := g.api.Post(ctx, "/calculate-payroll", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReportFilter narrows the payroll report. Zero values are omitted.
type ReportFilter struct {
	RoleID     int
	EmployeeID int
}

func (f ReportFilter) query() string {
	q := url.Values{}
	if f.RoleID != 0 {
		q.Set("role_id", strconv.Itoa(f.RoleID))
	}
	if f.EmployeeID != 0 {
		q.Set("employee_id", strconv.Itoa(f.EmployeeID))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (g *Gateway) PayrollReport(ctx context.Context, f ReportFilter) ([]model.PayrollReportRow, error) {
	var out []model.PayrollReportRow
	if err := g.api.Get(ctx, "/payroll-report"+f.query(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gateway) Payslip(ctx context.Context, employeeID int, month string) (*model.Payslip, error) {
	var out model.Payslip
	path := fmt.Sprintf("/payslip/%d/%s", employeeID, url.PathEscape(month))
	if err := g.api.Get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health reports the backend's own view of its health. An unhealthy backend
// still answers 200, so callers check BackendHealth.Healthy.
func (g *Gateway) Health(ctx context.Context) (*model.BackendHealth, error) {
	var out model.BackendHealth
	if err := g.api.Get(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Departments groups employees by department id, ordered by id. Employees
// without a department are left out.
func Departments(employees []model.EmployeeRecord) []model.Department {
	byID := make(map[int]*model.Department)
	for _, e := range employees {
		if e.DepartmentID == nil {
			continue
		}
		d, ok := byID[*e.DepartmentID]
		if !ok {
			d = &model.Department{ID: *e.DepartmentID}
			byID[d.ID] = d
		}
		d.Employees = append(d.Employees, e)
		if e.Status == "" || e.Status == "active" {
			d.Active++
		}
	}

	out := make([]model.Department, 0, len(byID))
	for _, d := range byID {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func employeePath(id int) string {
	return "/employees/" + strconv.Itoa(id)
}
