package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paydesk/console/internal/admin"
	"github.com/paydesk/console/internal/apiclient"
	"github.com/paydesk/console/internal/model"
	"github.com/paydesk/console/internal/orchestrator"
	"github.com/paydesk/console/internal/settle"
	"github.com/paydesk/console/internal/web"
)

const (
	msgEmployeeCreated = "Employee created"
	msgEmployeeUpdated = "Employee updated"
	msgEmployeeDeleted = "Employee deleted"
)

// adminView is the data of one admin console tab. Only the fields the tab
// shows are filled.
type adminView struct {
	Tab         orchestrator.Tab
	Employees   []model.EmployeeRecord
	Departments []model.Department
	Report      []model.PayrollReportRow
	Totals      model.PayrollTotals
	Health      *model.BackendHealth
	Error       string
}

// AdminHandler serves the administrator's console.
type AdminHandler struct {
	*BaseHandler
	currency string
}

func NewAdminHandler(base *BaseHandler, currency string) *AdminHandler {
	return &AdminHandler{BaseHandler: base, currency: currency}
}

// Page renders the current tab, or the tab named in the URL after switching
// to it.
func (h *AdminHandler) Page(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if name := chi.URLParam(r, "tab"); name != "" {
		if err := c.Orchestrator.SetAdminTab(name); errors.Is(err, orchestrator.ErrUnknownTab) {
			http.NotFound(w, r)
			return
		}
	}

	tab := c.Orchestrator.State().AdminTab
	view := h.load(r.Context(), c.Admin, tab)
	h.render(w, r, http.StatusOK, "admin.html", "Console", view)
}

// load fetches what tab shows. Reads run concurrently and each failure is
// reported without hiding the data that did arrive.
func (h *AdminHandler) load(ctx context.Context, gw *admin.Gateway, tab orchestrator.Tab) adminView {
	view := adminView{Tab: tab}
	var g settle.Group

	employees := settle.Go(&g, ctx, gw.ListEmployees)
	var report *settle.Result[[]model.PayrollReportRow]
	var health *settle.Result[*model.BackendHealth]
	if tab == orchestrator.TabDashboard || tab == orchestrator.TabPayroll {
		report = settle.Go(&g, ctx, func(ctx context.Context) ([]model.PayrollReportRow, error) {
			return gw.PayrollReport(ctx, admin.ReportFilter{})
		})
	}
	if tab == orchestrator.TabDashboard {
		health = settle.Go(&g, ctx, gw.Health)
	}
	g.Wait()

	var problems []string
	if employees.Fulfilled() {
		view.Employees = employees.Value
		if tab == orchestrator.TabDepartments {
			view.Departments = admin.Departments(employees.Value)
		}
	} else {
		problems = append(problems, "employees: "+apiclient.Message(employees.Err))
	}
	if report != nil {
		if report.Fulfilled() {
			view.Report = report.Value
			view.Totals = model.SumPayroll(report.Value)
		} else {
			problems = append(problems, "payroll report: "+apiclient.Message(report.Err))
		}
	}
	if health != nil {
		if health.Fulfilled() {
			view.Health = health.Value
		} else {
			h.Logger.Warn("admin: backend health", "err", health.Err)
		}
	}
	view.Error = strings.Join(problems, "; ")
	return view
}

// CreateEmployee requires a name and an email.
func (h *AdminHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	in, err := employeeForm(r)
	if err == nil && (in.FullName == nil || in.Email == nil) {
		err = errors.New("full name and email are required")
	}
	if err != nil {
		notify(c, orchestrator.LevelError, err.Error())
		http.Redirect(w, r, "/admin/employees", http.StatusSeeOther)
		return
	}

	if _, err := c.Admin.CreateEmployee(r.Context(), in); err != nil {
		notify(c, orchestrator.LevelError, apiclient.Message(err))
	} else {
		notify(c, orchestrator.LevelSuccess, msgEmployeeCreated)
	}
	http.Redirect(w, r, "/admin/employees", http.StatusSeeOther)
}

// UpdateEmployee sends only the fields that were filled in.
func (h *AdminHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	in, err := employeeForm(r)
	if err != nil {
		notify(c, orchestrator.LevelError, err.Error())
		http.Redirect(w, r, "/admin/employees", http.StatusSeeOther)
		return
	}

	if _, err := c.Admin.UpdateEmployee(r.Context(), id, in); err != nil {
		notify(c, orchestrator.LevelError, apiclient.Message(err))
	} else {
		notify(c, orchestrator.LevelSuccess, msgEmployeeUpdated)
	}
	http.Redirect(w, r, "/admin/employees", http.StatusSeeOther)
}

func (h *AdminHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	res, err := c.Admin.DeleteEmployee(r.Context(), id)
	switch {
	case err != nil:
		notify(c, orchestrator.LevelError, apiclient.Message(err))
	case res.Message != "":
		notify(c, orchestrator.LevelSuccess, res.Message)
	default:
		notify(c, orchestrator.LevelSuccess, msgEmployeeDeleted)
	}
	http.Redirect(w, r, "/admin/employees", http.StatusSeeOther)
}

// CalculatePayroll runs one employee's payroll for the month of the given
// date and reports the net amount.
func (h *AdminHandler) CalculatePayroll(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(r.FormValue("employee_id"))
	if err != nil {
		notify(c, orchestrator.LevelError, "Choose an employee")
		http.Redirect(w, r, "/admin/payroll", http.StatusSeeOther)
		return
	}
	month := r.FormValue("month")
	if _, err := time.Parse(time.DateOnly, month); err != nil {
		notify(c, orchestrator.LevelError, "Month must be a date")
		http.Redirect(w, r, "/admin/payroll", http.StatusSeeOther)
		return
	}

	res, err := c.Admin.CalculatePayroll(r.Context(), model.PayrollRequest{EmployeeID: id, Month: month})
	if err != nil {
		notify(c, orchestrator.LevelError, apiclient.Message(err))
	} else {
		notify(c, orchestrator.LevelSuccess,
			fmt.Sprintf("Payroll calculated: net salary %s", web.FormatMoney(res.NetSalary, h.currency)))
	}
	http.Redirect(w, r, "/admin/payroll", http.StatusSeeOther)
}

func (h *AdminHandler) Payslip(w http.ResponseWriter, r *http.Request) {
	c, ok := h.client(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	slip, err := c.Admin.Payslip(r.Context(), id, chi.URLParam(r, "month"))
	if err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		notify(c, orchestrator.LevelError, apiclient.Message(err))
		http.Redirect(w, r, "/admin/payroll", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "payslip.html", "Payslip", slip)
}

// employeeForm reads the employee fields of a form. Blank fields are left
// nil.
func employeeForm(r *http.Request) (model.EmployeeInput, error) {
	var in model.EmployeeInput
	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("parse form: %w", err)
	}

	text := func(name string) *string {
		if v := strings.TrimSpace(r.FormValue(name)); v != "" {
			return &v
		}
		return nil
	}
	number := func(name string) (*int, error) {
		v := text(name)
		if v == nil {
			return nil, nil
		}
		n, err := strconv.Atoi(*v)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", strings.ReplaceAll(name, "_", " "))
		}
		return &n, nil
	}

	in.FullName = text("full_name")
	in.Email = text("email")
	in.Phone = text("phone")
	in.HireDate = text("hire_date")
	in.Status = text("status")

	var err error
	if in.DepartmentID, err = number("department_id"); err != nil {
		return in, err
	}
	if in.PositionID, err = number("position_id"); err != nil {
		return in, err
	}
	return in, nil
}
