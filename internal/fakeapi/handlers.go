package fakeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/paydesk/console/internal/model"
)

type ctxKey struct{}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func detail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func envelope(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls[route]++
		status := s.failures[route]
		delay := s.delays[route]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			detail(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		acct := s.tokens[token]
		s.mu.Unlock()
		if !ok || acct == nil {
			detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, acct)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if current(r).roleID != model.AdminRoleID {
			detail(w, http.StatusForbidden, "Permission denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func current(r *http.Request) *account {
	a, _ := r.Context().Value(ctxKey{}).(*account)
	return a
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.BackendHealth{Status: "healthy", Database: "connected"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acct := s.accounts[req.Email]
	var hash string
	if acct != nil {
		hash = acct.passwordHash
	}
	s.mu.Unlock()
	if acct == nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		detail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	token := newToken()
	s.mu.Lock()
	s.tokens[token] = acct
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, model.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		RoleID:      acct.roleID,
		EmployeeID:  acct.employeeID,
	})
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req model.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	acct := current(r)
	s.mu.Lock()
	hash := acct.passwordHash
	s.mu.Unlock()
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.CurrentPassword)) != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Current password is incorrect"})
		return
	}
	if len(req.NewPassword) < 6 {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "New password must be at least 6 characters"})
		return
	}
	next, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.MinCost)
	if err != nil {
		detail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.mu.Lock()
	acct.passwordHash = string(next)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Password changed successfully"})
}

// employeeOf returns the data linked to the caller, or writes an
// unsuccessful envelope and returns nil.
func (s *Server) employeeOf(w http.ResponseWriter, r *http.Request) *employeeData {
	d, ok := s.data[current(r).employeeID]
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Employee record not found for this account"})
		return nil
	}
	return d
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d := s.employeeOf(w, r); d != nil {
		envelope(w, d.profile)
	}
}

func (s *Server) salary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.employeeOf(w, r)
	if d == nil {
		return
	}
	if d.salary == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "No salary data"})
		return
	}
	envelope(w, d.salary)
}

func (s *Server) paymentHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d := s.employeeOf(w, r); d != nil {
		envelope(w, append([]model.PaymentRecord{}, d.history...))
	}
}

func (s *Server) notifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d := s.employeeOf(w, r); d != nil {
		envelope(w, append([]model.Notification{}, d.notifications...))
	}
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.employeeOf(w, r)
	if d == nil {
		return
	}
	for i := range d.notifications {
		if d.notifications[i].ID == id {
			d.notifications[i].IsRead = true
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
			return
		}
	}
	detail(w, http.StatusNotFound, "Notification not found")
}

func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.employeeOf(w, r)
	if d == nil {
		return
	}
	for i := range d.notifications {
		d.notifications[i].IsRead = true
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) listEmployees(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EmployeeRecord, 0, len(s.employees))
	for _, e := range s.employees {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	writeJSON(w, http.StatusOK, out)
}

func employeeID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		detail(w, http.StatusUnprocessableEntity, "employee_id must be an integer")
		return 0, false
	}
	return id, true
}

func (s *Server) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		detail(w, http.StatusNotFound, "Employee not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) createEmployee(w http.ResponseWriter, r *http.Request) {
	var in model.EmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.FullName == nil || in.Email == nil || *in.FullName == "" || *in.Email == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]any{
			{"loc": []string{"body", "full_name"}, "msg": "Field required"},
		}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.employees {
		if e.Email == *in.Email {
			detail(w, http.StatusBadRequest, "Email already exists")
			return
		}
	}
	e := &model.EmployeeRecord{EmployeeID: s.nextID, Status: "active"}
	s.nextID++
	apply(e, in)
	s.employees[e.EmployeeID] = e
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	var in model.EmployeeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		detail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		detail(w, http.StatusNotFound, "Employee not found")
		return
	}
	apply(e, in)
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		detail(w, http.StatusNotFound, "Employee not found")
		return
	}
	delete(s.employees, id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": fmt.Sprintf("Deleted employee %d", id)})
}

func apply(e *model.EmployeeRecord, in model.EmployeeInput) {
	if in.FullName != nil {
		e.FullName = *in.FullName
	}
	if in.Email != nil {
		e.Email = *in.Email
	}
	if in.Phone != nil {
		e.Phone = *in.Phone
	}
	if in.DepartmentID != nil {
		v := *in.DepartmentID
		e.DepartmentID = &v
	}
	if in.PositionID != nil {
		v := *in.PositionID
		e.PositionID = &v
	}
	if in.HireDate != nil {
		e.HireDate = *in.HireDate
	}
	if in.Status != nil {
		e.Status = *in.Status
	}
}

// baseSalary is the fixed monthly base per position id.
var baseSalary = map[int]decimal.Decimal{
	1: decimal.NewFromInt(15000000),
	2: decimal.NewFromInt(25000000),
}

func (s *Server) calculatePayroll(w http.ResponseWriter, r *http.Request) {
	var req model.PayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := time.Parse("2006-01-02", req.Month); err != nil {
		detail(w, http.StatusUnprocessableEntity, "month must be a date (YYYY-MM-DD)")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[req.EmployeeID]
	if !ok {
		detail(w, http.StatusNotFound, "Employee not found")
		return
	}
	if e.PositionID == nil {
		detail(w, http.StatusBadRequest, "No salary configured for this employee's position")
		return
	}
	base, ok := baseSalary[*e.PositionID]
	if !ok {
		detail(w, http.StatusBadRequest, "No salary configured for this employee's position")
		return
	}
	allowance := decimal.NewFromInt(2000000)
	deduction := base.Mul(decimal.RequireFromString("0.105")).Round(0)
	net := base.Add(allowance).Sub(deduction)

	s.payrolls[payrollKey(e.EmployeeID, req.Month)] = model.Payslip{
		PayrollID:      len(s.payrolls) + 1,
		EmployeeID:     e.EmployeeID,
		Month:          req.Month,
		FullName:       e.FullName,
		DepartmentName: fmt.Sprintf("Department %d", deref(e.DepartmentID)),
		PositionName:   fmt.Sprintf("Position %d", *e.PositionID),
		BaseSalary:     base,
		TotalAllowance: allowance,
		TotalDeduction: deduction,
		NetSalary:      net,
	}
	writeJSON(w, http.StatusOK, model.PayrollResult{
		Status:         "success",
		Message:        "Payroll calculated",
		BaseSalary:     base,
		TotalAllowance: allowance,
		TotalDeduction: deduction,
		NetSalary:      net,
	})
}

func (s *Server) payrollReport(w http.ResponseWriter, r *http.Request) {
	roleID, _ := strconv.Atoi(r.URL.Query().Get("role_id"))
	empID, _ := strconv.Atoi(r.URL.Query().Get("employee_id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PayrollReportRow, 0, len(s.payrolls))
	for _, p := range s.payrolls {
		// Roles 1 to 3 see every row; anyone else only their own.
		if roleID > 3 && p.EmployeeID != empID {
			continue
		}
		out = append(out, model.PayrollReportRow{
			EmployeeID:     p.EmployeeID,
			FullName:       p.FullName,
			Month:          p.Month,
			BaseSalary:     p.BaseSalary,
			TotalAllowance: p.TotalAllowance,
			TotalDeduction: p.TotalDeduction,
			NetSalary:      p.NetSalary,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) payslip(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payrolls[payrollKey(id, chi.URLParam(r, "month"))]
	if !ok {
		detail(w, http.StatusNotFound, "Payslip not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func payrollKey(employeeID int, month string) string {
	return strconv.Itoa(employeeID) + "/" + month
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
