// Package fakeapi is an in-process stand-in for the payroll backend. It
// speaks the same JSON contract over HTTP and keeps everything in memory.
package fakeapi

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/paydesk/console/internal/model"
)

// Seeded accounts.
const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin-password"
	UserEmail     = "an.nguyen@example.com"
	UserPassword  = "user-password"
	UserEmployee  = 1
)

type account struct {
	email        string
	passwordHash string
	roleID       int
	employeeID   int
}

type employeeData struct {
	profile       model.Employee
	salary        *model.Salary
	history       []model.PaymentRecord
	notifications []model.Notification
}

// Server is safe for concurrent use.
type Server struct {
	mu        sync.Mutex
	accounts  map[string]*account
	tokens    map[string]*account
	data      map[int]*employeeData
	employees map[int]*model.EmployeeRecord
	payrolls  map[string]model.Payslip
	nextID    int
	failures  map[string]int
	delays    map[string]time.Duration
	calls     map[string]int
}

// New returns a server seeded with one administrator and one employee.
func New() *Server {
	s := &Server{
		accounts:  make(map[string]*account),
		tokens:    make(map[string]*account),
		data:      make(map[int]*employeeData),
		employees: make(map[int]*model.EmployeeRecord),
		payrolls:  make(map[string]model.Payslip),
		failures:  make(map[string]int),
		delays:    make(map[string]time.Duration),
		calls:     make(map[string]int),
		nextID:    2,
	}
	must(s.AddAccount(AdminEmail, AdminPassword, model.AdminRoleID, 0))
	must(s.AddAccount(UserEmail, UserPassword, 2, UserEmployee))

	dept, pos := 1, 1
	s.employees[UserEmployee] = &model.EmployeeRecord{
		EmployeeID:   UserEmployee,
		FullName:     "Nguyen Van An",
		Email:        UserEmail,
		Phone:        "0901234567",
		DepartmentID: &dept,
		PositionID:   &pos,
		HireDate:     "2021-03-01",
		Status:       "active",
	}
	paid := time.Date(2024, 5, 5, 9, 0, 0, 0, time.UTC)
	s.data[UserEmployee] = &employeeData{
		profile: model.Employee{
			ID:           "1",
			Name:         "Nguyen Van An",
			EmployeeCode: "NV001",
			Department:   "Engineering",
			Position:     "Developer",
			Email:        UserEmail,
			Phone:        "0901234567",
			StartDate:    "2021-03-01",
		},
		salary: &model.Salary{
			Month:          "2024-05",
			BaseSalary:     decimal.NewFromInt(15000000),
			TotalAllowance: decimal.NewFromInt(2000000),
			TotalDeduction: decimal.NewFromInt(1575000),
			NetSalary:      decimal.NewFromInt(15425000),
		},
		history: []model.PaymentRecord{
			{ID: "p-2024-04", Month: "2024-04", Amount: decimal.NewFromInt(15100000), Status: "paid", PaidAt: &paid},
		},
		notifications: []model.Notification{
			{ID: "n1", Title: "Payslip available", Message: "Your May payslip is ready.", Type: "payroll", CreatedAt: paid},
			{ID: "n2", Title: "Welcome", Message: "Welcome to the payroll portal.", Type: "info", CreatedAt: paid.AddDate(0, -1, 0), IsRead: true},
		},
	}
	return s
}

// AddAccount registers login credentials. roleID 1 is an administrator.
func (s *Server) AddAccount(email, password string, roleID, employeeID int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = &account{email: email, passwordHash: string(hash), roleID: roleID, employeeID: employeeID}
	return nil
}

// Fail makes every request to "METHOD /path" answer with status until
// cleared with status 0.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// Delay holds every request to "METHOD /path" for d before answering.
func (s *Server) Delay(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[route] = d
}

// Calls reports how many requests reached "METHOD /path".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Notifications returns a copy of the stored notifications of an employee.
func (s *Server) Notifications(employeeID int) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[employeeID]
	if !ok {
		return nil
	}
	return append([]model.Notification(nil), d.notifications...)
}

// Handler returns the backend's HTTP surface.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.instrument)

	r.Get("/health", s.health)
	r.Post("/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)

		r.Post("/auth/change-password", s.changePassword)

		r.Get("/employee/profile", s.profile)
		r.Get("/employee/salary", s.salary)
		r.Get("/employee/payment-history", s.paymentHistory)
		r.Get("/employee/notifications", s.notifications)
		r.Post("/employee/notifications/read-all", s.markAllRead)
		r.Post("/employee/notifications/{id}/read", s.markRead)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)

			r.Get("/employees", s.listEmployees)
			r.Post("/employees", s.createEmployee)
			r.Get("/employees/{id}", s.getEmployee)
			r.Put("/employees/{id}", s.updateEmployee)
			r.Delete("/employees/{id}", s.deleteEmployee)
			r.Post("/calculate-payroll", s.calculatePayroll)
			r.Get("/payroll-report", s.payrollReport)
			r.Get("/payslip/{id}/{month}", s.payslip)
		})
	})
	return r
}

func newToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
