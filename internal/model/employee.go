package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the self-service profile of the signed-in employee.
type Employee struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	EmployeeCode string `json:"employeeCode"`
	Department   string `json:"department"`
	Position     string `json:"position,omitempty"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	StartDate    string `json:"startDate,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
}

// Initials returns the first letter of every word of the employee's name.
func (e Employee) Initials() string {
	var out []rune
	start := true
	for _, r := range e.Name {
		if r == ' ' {
			start = true
			continue
		}
		if start {
			out = append(out, r)
			start = false
		}
	}
	return string(out)
}

type Salary struct {
	Month          string          `json:"month"`
	BaseSalary     decimal.Decimal `json:"baseSalary"`
	TotalAllowance decimal.Decimal `json:"totalAllowance"`
	TotalDeduction decimal.Decimal `json:"totalDeduction"`
	NetSalary      decimal.Decimal `json:"netSalary"`
}

type PaymentRecord struct {
	ID     string          `json:"id"`
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
	PaidAt *time.Time      `json:"paidAt,omitempty"`
	Note   string          `json:"note,omitempty"`
}

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	IsRead    bool      `json:"isRead"`
}

// UnreadCount returns how many notifications have not been read.
func UnreadCount(ns []Notification) int {
	n := 0
	for _, v := range ns {
		if !v.IsRead {
			n++
		}
	}
	return n
}
