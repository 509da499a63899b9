package model

import "github.com/shopspring/decimal"

// EmployeeRecord is an employee row as the admin endpoints return it.
type EmployeeRecord struct {
	EmployeeID   int    `json:"employee_id"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	DepartmentID *int   `json:"department_id,omitempty"`
	PositionID   *int   `json:"position_id,omitempty"`
	HireDate     string `json:"hire_date,omitempty"`
	Status       string `json:"status,omitempty"`
}

// EmployeeInput is the body of employee create and update calls. Nil fields
// are left out so that updates stay partial.
type EmployeeInput struct {
	FullName     *string `json:"full_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	DepartmentID *int    `json:"department_id,omitempty"`
	PositionID   *int    `json:"position_id,omitempty"`
	HireDate     *string `json:"hire_date,omitempty"`
	Status       *string `json:"status,omitempty"`
}

// Department is derived from the employee list, grouped by department id.
type Department struct {
	ID        int
	Employees []EmployeeRecord
	Active    int
}

type PayrollRequest struct {
	EmployeeID int    `json:"employee_id"`
	Month      string `json:"month"`
}

type PayrollResult struct {
	Status         string          `json:"status"`
	Message        string          `json:"message"`
	BaseSalary     decimal.Decimal `json:"base_salary"`
	TotalAllowance decimal.Decimal `json:"total_allowance"`
	TotalDeduction decimal.Decimal `json:"total_deduction"`
	NetSalary      decimal.Decimal `json:"net_salary"`
}

type PayrollReportRow struct {
	EmployeeID     int             `json:"employee_id"`
	FullName       string          `json:"full_name"`
	Month          string          `json:"month"`
	BaseSalary     decimal.Decimal `json:"base_salary"`
	TotalAllowance decimal.Decimal `json:"total_allowance"`
	TotalDeduction decimal.Decimal `json:"total_deduction"`
	NetSalary      decimal.Decimal `json:"net_salary"`
}

type Payslip struct {
	PayrollID      int             `json:"payroll_id"`
	EmployeeID     int             `json:"employee_id"`
	Month          string          `json:"month"`
	FullName       string          `json:"full_name"`
	DepartmentName string          `json:"department_name"`
	PositionName   string          `json:"position_name"`
	BaseSalary     decimal.Decimal `json:"base_salary"`
	TotalAllowance decimal.Decimal `json:"total_allowance"`
	TotalDeduction decimal.Decimal `json:"total_deduction"`
	NetSalary      decimal.Decimal `json:"net_salary"`
}

// PayrollTotals sums the money columns of a payroll report.
type PayrollTotals struct {
	Rows           int
	BaseSalary     decimal.Decimal
	TotalAllowance decimal.Decimal
	TotalDeduction decimal.Decimal
	NetSalary      decimal.Decimal
}

func SumPayroll(rows []PayrollReportRow) PayrollTotals {
	t := PayrollTotals{Rows: len(rows)}
	for _, r := range rows {
		t.BaseSalary = t.BaseSalary.Add(r.BaseSalary)
		t.TotalAllowance = t.TotalAllowance.Add(r.TotalAllowance)
		t.TotalDeduction = t.TotalDeduction.Add(r.TotalDeduction)
		t.NetSalary = t.NetSalary.Add(r.NetSalary)
	}
	return t
}

type BackendHealth struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Healthy reports whether the backend declared itself healthy.
func (h BackendHealth) Healthy() bool {
	return h.Status == "healthy"
}
