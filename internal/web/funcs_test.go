package web

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		code   string
		want   string
	}{
		{"dollars", "1500.5", "USD", "$1,500.50"},
		{"rounds to minor unit", "0.125", "USD", "$0.13"},
		{"negative", "-12", "USD", "-$12.00"},
		{"unknown currency", "1500.5", "XXX1", "1500.50 XXX1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(decimal.RequireFromString(tt.amount), tt.code))
		})
	}
}

func TestFormatMoney_ZeroFractionCurrency(t *testing.T) {
	got := FormatMoney(decimal.NewFromInt(15425000), "VND")
	assert.Contains(t, got, "425")
	assert.NotContains(t, got, "VND", "known currencies render with their symbol")
}

func TestFormatDate(t *testing.T) {
	paid := time.Date(2024, 5, 5, 9, 0, 0, 0, time.UTC)
	var never *time.Time

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"date string", "2021-03-01", "1/3/2021"},
		{"timestamp string", "2024-05-05T09:00:00Z", "5/5/2024"},
		{"month string", "2024-05", "5/2024"},
		{"empty string", "", NotUpdated},
		{"unparseable", "soon", "soon"},
		{"time", paid, "5/5/2024"},
		{"zero time", time.Time{}, NotUpdated},
		{"pointer", &paid, "5/5/2024"},
		{"nil pointer", never, NotUpdated},
		{"other", 42, NotUpdated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDate(tt.in))
		})
	}
}

func TestTemplates(t *testing.T) {
	tmpl, err := Templates("USD")
	require.NoError(t, err)

	for _, name := range []string{"login.html", "dashboard.html", "password.html", "admin.html", "payslip.html"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}

	var buf bytes.Buffer
	err = tmpl.ExecuteTemplate(&buf, "payslip.html", map[string]any{
		"Title": "Payslip",
		"State": map[string]any{"LoggedIn": false},
		"Data": map[string]any{
			"FullName":       "Nguyen Van An",
			"EmployeeID":     1,
			"Month":          "2024-05-01",
			"BaseSalary":     decimal.NewFromInt(1000),
			"TotalAllowance": decimal.NewFromInt(200),
			"TotalDeduction": decimal.NewFromInt(100),
			"NetSalary":      decimal.NewFromInt(1100),
		},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "$1,100.00")
	assert.Contains(t, buf.String(), "1/5/2024")
}

func TestStaticFS(t *testing.T) {
	f, err := StaticFS.Open("app.css")
	require.NoError(t, err)
	assert.NoError(t, f.Close())
}
