package handler

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/console/internal/model"
)

func TestLanding(t *testing.T) {
	tests := []struct {
		loggedIn bool
		role     model.Role
		want     string
	}{
		{false, "", "/login"},
		{false, model.RoleAdmin, "/login"},
		{true, model.RoleAdmin, "/admin"},
		{true, model.RoleUser, "/dashboard"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, landing(tt.loggedIn, tt.role), "loggedIn=%v role=%q", tt.loggedIn, tt.role)
	}
}

func TestEmployeeForm(t *testing.T) {
	post := func(v url.Values) (model.EmployeeInput, error) {
		r := httptest.NewRequest("POST", "/admin/employees", strings.NewReader(v.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return employeeForm(r)
	}

	t.Run("blank fields stay nil", func(t *testing.T) {
		in, err := post(url.Values{"full_name": {" Tran Thi Binh "}, "email": {""}, "department_id": {"3"}})
		require.NoError(t, err)
		require.NotNil(t, in.FullName)
		assert.Equal(t, "Tran Thi Binh", *in.FullName)
		assert.Nil(t, in.Email)
		assert.Nil(t, in.PositionID)
		require.NotNil(t, in.DepartmentID)
		assert.Equal(t, 3, *in.DepartmentID)
	})

	t.Run("numbers are checked", func(t *testing.T) {
		_, err := post(url.Values{"position_id": {"two"}})
		require.Error(t, err)
		assert.Equal(t, "position id must be a number", err.Error())
	})
}
