package model

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// AdminRoleID is the backend role identifier that designates an administrator.
const AdminRoleID = 1

// Persisted session keys.
const (
	KeyAuthToken = "authToken"
	KeyUserRole  = "userRole"
)

// RoleFromID maps the backend's numeric role identifier onto a client role.
func RoleFromID(id int) Role {
	if id == AdminRoleID {
		return RoleAdmin
	}
	return RoleUser
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type Session struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the backend's answer to POST /login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	RoleID      int    `json:"role_id"`
	EmployeeID  int    `json:"employee_id,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
