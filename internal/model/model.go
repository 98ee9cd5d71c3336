package model

import (
	"context"
	"fmt"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleAdmin manages exams, results, notifications and accounts.
	UserRoleAdmin UserRole = "admin"
	// UserRoleStudent views assigned exams, own results and notifications.
	UserRoleStudent UserRole = "student"
	// UserRoleSuperAdmin is the static credential pair that authorizes admin creation.
	// It is never stored in the user directory.
	UserRoleSuperAdmin UserRole = "superadmin"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleStudent, UserRoleSuperAdmin:
		return true
	}
	return false
}

// Home returns the landing route for the role.
func (r UserRole) Home() string {
	switch r {
	case UserRoleAdmin:
		return "/admin"
	case UserRoleStudent:
		return "/student"
	case UserRoleSuperAdmin:
		return "/admin/users"
	}
	return "/login"
}

// ParseUserRole converts a form value into a UserRole.
func ParseUserRole(s string) (UserRole, error) {
	r := UserRole(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User represents a directory entry. Credentials live in a separate directory.
type User struct {
	ID                 string   `json:"id"`
	Username           string   `json:"username"`
	Email              string   `json:"email"`
	DisplayName        string   `json:"display_name"`
	FirstName          string   `json:"first_name"`
	LastName           string   `json:"last_name"`
	Nickname           string   `json:"nickname,omitempty"`
	Website            string   `json:"website,omitempty"`
	Bio                string   `json:"bio,omitempty"`
	Role               UserRole `json:"role"`
	MustChangePassword bool     `json:"must_change_password,omitempty"`
}

// Session is the single authenticated identity of the running instance.
type Session struct {
	User            *User  `json:"user"`
	Token           string `json:"token"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// SessionState is the authorization state derived from a Session.
type SessionState int

const (
	StateAnonymous SessionState = iota
	StateAuthenticated
	StateMustChangePassword
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	case StateMustChangePassword:
		return "must_change_password"
	}
	return fmt.Sprintf("SessionState(%d)", int(s))
}

// State derives the authorization state of the session.
func (s Session) State() SessionState {
	if s.User == nil || s.Token == "" {
		return StateAnonymous
	}
	if s.User.MustChangePassword {
		return StateMustChangePassword
	}
	return StateAuthenticated
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// DashboardConfig holds runtime parameters of the page layer set via CLI flags.
type DashboardConfig struct {
	Lang          string // UI language for messages (en, ru)
	PageSize      int    // rows per table page, 0 means the table default
	SecureCookies bool   // set Secure on the session cookie (behind TLS)
}
