package domain

import (
	"context"
	"time"
)

// UserType defines the permission tier of a dashboard user.
type UserType string

const (
	UserTypeClient   UserType = "client"
	UserTypeAdmin    UserType = "admin"
	UserTypeReadonly UserType = "readonly"
)

// DashboardUser is a human account scoped to a tenant. The password digest is
// a bcrypt hash; plaintext is never stored. New users get a system-generated
// temporary secret and PasswordChangeRequired set, enforcement of the rotation
// is left to the dashboard.
type DashboardUser struct {
	ID                     string     `json:"user_id"`
	TenantID               string     `json:"tenant_id"`
	Email                  string     `json:"email"`
	PasswordHash           string     `json:"-"`
	UserType               UserType   `json:"user_type"`
	Permissions            []string   `json:"permissions"`
	IsActive               bool       `json:"is_active"`
	PasswordChangeRequired bool       `json:"password_change_required"`
	CreatedAt              time.Time  `json:"created_at"`
	LastLoginAt            *time.Time `json:"last_login_at"`
}

// HasPermission reports whether the user's capability set contains perm.
func (u *DashboardUser) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// UserRepository defines the persistence contract for dashboard users.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*DashboardUser, error)
	Create(ctx context.Context, u *DashboardUser) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}
