package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/josefe-ing/storepulse/internal/domain"
)

// UserRepository implements domain.UserRepository on PostgreSQL.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.DashboardUser, error) {
	query := `SELECT user_id, tenant_id, email, password_hash, user_type, permissions,
			is_active, password_change_required, created_at, last_login_at
		FROM dashboard_users
		WHERE email = $1`

	var (
		u         domain.DashboardUser
		lastLogin sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&u.ID,
		&u.TenantID,
		&u.Email,
		&u.PasswordHash,
		&u.UserType,
		pq.Array(&u.Permissions),
		&u.IsActive,
		&u.PasswordChangeRequired,
		&u.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.DashboardUser) error {
	query := `INSERT INTO dashboard_users
			(user_id, tenant_id, email, password_hash, user_type, permissions,
			is_active, password_change_required, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		u.ID,
		u.TenantID,
		u.Email,
		u.PasswordHash,
		u.UserType,
		pq.Array(u.Permissions),
		u.IsActive,
		u.PasswordChangeRequired,
		u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE dashboard_users SET last_login_at = $2 WHERE user_id = $1`,
		userID, at,
	)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}
