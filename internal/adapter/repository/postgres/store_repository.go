package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josefe-ing/storepulse/internal/domain"
)

// StoreRepository implements domain.StoreRepository on PostgreSQL.
type StoreRepository struct {
	db *sql.DB
}

// NewStoreRepository creates a StoreRepository.
func NewStoreRepository(db *sql.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) FindByID(ctx context.Context, tenantID, storeID string) (*domain.Store, error) {
	query := `SELECT tenant_id, store_id, store_name, is_active, created_at
		FROM stores
		WHERE tenant_id = $1 AND store_id = $2`

	var s domain.Store
	err := r.db.QueryRowContext(ctx, query, tenantID, storeID).Scan(
		&s.TenantID,
		&s.ID,
		&s.Name,
		&s.IsActive,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find store: %w", err)
	}
	return &s, nil
}

func (r *StoreRepository) List(ctx context.Context, tenantID string) ([]domain.Store, error) {
	query := `SELECT tenant_id, store_id, store_name, is_active, created_at
		FROM stores
		WHERE tenant_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	var stores []domain.Store
	for rows.Next() {
		var s domain.Store
		if err := rows.Scan(&s.TenantID, &s.ID, &s.Name, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (r *StoreRepository) Create(ctx context.Context, s *domain.Store) error {
	query := `INSERT INTO stores (tenant_id, store_id, store_name, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, s.TenantID, s.ID, s.Name, s.IsActive, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create store: %w", err)
	}
	return nil
}

func (r *StoreRepository) CountActive(ctx context.Context, tenantID string) (int, error) {
	query := `SELECT COUNT(*) FROM stores WHERE tenant_id = $1 AND is_active = TRUE`

	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active stores: %w", err)
	}
	return count, nil
}
