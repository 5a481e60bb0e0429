package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/josefe-ing/storepulse/internal/domain"
)

// APIKeyRepository implements domain.APIKeyRepository on PostgreSQL.
type APIKeyRepository struct {
	db *sql.DB
}

// NewAPIKeyRepository creates an APIKeyRepository.
func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// FindActiveByDigest performs the single consistent read of the verification
// path: the active key row joined with its tenant's and store's liveness.
func (r *APIKeyRepository) FindActiveByDigest(ctx context.Context, digest string) (*domain.KeyLookup, error) {
	query := `SELECT
			k.tenant_id, k.store_id, k.key_id,
			t.is_active AS tenant_active,
			s.is_active AS store_active
		FROM store_api_keys k
		JOIN tenants t ON k.tenant_id = t.tenant_id
		JOIN stores s ON k.tenant_id = s.tenant_id AND k.store_id = s.store_id
		WHERE k.key_hash = $1 AND k.is_active = TRUE`

	var lk domain.KeyLookup
	err := r.db.QueryRowContext(ctx, query, digest).Scan(
		&lk.TenantID,
		&lk.StoreID,
		&lk.KeyID,
		&lk.TenantActive,
		&lk.StoreActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // no active key matches
		}
		return nil, fmt.Errorf("find key by digest: %w", err)
	}
	return &lk, nil
}

// Rotate deactivates every active key for the new key's (tenant, store) pair
// and inserts the replacement in one transaction.
func (r *APIKeyRepository) Rotate(ctx context.Context, key *domain.APIKey) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rotate: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE store_api_keys SET is_active = FALSE WHERE tenant_id = $1 AND store_id = $2`,
		key.TenantID, key.StoreID,
	)
	if err != nil {
		return fmt.Errorf("deactivate prior keys: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO store_api_keys (key_id, tenant_id, store_id, key_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		key.KeyID, key.TenantID, key.StoreID, key.KeyHash, key.IsActive, key.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert key: %w", err)
	}

	return tx.Commit()
}

// TouchLastUsed records a usage timestamp, last write wins.
func (r *APIKeyRepository) TouchLastUsed(ctx context.Context, digest string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE store_api_keys SET last_used_at = $2 WHERE key_hash = $1`,
		digest, at,
	)
	if err != nil {
		return fmt.Errorf("touch last used: %w", err)
	}
	return nil
}

func (r *APIKeyRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.APIKey, error) {
	query := `SELECT key_id, tenant_id, store_id, key_hash, is_active, created_at, last_used_at
		FROM store_api_keys
		WHERE tenant_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []domain.APIKey
	for rows.Next() {
		var (
			k        domain.APIKey
			lastUsed sql.NullTime
		)
		if err := rows.Scan(&k.KeyID, &k.TenantID, &k.StoreID, &k.KeyHash, &k.IsActive, &k.CreatedAt, &lastUsed); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		if lastUsed.Valid {
			t := lastUsed.Time
			k.LastUsedAt = &t
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *APIKeyRepository) Revoke(ctx context.Context, tenantID, keyID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE store_api_keys SET is_active = FALSE WHERE tenant_id = $1 AND key_id = $2`,
		tenantID, keyID,
	)
	if err != nil {
		return fmt.Errorf("revoke key: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke key: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
