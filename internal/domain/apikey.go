package domain

import (
	"context"
	"time"
)

// APIKey is a machine credential bound to one (tenant, store) pair. Only the
// SHA-256 digest of the secret is ever persisted; the raw key is returned to
// the caller exactly once at issuance. At most one key per store is active at
// a time: issuing a new key deactivates all prior keys for that store.
type APIKey struct {
	KeyID      string     `json:"key_id"`
	TenantID   string     `json:"tenant_id"`
	StoreID    string     `json:"store_id"`
	KeyHash    string     `json:"-"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
}

// IssuedKey is the one-time response to key issuance. RawKey is never
// recoverable afterwards.
type IssuedKey struct {
	KeyID     string    `json:"key_id"`
	TenantID  string    `json:"tenant_id"`
	StoreID   string    `json:"store_id"`
	RawKey    string    `json:"api_key"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthContext is the resolved identity attached to an authenticated request.
type AuthContext struct {
	TenantID string `json:"tenant_id"`
	StoreID  string `json:"store_id"`
	KeyID    string `json:"key_id"`
}

// KeyLookup is the result of the single joined read performed during key
// verification: the key row plus the liveness of its owning tenant and store.
type KeyLookup struct {
	TenantID     string
	StoreID      string
	KeyID        string
	TenantActive bool
	StoreActive  bool
}

// APIKeyRepository defines the persistence contract for API keys.
type APIKeyRepository interface {
	// FindActiveByDigest returns the active key matching the digest joined
	// with tenant and store liveness, or nil when no active key matches.
	FindActiveByDigest(ctx context.Context, digest string) (*KeyLookup, error)

	// Rotate deactivates every active key for the (tenant, store) pair and
	// inserts the new key in one atomic operation.
	Rotate(ctx context.Context, key *APIKey) error

	// TouchLastUsed records a usage timestamp for the key matching the
	// digest. Last write wins; callers treat failures as best-effort.
	TouchLastUsed(ctx context.Context, digest string, at time.Time) error

	ListByTenant(ctx context.Context, tenantID string) ([]APIKey, error)
	Revoke(ctx context.Context, tenantID, keyID string) error
}
