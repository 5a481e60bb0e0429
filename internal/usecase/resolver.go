package usecase

import (
	"context"

	"github.com/josefe-ing/storepulse/internal/domain"
)

// TenantResolver resolves a raw API key to its tenant/store context, going
// through the cache first and falling back to the verifier. Only successful
// resolutions populate the cache.
type TenantResolver struct {
	cache    *APIKeyCache
	verifier *APIKeyVerifier
}

// NewTenantResolver wires the cache in front of the verifier.
func NewTenantResolver(cache *APIKeyCache, verifier *APIKeyVerifier) *TenantResolver {
	return &TenantResolver{cache: cache, verifier: verifier}
}

// Resolve returns the authenticated context for a raw credential. A cache hit
// younger than the TTL short-circuits the credential store entirely.
func (r *TenantResolver) Resolve(ctx context.Context, rawKey string) (domain.AuthContext, error) {
	if rawKey == "" {
		return domain.AuthContext{}, domain.ErrMissingCredential
	}

	digest := DigestKey(rawKey)
	if authCtx, ok := r.cache.Get(digest); ok {
		return authCtx, nil
	}

	authCtx, err := r.verifier.Verify(ctx, rawKey)
	if err != nil {
		return domain.AuthContext{}, err
	}

	r.cache.Put(digest, authCtx)
	return authCtx, nil
}
