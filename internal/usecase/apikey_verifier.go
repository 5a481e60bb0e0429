package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/josefe-ing/storepulse/internal/domain"
)

// DigestKey computes the lookup digest of a raw API key. Raw keys carry 32
// bytes of CSPRNG entropy, so a plain SHA-256 is sufficient here; low-entropy
// secrets (passwords) use bcrypt instead.
func DigestKey(rawKey string) string {
	sum := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(sum[:])
}

// APIKeyVerifier verifies machine API keys against the credential store.
type APIKeyVerifier struct {
	keys          domain.APIKeyRepository
	verifyTimeout time.Duration
	logger        *slog.Logger

	// touchLimit throttles last-used timestamp writes so a hot key does not
	// turn every request into an UPDATE. Dropped updates are fine; the
	// column is advisory and last-write-wins.
	touchLimit *rate.Limiter

	now func() time.Time
}

// NewAPIKeyVerifier creates a verifier. touchInterval is the minimum spacing
// between last-used writes; a small burst is allowed so distinct keys are not
// starved by one busy key.
func NewAPIKeyVerifier(keys domain.APIKeyRepository, verifyTimeout, touchInterval time.Duration, logger *slog.Logger) *APIKeyVerifier {
	return &APIKeyVerifier{
		keys:          keys,
		verifyTimeout: verifyTimeout,
		logger:        logger.With("component", "apikey_verifier"),
		touchLimit:    rate.NewLimiter(rate.Every(touchInterval), 32),
		now:           time.Now,
	}
}

// Verify resolves a raw API key to its tenant/store context. The key, its
// store, and its tenant must all be live simultaneously. On success a usage
// timestamp is recorded asynchronously; its failure never fails the request.
func (v *APIKeyVerifier) Verify(ctx context.Context, rawKey string) (domain.AuthContext, error) {
	if rawKey == "" {
		return domain.AuthContext{}, domain.ErrMissingCredential
	}

	digest := DigestKey(rawKey)

	lookupCtx, cancel := context.WithTimeout(ctx, v.verifyTimeout)
	defer cancel()

	lookup, err := v.keys.FindActiveByDigest(lookupCtx, digest)
	if err != nil {
		// Credential store unreachable or timed out: fail closed.
		v.logger.Error("api key lookup failed", "error", err)
		return domain.AuthContext{}, domain.ErrInvalidCredential
	}
	if lookup == nil {
		v.logger.Warn("invalid api key attempt", "digest_prefix", digest[:16])
		return domain.AuthContext{}, domain.ErrInvalidCredential
	}
	if !lookup.TenantActive {
		return domain.AuthContext{}, domain.ErrTenantInactive
	}
	if !lookup.StoreActive {
		return domain.AuthContext{}, domain.ErrStoreInactive
	}

	v.touchAsync(digest)

	return domain.AuthContext{
		TenantID: lookup.TenantID,
		StoreID:  lookup.StoreID,
		KeyID:    lookup.KeyID,
	}, nil
}

// touchAsync records the usage timestamp without blocking the request. The
// write runs on a background context so a client disconnect cannot cancel it.
func (v *APIKeyVerifier) touchAsync(digest string) {
	if !v.touchLimit.Allow() {
		return
	}
	at := v.now()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), v.verifyTimeout)
		defer cancel()
		if err := v.keys.TouchLastUsed(ctx, digest, at); err != nil && !errors.Is(err, context.Canceled) {
			v.logger.Warn("failed to record key usage", "error", err)
		}
	}()
}
