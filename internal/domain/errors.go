package domain

import "errors"

// Sentinel errors shared across the auth and quota layers. The HTTP boundary
// maps these onto status codes; everything else is treated as an internal
// error and surfaced generically.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Authentication failures. All of these map to 401 with a generic body;
	// the specific reason is only ever logged server-side.
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrTokenExpired      = errors.New("token expired")
	ErrTenantInactive    = errors.New("tenant inactive")
	ErrStoreInactive     = errors.New("store inactive")

	// Authorization failures, 403. The missing permission is not sensitive
	// and is named in the response.
	ErrPermissionDenied = errors.New("permission denied")
	ErrTenantMismatch   = errors.New("tenant mismatch")

	// Quota failures. Store limits are retryable, 429. Cost-limit breaches
	// never reject a request; they only raise alerts.
	ErrStoreLimitExceeded = errors.New("store limit exceeded")
)

// IsAuthFailure reports whether err belongs to the authentication-failure
// class (missing, malformed, expired, or cryptographically invalid
// credential, or a dead tenant/store behind a valid one).
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrInvalidCredential) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTenantInactive) ||
		errors.Is(err, ErrStoreInactive)
}
