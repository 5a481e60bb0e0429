package middleware

import (
	"context"

	"github.com/josefe-ing/storepulse/internal/domain"
	"github.com/josefe-ing/storepulse/internal/usecase"
)

type ctxKey int

const (
	authCtxKey ctxKey = iota
	tenantConnKey
	claimsKey
)

// WithAuthContext attaches the resolved tenant/store identity to the request
// context. The value lives only for the lifetime of that request.
func WithAuthContext(ctx context.Context, a domain.AuthContext) context.Context {
	return context.WithValue(ctx, authCtxKey, a)
}

// AuthContextFrom returns the identity attached by the tenant-context
// middleware, if any.
func AuthContextFrom(ctx context.Context) (domain.AuthContext, bool) {
	a, ok := ctx.Value(authCtxKey).(domain.AuthContext)
	return a, ok
}

// WithTenantConn attaches the tenant-scoped data connection.
func WithTenantConn(ctx context.Context, conn domain.TenantConn) context.Context {
	return context.WithValue(ctx, tenantConnKey, conn)
}

// TenantConnFrom returns the tenant-scoped data connection, if any.
func TenantConnFrom(ctx context.Context) (domain.TenantConn, bool) {
	c, ok := ctx.Value(tenantConnKey).(domain.TenantConn)
	return c, ok
}

// WithClaims attaches verified dashboard session claims.
func WithClaims(ctx context.Context, c *usecase.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFrom returns the dashboard session claims, if any.
func ClaimsFrom(ctx context.Context) (*usecase.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*usecase.Claims)
	return c, ok
}
