package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/josefe-ing/storepulse/internal/domain"
)

const tokenIssuer = "storepulse-auth"

// Claims is the payload of a dashboard session token.
type Claims struct {
	TenantID    string          `json:"tenant_id"`
	UserType    domain.UserType `json:"user_type"`
	Permissions []string        `json:"permissions"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed session tokens for dashboard
// users. Tokens are HS256 with a process-wide secret; there is no refresh or
// rotation, expiry forces re-authentication.
type TokenService struct {
	secret        []byte
	ttl           time.Duration
	tenants       domain.TenantRepository
	verifyTimeout time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// NewTokenService creates a TokenService with the given signing secret and
// token lifetime.
func NewTokenService(secret string, ttl, verifyTimeout time.Duration, tenants domain.TenantRepository, logger *slog.Logger) *TokenService {
	return &TokenService{
		secret:        []byte(secret),
		ttl:           ttl,
		tenants:       tenants,
		verifyTimeout: verifyTimeout,
		logger:        logger.With("component", "token_service"),
		now:           time.Now,
	}
}

// Issue produces a signed token for the given user. The expiry is fixed at
// issuance as now + TTL.
func (s *TokenService) Issue(user *domain.DashboardUser) (string, error) {
	now := s.now()
	claims := &Claims{
		TenantID:    user.TenantID,
		UserType:    user.UserType,
		Permissions: user.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string. A cryptographically valid token
// is still rejected the moment its tenant is deactivated; that liveness read
// is synchronous, bounded by the verify timeout, and fails closed.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		s.logger.Warn("token validation failed", "error", err)
		return nil, domain.ErrInvalidCredential
	}
	if !token.Valid {
		return nil, domain.ErrInvalidCredential
	}

	if claims.TenantID != "" {
		lookupCtx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
		defer cancel()

		tenant, err := s.tenants.FindByID(lookupCtx, claims.TenantID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrTenantInactive
			}
			// Credential store unreachable: fail closed.
			s.logger.Error("tenant liveness check failed", "tenant_id", claims.TenantID, "error", err)
			return nil, domain.ErrInvalidCredential
		}
		if !tenant.IsActive {
			return nil, domain.ErrTenantInactive
		}
	}

	return claims, nil
}
