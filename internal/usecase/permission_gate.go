package usecase

import (
	"fmt"

	"github.com/josefe-ing/storepulse/internal/domain"
)

// RequirePermissions fails with ErrPermissionDenied when any needed
// permission is absent from the claims' capability set. Pure predicate, no
// side effects; the missing permission is named because it is not sensitive.
func RequirePermissions(claims *Claims, needed ...string) error {
	for _, perm := range needed {
		if !hasPermission(claims.Permissions, perm) {
			return fmt.Errorf("required: %s: %w", perm, domain.ErrPermissionDenied)
		}
	}
	return nil
}

// RequireTenant fails with ErrTenantMismatch when the authenticated tenant
// differs from the one being accessed.
func RequireTenant(claims *Claims, tenantID string) error {
	if claims.TenantID != tenantID {
		return fmt.Errorf("tenant %s: %w", tenantID, domain.ErrTenantMismatch)
	}
	return nil
}

func hasPermission(set []string, perm string) bool {
	for _, p := range set {
		if p == perm {
			return true
		}
	}
	return false
}
