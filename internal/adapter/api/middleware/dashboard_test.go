package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/josefe-ing/storepulse/internal/domain"
	"github.com/josefe-ing/storepulse/internal/domain/mocks"
	"github.com/josefe-ing/storepulse/internal/usecase"
)

func dashboardFixture(t *testing.T, required ...string) (*usecase.TokenService, http.Handler, *bool) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tenants := &mocks.MockTenantRepository{
		Tenants: map[string]*domain.Tenant{
			"t1": {ID: "t1", IsActive: true},
		},
	}
	tokens := usecase.NewTokenService("test-secret", time.Hour, time.Second, tenants, logger)

	reached := false
	guarded := DashboardAuth(tokens, logger, required...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFrom(r.Context()); !ok {
			t.Error("claims missing from guarded handler context")
		}
		reached = true
		w.WriteHeader(http.StatusOK)
	}))
	return tokens, guarded, &reached
}

func adminToken(t *testing.T, tokens *usecase.TokenService, perms ...string) string {
	t.Helper()
	token, err := tokens.Issue(&domain.DashboardUser{
		ID:          "user_t1_1",
		TenantID:    "t1",
		UserType:    domain.UserTypeAdmin,
		Permissions: perms,
	})
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestDashboardAuth(t *testing.T) {
	t.Run("Valid Token With Permission", func(t *testing.T) {
		tokens, guarded, reached := dashboardFixture(t, "admin:tenants")
		token := adminToken(t, tokens, "admin:tenants")

		req := httptest.NewRequest(http.MethodGet, "/v1/admin/tenants", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK || !*reached {
			t.Fatalf("expected 200 and handler to run, got %d reached=%v", rec.Code, *reached)
		}
	})

	t.Run("No Token", func(t *testing.T) {
		_, guarded, reached := dashboardFixture(t, "admin:tenants")

		req := httptest.NewRequest(http.MethodGet, "/v1/admin/tenants", nil)
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized || *reached {
			t.Fatalf("expected 401, got %d reached=%v", rec.Code, *reached)
		}
	})

	t.Run("Garbage Token", func(t *testing.T) {
		_, guarded, reached := dashboardFixture(t, "admin:tenants")

		req := httptest.NewRequest(http.MethodGet, "/v1/admin/tenants", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized || *reached {
			t.Fatalf("expected 401, got %d reached=%v", rec.Code, *reached)
		}
	})

	t.Run("Missing Permission Is Forbidden", func(t *testing.T) {
		tokens, guarded, reached := dashboardFixture(t, "admin:tenants")
		token := adminToken(t, tokens, "read:metrics")

		req := httptest.NewRequest(http.MethodGet, "/v1/admin/tenants", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden || *reached {
			t.Fatalf("expected 403, got %d reached=%v", rec.Code, *reached)
		}
	})
}
