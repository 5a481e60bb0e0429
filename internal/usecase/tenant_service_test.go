package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/josefe-ing/storepulse/internal/domain"
	"github.com/josefe-ing/storepulse/internal/domain/mocks"
)

type serviceFixture struct {
	service *TenantService
	tenants *mocks.MockTenantRepository
	stores  *mocks.MockStoreRepository
	keys    *mocks.MockAPIKeyRepository
	users   *mocks.MockUserRepository
	usage   *mocks.MockUsageRepository
}

func newServiceFixture() *serviceFixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &serviceFixture{
		tenants: &mocks.MockTenantRepository{Tenants: map[string]*domain.Tenant{}},
		stores:  &mocks.MockStoreRepository{},
		keys:    &mocks.MockAPIKeyRepository{},
		users:   &mocks.MockUserRepository{},
		usage:   &mocks.MockUsageRepository{},
	}
	quota := NewQuotaEngine(f.tenants, f.stores, f.usage, &mocks.MockNotifier{}, nil, logger)
	tokens := NewTokenService("test-secret", time.Hour, time.Second, f.tenants, logger)
	f.service = NewTenantService(f.tenants, f.stores, f.keys, f.users, f.usage, quota, tokens, logger)
	return f
}

func (f *serviceFixture) seedTenant(id string, maxStores int) {
	f.tenants.Tenants[id] = &domain.Tenant{
		ID:             id,
		CompanyName:    "Acme Retail",
		PlanType:       "basic",
		MaxStores:      maxStores,
		MaxMonthlyCost: 265.00,
		IsActive:       true,
	}
}

func (f *serviceFixture) seedStore(tenantID, storeID string, active bool) {
	f.stores.Stores = append(f.stores.Stores, &domain.Store{
		ID: storeID, TenantID: tenantID, Name: storeID, IsActive: active,
	})
}

func TestTenantService_CreateTenant(t *testing.T) {
	t.Run("Applies Plan Defaults", func(t *testing.T) {
		f := newServiceFixture()

		tenant, err := f.service.CreateTenant(context.Background(), CreateTenantInput{
			TenantID:    "t1",
			CompanyName: "Acme Retail",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tenant.PlanType != "basic" || tenant.MaxStores != 30 || tenant.MaxMonthlyCost != 265.00 {
			t.Errorf("unexpected defaults: %+v", tenant)
		}
		if !tenant.IsActive {
			t.Error("new tenants must start active")
		}
	})

	t.Run("Rejects Missing Fields", func(t *testing.T) {
		f := newServiceFixture()

		if _, err := f.service.CreateTenant(context.Background(), CreateTenantInput{TenantID: "t1"}); err == nil {
			t.Fatal("expected an error without company_name")
		}
	})

	t.Run("Duplicate Id Conflicts", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 30)

		_, err := f.service.CreateTenant(context.Background(), CreateTenantInput{
			TenantID: "t1", CompanyName: "Other",
		})
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})
}

func TestTenantService_CreateStore(t *testing.T) {
	t.Run("Below Limit Succeeds", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 2)
		f.seedStore("t1", "s1", true)

		store, err := f.service.CreateStore(context.Background(), "t1", "s2", "Branch Two")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !store.IsActive {
			t.Error("new stores must start active")
		}
	})

	t.Run("At Limit Rejects Before Persisting", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 1)
		f.seedStore("t1", "s1", true)

		_, err := f.service.CreateStore(context.Background(), "t1", "s2", "Branch Two")
		if !errors.Is(err, domain.ErrStoreLimitExceeded) {
			t.Fatalf("expected ErrStoreLimitExceeded, got %v", err)
		}
		if len(f.stores.Stores) != 1 {
			t.Errorf("rejected store must not be persisted, have %d", len(f.stores.Stores))
		}
	})
}

func TestTenantService_IssueAPIKey(t *testing.T) {
	t.Run("Raw Key Format And Stored Digest", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 30)
		f.seedStore("t1", "s1", true)

		issued, err := f.service.IssueAPIKey(context.Background(), "t1", "s1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(issued.RawKey, "store_t1_s1_") {
			t.Errorf("raw key %q lacks the store prefix", issued.RawKey)
		}
		if issued.KeyID != "store_t1_s1" {
			t.Errorf("key id = %q, want store_t1_s1", issued.KeyID)
		}

		if len(f.keys.Keys) != 1 {
			t.Fatalf("expected 1 persisted key, got %d", len(f.keys.Keys))
		}
		stored := f.keys.Keys[0]
		if stored.KeyHash != DigestKey(issued.RawKey) {
			t.Error("persisted digest must match the raw key")
		}
		if stored.KeyHash == issued.RawKey {
			t.Error("raw secret must never be persisted")
		}
	})

	t.Run("Rotation Deactivates Only That Store", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 30)
		f.seedStore("t1", "s1", true)
		f.seedStore("t1", "s2", true)

		if _, err := f.service.IssueAPIKey(context.Background(), "t1", "s1"); err != nil {
			t.Fatal(err)
		}
		if _, err := f.service.IssueAPIKey(context.Background(), "t1", "s2"); err != nil {
			t.Fatal(err)
		}
		if _, err := f.service.IssueAPIKey(context.Background(), "t1", "s1"); err != nil {
			t.Fatal(err)
		}

		active := map[string]int{}
		for _, k := range f.keys.Keys {
			if k.IsActive {
				active[k.StoreID]++
			}
		}
		if active["s1"] != 1 || active["s2"] != 1 {
			t.Errorf("expected exactly one active key per store, got %v", active)
		}
	})

	t.Run("Inactive Store Refuses", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 30)
		f.seedStore("t1", "s1", false)

		_, err := f.service.IssueAPIKey(context.Background(), "t1", "s1")
		if !errors.Is(err, domain.ErrStoreInactive) {
			t.Fatalf("expected ErrStoreInactive, got %v", err)
		}
	})
}

func TestTenantService_ListAPIKeys_RedactsDigests(t *testing.T) {
	f := newServiceFixture()
	f.seedTenant("t1", 30)
	f.seedStore("t1", "s1", true)

	if _, err := f.service.IssueAPIKey(context.Background(), "t1", "s1"); err != nil {
		t.Fatal(err)
	}

	keys, err := f.service.ListAPIKeys(context.Background(), "t1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(keys))
	}
	if keys[0].KeyHash != "" {
		t.Error("listings must not expose digests")
	}
}

func TestTenantService_CreateDashboardUser(t *testing.T) {
	t.Run("Temporary Password Round Trip", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 30)

		user, tempPassword, err := f.service.CreateDashboardUser(context.Background(), "t1", "ops@acme.example", "", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tempPassword == "" {
			t.Fatal("temporary password must be returned")
		}
		if user.PasswordHash == tempPassword {
			t.Fatal("password must be stored hashed")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tempPassword)); err != nil {
			t.Fatalf("stored hash does not verify the temporary password: %v", err)
		}
		if !user.PasswordChangeRequired {
			t.Error("new accounts must require a password change")
		}
		if user.UserType != domain.UserTypeClient {
			t.Errorf("user type default = %q, want client", user.UserType)
		}
		if len(user.Permissions) != 2 || user.Permissions[0] != "read:metrics" {
			t.Errorf("unexpected default permissions: %v", user.Permissions)
		}
	})

	t.Run("Inactive Tenant Refuses", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 30)
		f.tenants.Tenants["t1"].IsActive = false

		_, _, err := f.service.CreateDashboardUser(context.Background(), "t1", "ops@acme.example", "", nil)
		if !errors.Is(err, domain.ErrTenantInactive) {
			t.Fatalf("expected ErrTenantInactive, got %v", err)
		}
	})
}

func TestTenantService_Login(t *testing.T) {
	seedUser := func(f *serviceFixture, password string, active bool) *domain.DashboardUser {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		user := &domain.DashboardUser{
			ID:           "user_t1_1",
			TenantID:     "t1",
			Email:        "ops@acme.example",
			PasswordHash: string(hash),
			UserType:     domain.UserTypeClient,
			Permissions:  []string{"read:metrics"},
			IsActive:     active,
		}
		f.users.Users = map[string]*domain.DashboardUser{user.Email: user}
		return user
	}

	t.Run("Success Issues Verifiable Token", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 30)
		seedUser(f, "hunter2", true)

		token, user, err := f.service.Login(context.Background(), "ops@acme.example", "hunter2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.Email != "ops@acme.example" {
			t.Errorf("unexpected user: %+v", user)
		}

		claims, err := f.service.tokens.Verify(context.Background(), token)
		if err != nil {
			t.Fatalf("issued token failed verification: %v", err)
		}
		if claims.TenantID != "t1" || claims.Subject != "user_t1_1" {
			t.Errorf("unexpected claims: %+v", claims)
		}

		if len(f.users.Logins) != 1 {
			t.Errorf("expected login timestamp to be recorded, got %v", f.users.Logins)
		}
	})

	t.Run("Wrong Password", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 30)
		seedUser(f, "hunter2", true)

		_, _, err := f.service.Login(context.Background(), "ops@acme.example", "wrong")
		if !errors.Is(err, ErrInvalidLogin) {
			t.Fatalf("expected ErrInvalidLogin, got %v", err)
		}
	})

	t.Run("Unknown Email Is Indistinguishable", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 30)
		seedUser(f, "hunter2", true)

		_, _, unknownErr := f.service.Login(context.Background(), "nobody@acme.example", "hunter2")
		_, _, wrongErr := f.service.Login(context.Background(), "ops@acme.example", "wrong")
		if !errors.Is(unknownErr, ErrInvalidLogin) || !errors.Is(wrongErr, ErrInvalidLogin) {
			t.Fatalf("both failures must collapse: %v vs %v", unknownErr, wrongErr)
		}
		if unknownErr.Error() != wrongErr.Error() {
			t.Error("failure messages must not reveal which field was wrong")
		}
	})

	t.Run("Deactivated User", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 30)
		seedUser(f, "hunter2", false)

		_, _, err := f.service.Login(context.Background(), "ops@acme.example", "hunter2")
		if !errors.Is(err, ErrInvalidLogin) {
			t.Fatalf("expected ErrInvalidLogin, got %v", err)
		}
	})

	t.Run("Deactivated Tenant", func(t *testing.T) {
		f := newServiceFixture()
		f.seedTenant("t1", 30)
		f.tenants.Tenants["t1"].IsActive = false
		seedUser(f, "hunter2", true)

		_, _, err := f.service.Login(context.Background(), "ops@acme.example", "hunter2")
		if !errors.Is(err, domain.ErrTenantInactive) {
			t.Fatalf("expected ErrTenantInactive, got %v", err)
		}
	})
}

func TestTenantService_TenantStats(t *testing.T) {
	f := newServiceFixture()
	f.seedTenant("t1", 30)
	f.seedStore("t1", "s1", true)
	f.seedStore("t1", "s2", true)
	f.seedStore("t1", "s3", false)
	f.usage.WeeklyCount = 5000
	last := time.Date(2025, 3, 1, 11, 30, 0, 0, time.UTC)
	f.usage.LastEvent = &last

	stats, err := f.service.TenantStats(context.Background(), "t1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if stats.StoreCount != 2 {
		t.Errorf("store count = %d, want 2 active", stats.StoreCount)
	}
	if stats.DailyEvents != 5000 || stats.ProjectedMonthlyEvents != 150000 {
		t.Errorf("unexpected event counts: %+v", stats)
	}
	if stats.LastActivity == nil || !stats.LastActivity.Equal(last) {
		t.Errorf("unexpected last activity: %v", stats.LastActivity)
	}
}

func TestRandomToken(t *testing.T) {
	a := randomToken(32)
	b := randomToken(32)
	if a == b {
		t.Fatal("tokens must not repeat")
	}
	if len(a) < 40 {
		t.Fatalf("32 bytes of entropy encode longer than %d chars", len(a))
	}
}
