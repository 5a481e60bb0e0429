package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/josefe-ing/storepulse/internal/domain"
	"github.com/josefe-ing/storepulse/internal/domain/mocks"
)

func testResolver(repo *mocks.MockAPIKeyRepository, ttl time.Duration) (*TenantResolver, *APIKeyCache) {
	cache := testCache(ttl)
	verifier := testVerifier(repo)
	return NewTenantResolver(cache, verifier), cache
}

func liveKey() *domain.KeyLookup {
	return &domain.KeyLookup{
		TenantID: "t1", StoreID: "s1", KeyID: "store_t1_s1",
		TenantActive: true, StoreActive: true,
	}
}

func TestTenantResolver_Resolve(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Second Call Within TTL Skips Store", func(t *testing.T) {
		repo := keyRepoWith(liveKey())
		resolver, cache := testResolver(repo, 5*time.Minute)
		now := base
		cache.now = func() time.Time { return now }

		first, err := resolver.Resolve(context.Background(), testRawKey)
		if err != nil {
			t.Fatalf("first resolve: %v", err)
		}

		now = base.Add(4 * time.Minute)
		second, err := resolver.Resolve(context.Background(), testRawKey)
		if err != nil {
			t.Fatalf("second resolve: %v", err)
		}

		if got := repo.Calls(); got != 1 {
			t.Errorf("expected exactly 1 store lookup, got %d", got)
		}
		if first != second {
			t.Errorf("resolutions differ: %+v vs %+v", first, second)
		}
	})

	t.Run("Call After TTL Hits Store Again", func(t *testing.T) {
		repo := keyRepoWith(liveKey())
		resolver, cache := testResolver(repo, 5*time.Minute)
		now := base
		cache.now = func() time.Time { return now }

		if _, err := resolver.Resolve(context.Background(), testRawKey); err != nil {
			t.Fatalf("first resolve: %v", err)
		}

		now = base.Add(5*time.Minute + time.Second)
		if _, err := resolver.Resolve(context.Background(), testRawKey); err != nil {
			t.Fatalf("second resolve: %v", err)
		}

		if got := repo.Calls(); got != 2 {
			t.Errorf("expected 2 store lookups across TTL expiry, got %d", got)
		}
	})

	t.Run("Failures Are Never Cached", func(t *testing.T) {
		repo := &mocks.MockAPIKeyRepository{}
		resolver, _ := testResolver(repo, 5*time.Minute)

		for i := 0; i < 3; i++ {
			_, err := resolver.Resolve(context.Background(), testRawKey)
			if !errors.Is(err, domain.ErrInvalidCredential) {
				t.Fatalf("resolve %d: got %v, want ErrInvalidCredential", i, err)
			}
		}
		if got := repo.Calls(); got != 3 {
			t.Errorf("each failed resolve must hit the store, got %d lookups", got)
		}
	})

	t.Run("Missing Credential", func(t *testing.T) {
		repo := keyRepoWith(liveKey())
		resolver, _ := testResolver(repo, 5*time.Minute)

		_, err := resolver.Resolve(context.Background(), "")
		if !errors.Is(err, domain.ErrMissingCredential) {
			t.Fatalf("got %v, want ErrMissingCredential", err)
		}
		if got := repo.Calls(); got != 0 {
			t.Errorf("empty credential must not reach the store, got %d lookups", got)
		}
	})

	t.Run("Deactivated Tenant After Expiry Is Rejected", func(t *testing.T) {
		repo := keyRepoWith(liveKey())
		resolver, cache := testResolver(repo, 5*time.Minute)
		now := base
		cache.now = func() time.Time { return now }

		if _, err := resolver.Resolve(context.Background(), testRawKey); err != nil {
			t.Fatalf("first resolve: %v", err)
		}

		// Tenant is shut off mid-window. The stale entry keeps answering
		// until the TTL lapses, then the fresh lookup sees the deactivation.
		repo.Lookups[DigestKey(testRawKey)].TenantActive = false

		now = base.Add(4 * time.Minute)
		if _, err := resolver.Resolve(context.Background(), testRawKey); err != nil {
			t.Fatalf("within TTL the cached context still answers: %v", err)
		}

		now = base.Add(5*time.Minute + time.Second)
		_, err := resolver.Resolve(context.Background(), testRawKey)
		if !errors.Is(err, domain.ErrTenantInactive) {
			t.Fatalf("got %v, want ErrTenantInactive", err)
		}
	})
}
