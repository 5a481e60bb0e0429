package usecase

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/josefe-ing/storepulse/internal/domain"
)

func testCache(ttl time.Duration) *APIKeyCache {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAPIKeyCache(ttl, nil, logger)
}

func TestAPIKeyCache(t *testing.T) {
	authCtx := domain.AuthContext{TenantID: "t1", StoreID: "s1", KeyID: "store_t1_s1"}
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Hit Within TTL", func(t *testing.T) {
		c := testCache(5 * time.Minute)
		now := base
		c.now = func() time.Time { return now }

		c.Put("digest", authCtx)

		now = base.Add(4 * time.Minute)
		got, ok := c.Get("digest")
		if !ok {
			t.Fatal("expected a hit")
		}
		if got != authCtx {
			t.Errorf("got %+v, want %+v", got, authCtx)
		}
	})

	t.Run("Expired Entry Is A Miss", func(t *testing.T) {
		c := testCache(5 * time.Minute)
		now := base
		c.now = func() time.Time { return now }

		c.Put("digest", authCtx)

		now = base.Add(5*time.Minute + time.Second)
		if _, ok := c.Get("digest"); ok {
			t.Fatal("expected a miss after TTL")
		}
		// Expired entries are ignored, not purged, until overwritten or swept.
		if c.Len() != 1 {
			t.Errorf("expected entry to remain, len=%d", c.Len())
		}
	})

	t.Run("Unknown Digest Is A Miss", func(t *testing.T) {
		c := testCache(5 * time.Minute)
		if _, ok := c.Get("nope"); ok {
			t.Fatal("expected a miss")
		}
	})

	t.Run("Overwrite Refreshes Expiry", func(t *testing.T) {
		c := testCache(5 * time.Minute)
		now := base
		c.now = func() time.Time { return now }

		c.Put("digest", authCtx)
		now = base.Add(4 * time.Minute)
		c.Put("digest", authCtx)

		now = base.Add(8 * time.Minute)
		if _, ok := c.Get("digest"); !ok {
			t.Fatal("expected refreshed entry to still be valid")
		}
	})

	t.Run("Sweep Evicts Expired Only", func(t *testing.T) {
		c := testCache(5 * time.Minute)
		now := base
		c.now = func() time.Time { return now }

		c.Put("old", authCtx)
		now = base.Add(4 * time.Minute)
		c.Put("fresh", authCtx)

		now = base.Add(6 * time.Minute)
		if removed := c.sweep(); removed != 1 {
			t.Fatalf("expected 1 eviction, got %d", removed)
		}
		if c.Len() != 1 {
			t.Errorf("expected 1 entry left, got %d", c.Len())
		}
		if _, ok := c.Get("fresh"); !ok {
			t.Error("fresh entry must survive the sweep")
		}
	})
}

func TestAPIKeyCache_ConcurrentAccess(t *testing.T) {
	c := testCache(5 * time.Minute)
	authCtx := domain.AuthContext{TenantID: "t1", StoreID: "s1"}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 500; j++ {
				c.Put("digest", authCtx)
				c.Get("digest")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	if got, ok := c.Get("digest"); !ok || got != authCtx {
		t.Fatalf("expected consistent entry, got %+v ok=%v", got, ok)
	}
}
