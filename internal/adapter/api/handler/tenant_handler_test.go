package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/josefe-ing/storepulse/internal/domain"
	"github.com/josefe-ing/storepulse/internal/domain/mocks"
	"github.com/josefe-ing/storepulse/internal/usecase"
)

func handlerFixture(t *testing.T) (*http.ServeMux, *mocks.MockTenantRepository, *mocks.MockStoreRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tenants := &mocks.MockTenantRepository{Tenants: map[string]*domain.Tenant{}}
	stores := &mocks.MockStoreRepository{}
	keys := &mocks.MockAPIKeyRepository{}
	users := &mocks.MockUserRepository{}
	usage := &mocks.MockUsageRepository{}
	quota := usecase.NewQuotaEngine(tenants, stores, usage, &mocks.MockNotifier{}, nil, logger)
	tokens := usecase.NewTokenService("test-secret", time.Hour, time.Second, tenants, logger)
	service := usecase.NewTenantService(tenants, stores, keys, users, usage, quota, tokens, logger)

	mux := http.NewServeMux()
	NewTenantHandler(service, logger).Register(mux)
	return mux, tenants, stores
}

func do(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestTenantHandler_CreateTenant(t *testing.T) {
	mux, tenants, _ := handlerFixture(t)

	rec := do(t, mux, http.MethodPost, "/v1/admin/tenants",
		`{"tenant_id":"t1","company_name":"Acme Retail"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}

	var created domain.Tenant
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID != "t1" || created.MaxStores != 30 || created.PlanType != "basic" {
		t.Errorf("unexpected tenant: %+v", created)
	}
	if _, ok := tenants.Tenants["t1"]; !ok {
		t.Error("tenant not persisted")
	}

	// Same id again conflicts.
	rec = do(t, mux, http.MethodPost, "/v1/admin/tenants",
		`{"tenant_id":"t1","company_name":"Other"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestTenantHandler_GetTenant_NotFound(t *testing.T) {
	mux, _, _ := handlerFixture(t)

	rec := do(t, mux, http.MethodGet, "/v1/admin/tenants/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTenantHandler_CreateStore_QuotaRejection(t *testing.T) {
	mux, tenants, stores := handlerFixture(t)
	tenants.Tenants["t1"] = &domain.Tenant{
		ID: "t1", CompanyName: "Acme Retail", MaxStores: 1, MaxMonthlyCost: 265.00, IsActive: true,
	}
	stores.Stores = append(stores.Stores, &domain.Store{ID: "s1", TenantID: "t1", IsActive: true})

	rec := do(t, mux, http.MethodPost, "/v1/admin/tenants/t1/stores",
		`{"store_id":"s2","store_name":"Branch Two"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 at the store limit, got %d: %s", rec.Code, rec.Body)
	}
}

func TestTenantHandler_IssueAPIKey(t *testing.T) {
	mux, tenants, stores := handlerFixture(t)
	tenants.Tenants["t1"] = &domain.Tenant{
		ID: "t1", CompanyName: "Acme Retail", MaxStores: 30, MaxMonthlyCost: 265.00, IsActive: true,
	}
	stores.Stores = append(stores.Stores, &domain.Store{ID: "s1", TenantID: "t1", IsActive: true})

	rec := do(t, mux, http.MethodPost, "/v1/admin/tenants/t1/stores/s1/api-key", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}

	var issued domain.IssuedKey
	if err := json.NewDecoder(rec.Body).Decode(&issued); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(issued.RawKey, "store_t1_s1_") {
		t.Errorf("raw key %q lacks store prefix", issued.RawKey)
	}

	// The listing never exposes the raw key or its digest.
	rec = do(t, mux, http.MethodGet, "/v1/admin/tenants/t1/api-keys", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, issued.RawKey) || strings.Contains(body, "key_hash") {
		t.Errorf("listing leaks key material: %s", body)
	}
}
