package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/josefe-ing/storepulse/internal/domain"
)

// MockTenantRepository is an in-memory implementation of
// domain.TenantRepository for testing.
type MockTenantRepository struct {
	mu        sync.Mutex
	Tenants   map[string]*domain.Tenant
	FindErr   error
	CreateErr error
	FindCalls int
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, ok := m.Tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTenantRepository) List(ctx context.Context, activeOnly bool) ([]domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Tenant
	for _, t := range m.Tenants {
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *MockTenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, ok := m.Tenants[t.ID]; ok {
		return domain.ErrConflict
	}
	if m.Tenants == nil {
		m.Tenants = make(map[string]*domain.Tenant)
	}
	cp := *t
	m.Tenants[t.ID] = &cp
	return nil
}

func (m *MockTenantRepository) Update(ctx context.Context, id string, upd domain.TenantUpdate) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.CompanyName != nil {
		t.CompanyName = *upd.CompanyName
	}
	if upd.PlanType != nil {
		t.PlanType = *upd.PlanType
	}
	if upd.MaxStores != nil {
		t.MaxStores = *upd.MaxStores
	}
	if upd.MaxMonthlyCost != nil {
		t.MaxMonthlyCost = *upd.MaxMonthlyCost
	}
	if upd.BillingEmail != nil {
		t.BillingEmail = *upd.BillingEmail
	}
	if upd.AdminContact != nil {
		t.AdminContact = *upd.AdminContact
	}
	if upd.WhatsappNumbers != nil {
		t.WhatsappNumbers = upd.WhatsappNumbers
	}
	if upd.IsActive != nil {
		t.IsActive = *upd.IsActive
	}
	cp := *t
	return &cp, nil
}

// MockStoreRepository is an in-memory implementation of
// domain.StoreRepository for testing.
type MockStoreRepository struct {
	mu        sync.Mutex
	Stores    []*domain.Store
	CountErr  error
	CreateErr error
}

func (m *MockStoreRepository) FindByID(ctx context.Context, tenantID, storeID string) (*domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.Stores {
		if s.TenantID == tenantID && s.ID == storeID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockStoreRepository) List(ctx context.Context, tenantID string) ([]domain.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Store
	for _, s := range m.Stores {
		if s.TenantID == tenantID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *MockStoreRepository) Create(ctx context.Context, s *domain.Store) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	for _, existing := range m.Stores {
		if existing.TenantID == s.TenantID && existing.ID == s.ID {
			return domain.ErrConflict
		}
	}
	cp := *s
	m.Stores = append(m.Stores, &cp)
	return nil
}

func (m *MockStoreRepository) CountActive(ctx context.Context, tenantID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	count := 0
	for _, s := range m.Stores {
		if s.TenantID == tenantID && s.IsActive {
			count++
		}
	}
	return count, nil
}

// MockAPIKeyRepository is an in-memory implementation of
// domain.APIKeyRepository for testing. LookupCalls counts external-store
// reads so tests can assert cache behavior.
type MockAPIKeyRepository struct {
	mu          sync.Mutex
	Lookups     map[string]*domain.KeyLookup
	Keys        []*domain.APIKey
	LookupErr   error
	RotateErr   error
	TouchErr    error
	LookupCalls int
	Touches     []string
}

func (m *MockAPIKeyRepository) FindActiveByDigest(ctx context.Context, digest string) (*domain.KeyLookup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LookupCalls++
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lk, ok := m.Lookups[digest]
	if !ok {
		return nil, nil
	}
	cp := *lk
	return &cp, nil
}

func (m *MockAPIKeyRepository) Rotate(ctx context.Context, key *domain.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RotateErr != nil {
		return m.RotateErr
	}
	for _, k := range m.Keys {
		if k.TenantID == key.TenantID && k.StoreID == key.StoreID {
			k.IsActive = false
		}
	}
	cp := *key
	m.Keys = append(m.Keys, &cp)
	return nil
}

func (m *MockAPIKeyRepository) TouchLastUsed(ctx context.Context, digest string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TouchErr != nil {
		return m.TouchErr
	}
	m.Touches = append(m.Touches, digest)
	return nil
}

func (m *MockAPIKeyRepository) ListByTenant(ctx context.Context, tenantID string) ([]domain.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.APIKey
	for _, k := range m.Keys {
		if k.TenantID == tenantID {
			out = append(out, *k)
		}
	}
	return out, nil
}

func (m *MockAPIKeyRepository) Revoke(ctx context.Context, tenantID, keyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.Keys {
		if k.TenantID == tenantID && k.KeyID == keyID {
			k.IsActive = false
			return nil
		}
	}
	return domain.ErrNotFound
}

// TouchCount returns the number of recorded last-used updates.
func (m *MockAPIKeyRepository) TouchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Touches)
}

// Calls returns the number of external-store lookups performed.
func (m *MockAPIKeyRepository) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LookupCalls
}

// MockUserRepository is an in-memory implementation of
// domain.UserRepository for testing. Users are keyed by email.
type MockUserRepository struct {
	mu        sync.Mutex
	Users     map[string]*domain.DashboardUser
	CreateErr error
	Logins    []string
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.DashboardUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.Users[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.DashboardUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, ok := m.Users[u.Email]; ok {
		return domain.ErrConflict
	}
	if m.Users == nil {
		m.Users = make(map[string]*domain.DashboardUser)
	}
	cp := *u
	m.Users[u.Email] = &cp
	return nil
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logins = append(m.Logins, userID)
	return nil
}

// MockUsageRepository is a canned implementation of domain.UsageRepository.
type MockUsageRepository struct {
	mu          sync.Mutex
	WeeklyCount int64
	CountErr    error
	LastEvent   *time.Time
}

func (m *MockUsageRepository) CountEventsSince(ctx context.Context, tenantID string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	return m.WeeklyCount, nil
}

func (m *MockUsageRepository) LastEventAt(ctx context.Context, tenantID string) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastEvent, nil
}

// MockActivityRecorder captures recorded activities.
type MockActivityRecorder struct {
	mu         sync.Mutex
	Activities []domain.Activity
	RecordErr  error
}

func (m *MockActivityRecorder) Record(ctx context.Context, a domain.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Activities = append(m.Activities, a)
	return nil
}

// Recorded returns a copy of the captured activities.
func (m *MockActivityRecorder) Recorded() []domain.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Activity, len(m.Activities))
	copy(out, m.Activities)
	return out
}

// MockNotifier captures cost alerts.
type MockNotifier struct {
	mu     sync.Mutex
	Alerts []domain.CostAlert
}

func (m *MockNotifier) NotifyCostAlert(ctx context.Context, alert domain.CostAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Alerts = append(m.Alerts, alert)
	return nil
}

// Sent returns a copy of the captured alerts.
func (m *MockNotifier) Sent() []domain.CostAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CostAlert, len(m.Alerts))
	copy(out, m.Alerts)
	return out
}

// MockTenantConn records whether Release was called.
type MockTenantConn struct {
	mu       sync.Mutex
	Released bool
}

func (m *MockTenantConn) Release(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Released = true
	return nil
}

// IsReleased reports whether Release has been called.
func (m *MockTenantConn) IsReleased() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Released
}

// MockIsolationRepository records acquired tenant contexts.
type MockIsolationRepository struct {
	mu         sync.Mutex
	AcquireErr error
	Acquired   []string
	Conns      []*MockTenantConn
}

func (m *MockIsolationRepository) Acquire(ctx context.Context, tenantID string) (domain.TenantConn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AcquireErr != nil {
		return nil, m.AcquireErr
	}
	m.Acquired = append(m.Acquired, tenantID)
	conn := &MockTenantConn{}
	m.Conns = append(m.Conns, conn)
	return conn, nil
}

// AcquiredTenants returns a copy of the tenant ids passed to Acquire.
func (m *MockIsolationRepository) AcquiredTenants() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Acquired))
	copy(out, m.Acquired)
	return out
}
