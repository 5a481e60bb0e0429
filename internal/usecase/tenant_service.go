package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/josefe-ing/storepulse/internal/domain"
)

var defaultUserPermissions = []string{"read:metrics", "read:alerts"}

// ErrInvalidLogin is returned for any failed dashboard login. The caller is
// never told whether the email or the password was wrong.
var ErrInvalidLogin = errors.New("invalid email or password")

// TenantService is the management surface for tenants, stores, API keys, and
// dashboard users. Store creation goes through the quota engine; key issuance
// rotates atomically so at most one key per store is ever active.
type TenantService struct {
	tenants domain.TenantRepository
	stores  domain.StoreRepository
	keys    domain.APIKeyRepository
	users   domain.UserRepository
	usage   domain.UsageRepository
	quota   *QuotaEngine
	tokens  *TokenService
	logger  *slog.Logger
	now     func() time.Time
}

// NewTenantService wires the management service.
func NewTenantService(
	tenants domain.TenantRepository,
	stores domain.StoreRepository,
	keys domain.APIKeyRepository,
	users domain.UserRepository,
	usage domain.UsageRepository,
	quota *QuotaEngine,
	tokens *TokenService,
	logger *slog.Logger,
) *TenantService {
	return &TenantService{
		tenants: tenants,
		stores:  stores,
		keys:    keys,
		users:   users,
		usage:   usage,
		quota:   quota,
		tokens:  tokens,
		logger:  logger.With("component", "tenant_service"),
		now:     time.Now,
	}
}

// CreateTenantInput carries the provisioning parameters for a new tenant.
type CreateTenantInput struct {
	TenantID        string   `json:"tenant_id"`
	CompanyName     string   `json:"company_name"`
	PlanType        string   `json:"plan_type"`
	MaxStores       int      `json:"max_stores"`
	MaxMonthlyCost  float64  `json:"max_monthly_cost"`
	BillingEmail    string   `json:"billing_email"`
	AdminContact    string   `json:"admin_contact"`
	WhatsappNumbers []string `json:"whatsapp_numbers"`
}

// CreateTenant provisions a new tenant. Defaults match the basic plan.
func (s *TenantService) CreateTenant(ctx context.Context, in CreateTenantInput) (*domain.Tenant, error) {
	if in.TenantID == "" || in.CompanyName == "" {
		return nil, fmt.Errorf("tenant_id and company_name are required")
	}
	if in.PlanType == "" {
		in.PlanType = "basic"
	}
	if in.MaxStores <= 0 {
		in.MaxStores = 30
	}
	if in.MaxMonthlyCost <= 0 {
		in.MaxMonthlyCost = 265.00
	}

	tenant := &domain.Tenant{
		ID:              in.TenantID,
		CompanyName:     in.CompanyName,
		PlanType:        in.PlanType,
		MaxStores:       in.MaxStores,
		MaxMonthlyCost:  in.MaxMonthlyCost,
		BillingEmail:    in.BillingEmail,
		AdminContact:    in.AdminContact,
		WhatsappNumbers: in.WhatsappNumbers,
		IsActive:        true,
		CreatedAt:       s.now(),
	}

	if err := s.tenants.Create(ctx, tenant); err != nil {
		return nil, fmt.Errorf("create tenant %s: %w", in.TenantID, err)
	}

	s.logger.Info("created tenant", "tenant_id", tenant.ID, "company", tenant.CompanyName)
	return tenant, nil
}

// GetTenant returns a tenant by id.
func (s *TenantService) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	return s.tenants.FindByID(ctx, tenantID)
}

// ListTenants lists tenants, optionally only active ones.
func (s *TenantService) ListTenants(ctx context.Context, activeOnly bool) ([]domain.Tenant, error) {
	return s.tenants.List(ctx, activeOnly)
}

// UpdateTenant applies a partial update. Deactivation (IsActive=false) is the
// only destructive operation; tenants are never hard-deleted.
func (s *TenantService) UpdateTenant(ctx context.Context, tenantID string, upd domain.TenantUpdate) (*domain.Tenant, error) {
	tenant, err := s.tenants.Update(ctx, tenantID, upd)
	if err != nil {
		return nil, fmt.Errorf("update tenant %s: %w", tenantID, err)
	}
	s.logger.Info("updated tenant", "tenant_id", tenantID)
	return tenant, nil
}

// CreateStore creates a store under a tenant after a synchronous store-limit
// check. active_store_count <= max_stores holds at creation time.
func (s *TenantService) CreateStore(ctx context.Context, tenantID, storeID, storeName string) (*domain.Store, error) {
	if err := s.quota.CheckStoreLimit(ctx, tenantID); err != nil {
		return nil, err
	}

	store := &domain.Store{
		TenantID:  tenantID,
		ID:        storeID,
		Name:      storeName,
		IsActive:  true,
		CreatedAt: s.now(),
	}
	if err := s.stores.Create(ctx, store); err != nil {
		return nil, fmt.Errorf("create store %s/%s: %w", tenantID, storeID, err)
	}

	s.logger.Info("created store", "tenant_id", tenantID, "store_id", storeID)
	return store, nil
}

// GetStore returns one store.
func (s *TenantService) GetStore(ctx context.Context, tenantID, storeID string) (*domain.Store, error) {
	return s.stores.FindByID(ctx, tenantID, storeID)
}

// ListStores lists a tenant's stores.
func (s *TenantService) ListStores(ctx context.Context, tenantID string) ([]domain.Store, error) {
	return s.stores.List(ctx, tenantID)
}

// IssueAPIKey generates a new API key for a store, deactivating every prior
// key for that (tenant, store) pair in the same operation. The raw secret is
// returned exactly once and only its digest is persisted.
func (s *TenantService) IssueAPIKey(ctx context.Context, tenantID, storeID string) (*domain.IssuedKey, error) {
	store, err := s.stores.FindByID(ctx, tenantID, storeID)
	if err != nil {
		return nil, fmt.Errorf("find store %s/%s: %w", tenantID, storeID, err)
	}
	if !store.IsActive {
		return nil, fmt.Errorf("store %s/%s: %w", tenantID, storeID, domain.ErrStoreInactive)
	}

	rawKey := fmt.Sprintf("store_%s_%s_%s", tenantID, storeID, randomToken(32))
	key := &domain.APIKey{
		KeyID:     fmt.Sprintf("store_%s_%s", tenantID, storeID),
		TenantID:  tenantID,
		StoreID:   storeID,
		KeyHash:   DigestKey(rawKey),
		IsActive:  true,
		CreatedAt: s.now(),
	}

	if err := s.keys.Rotate(ctx, key); err != nil {
		return nil, fmt.Errorf("rotate api key %s/%s: %w", tenantID, storeID, err)
	}

	s.logger.Info("issued api key", "tenant_id", tenantID, "store_id", storeID, "key_id", key.KeyID)
	return &domain.IssuedKey{
		KeyID:     key.KeyID,
		TenantID:  tenantID,
		StoreID:   storeID,
		RawKey:    rawKey,
		CreatedAt: key.CreatedAt,
	}, nil
}

// ListAPIKeys lists a tenant's keys. Digests and secrets are never included.
func (s *TenantService) ListAPIKeys(ctx context.Context, tenantID string) ([]domain.APIKey, error) {
	keys, err := s.keys.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for i := range keys {
		keys[i].KeyHash = ""
	}
	return keys, nil
}

// RevokeAPIKey deactivates one key.
func (s *TenantService) RevokeAPIKey(ctx context.Context, tenantID, keyID string) error {
	if err := s.keys.Revoke(ctx, tenantID, keyID); err != nil {
		return fmt.Errorf("revoke key %s: %w", keyID, err)
	}
	s.logger.Info("revoked api key", "tenant_id", tenantID, "key_id", keyID)
	return nil
}

// CreateDashboardUser creates a dashboard account with a system-generated
// temporary password, returned exactly once alongside the user. The stored
// digest is bcrypt with a per-credential salt.
func (s *TenantService) CreateDashboardUser(ctx context.Context, tenantID, email string, userType domain.UserType, permissions []string) (*domain.DashboardUser, string, error) {
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, "", fmt.Errorf("find tenant %s: %w", tenantID, err)
	}
	if !tenant.IsActive {
		return nil, "", fmt.Errorf("tenant %s: %w", tenantID, domain.ErrTenantInactive)
	}

	if userType == "" {
		userType = domain.UserTypeClient
	}
	if len(permissions) == 0 {
		permissions = defaultUserPermissions
	}

	tempPassword := randomToken(16)
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &domain.DashboardUser{
		ID:                     fmt.Sprintf("user_%s_%s", tenantID, uuid.NewString()),
		TenantID:               tenantID,
		Email:                  email,
		PasswordHash:           string(hash),
		UserType:               userType,
		Permissions:            permissions,
		IsActive:               true,
		PasswordChangeRequired: true,
		CreatedAt:              s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user %s: %w", email, err)
	}

	s.logger.Info("created dashboard user", "tenant_id", tenantID, "email", email)
	return user, tempPassword, nil
}

// Login authenticates a dashboard user and returns a session token. All
// failure modes collapse into ErrInvalidLogin except an inactive tenant,
// which is reported as such.
func (s *TenantService) Login(ctx context.Context, email, password string) (string, *domain.DashboardUser, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("failed login attempt", "email", email)
			return "", nil, ErrInvalidLogin
		}
		return "", nil, fmt.Errorf("find user: %w", err)
	}
	if !user.IsActive {
		return "", nil, ErrInvalidLogin
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("failed login attempt", "email", email)
		return "", nil, ErrInvalidLogin
	}

	tenant, err := s.tenants.FindByID(ctx, user.TenantID)
	if err != nil || !tenant.IsActive {
		return "", nil, domain.ErrTenantInactive
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	// Best effort; a failed timestamp write must not fail the login.
	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn("failed to record login time", "user_id", user.ID, "error", err)
	}

	return token, user, nil
}

// TenantStats summarizes current usage for one tenant.
func (s *TenantService) TenantStats(ctx context.Context, tenantID string) (*domain.TenantStats, error) {
	if _, err := s.tenants.FindByID(ctx, tenantID); err != nil {
		return nil, err
	}

	storeCount, err := s.stores.CountActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("count stores: %w", err)
	}

	daily, err := s.usage.CountEventsSince(ctx, tenantID, s.now().Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	last, err := s.usage.LastEventAt(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("last event: %w", err)
	}

	return &domain.TenantStats{
		TenantID:               tenantID,
		StoreCount:             storeCount,
		DailyEvents:            daily,
		ProjectedMonthlyEvents: daily * 30,
		LastActivity:           last,
	}, nil
}

// randomToken returns n bytes of CSPRNG entropy, URL-safe base64 encoded.
func randomToken(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
