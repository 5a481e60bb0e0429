package domain

import (
	"context"
	"time"
)

// Tenant represents an isolated customer account. Tenants are never hard
// deleted; deactivation flips IsActive and every credential scoped to the
// tenant stops verifying.
type Tenant struct {
	ID              string    `json:"tenant_id"`
	CompanyName     string    `json:"company_name"`
	PlanType        string    `json:"plan_type"`
	MaxStores       int       `json:"max_stores"`
	MaxMonthlyCost  float64   `json:"max_monthly_cost"`
	BillingEmail    string    `json:"billing_email"`
	AdminContact    string    `json:"admin_contact"`
	WhatsappNumbers []string  `json:"whatsapp_numbers"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// TenantUpdate carries the mutable subset of a tenant. Nil fields are left
// untouched.
type TenantUpdate struct {
	CompanyName     *string  `json:"company_name"`
	PlanType        *string  `json:"plan_type"`
	MaxStores       *int     `json:"max_stores"`
	MaxMonthlyCost  *float64 `json:"max_monthly_cost"`
	BillingEmail    *string  `json:"billing_email"`
	AdminContact    *string  `json:"admin_contact"`
	WhatsappNumbers []string `json:"whatsapp_numbers"`
	IsActive        *bool    `json:"is_active"`
}

// Store is a physical location belonging to exactly one tenant. API keys are
// bound to (tenant, store) pairs.
type Store struct {
	TenantID  string    `json:"tenant_id"`
	ID        string    `json:"store_id"`
	Name      string    `json:"store_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantStats summarizes a tenant's current usage.
type TenantStats struct {
	TenantID               string     `json:"tenant_id"`
	StoreCount             int        `json:"store_count"`
	DailyEvents            int64      `json:"daily_events"`
	ProjectedMonthlyEvents int64      `json:"projected_monthly_events"`
	LastActivity           *time.Time `json:"last_activity"`
}

// TenantRepository defines the persistence contract for tenants.
type TenantRepository interface {
	FindByID(ctx context.Context, id string) (*Tenant, error)
	List(ctx context.Context, activeOnly bool) ([]Tenant, error)
	Create(ctx context.Context, t *Tenant) error
	Update(ctx context.Context, id string, upd TenantUpdate) (*Tenant, error)
}

// StoreRepository defines the persistence contract for stores.
type StoreRepository interface {
	FindByID(ctx context.Context, tenantID, storeID string) (*Store, error)
	List(ctx context.Context, tenantID string) ([]Store, error)
	Create(ctx context.Context, s *Store) error
	CountActive(ctx context.Context, tenantID string) (int, error)
}
