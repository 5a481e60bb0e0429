package domain

import (
	"context"
	"time"
)

// Activity is a post-hoc record of one authenticated request, emitted for
// analytics. Recording is fire-and-forget and never affects the response.
type Activity struct {
	TenantID  string    `json:"tenant_id"`
	StoreID   string    `json:"store_id"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityRecorder is the sink for tenant activity records.
type ActivityRecorder interface {
	Record(ctx context.Context, a Activity) error
}

// UsageRepository exposes the event counts the cost projection is built on.
type UsageRepository interface {
	// CountEventsSince counts ingested events for the tenant newer than the
	// given instant.
	CountEventsSince(ctx context.Context, tenantID string, since time.Time) (int64, error)

	// LastEventAt returns the timestamp of the tenant's most recent event,
	// or nil when the tenant has none.
	LastEventAt(ctx context.Context, tenantID string) (*time.Time, error)
}

// CostAlert is the advisory signal raised when a tenant's projected spend
// crosses the alerting threshold.
type CostAlert struct {
	TenantID      string  `json:"tenant_id"`
	EstimatedCost float64 `json:"estimated_cost"`
	BillingEmail  string  `json:"billing_email"`
}

// Notifier delivers cost alerts. Delivery is an external collaborator;
// implementations may be no-ops.
type Notifier interface {
	NotifyCostAlert(ctx context.Context, alert CostAlert) error
}

// TenantConn is a data-access handle whose queries are scoped to a single
// tenant for the lifetime of one request. Release must be called before the
// underlying connection can serve another tenant.
type TenantConn interface {
	Release(ctx context.Context) error
}

// IsolationRepository pushes tenant identity down to the data layer so that
// every query issued during the request observes only that tenant's rows.
type IsolationRepository interface {
	Acquire(ctx context.Context, tenantID string) (TenantConn, error)
}
