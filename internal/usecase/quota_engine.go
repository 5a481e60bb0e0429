package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/josefe-ing/storepulse/internal/adapter/metrics"
	"github.com/josefe-ing/storepulse/internal/domain"
)

// Cost model: flat infrastructure baseline plus linear terms per unit of
// event volume. Figures are the platform's reference deployment costs.
const (
	baseComputeCost   = 60.0 // always-warm API service
	baseDatabaseCost  = 68.0 // managed SQL instance
	perThousandEvents = 0.02 // function invocations
	perMillionEvents  = 40.0 // message broker volume

	costAlertThreshold = 0.8
)

// QuotaEngine validates tenant quotas. Store-count checks are synchronous and
// can reject; cost checks are advisory only and can never fail a request.
type QuotaEngine struct {
	tenants  domain.TenantRepository
	stores   domain.StoreRepository
	usage    domain.UsageRepository
	notifier domain.Notifier
	metrics  *metrics.AuthMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewQuotaEngine creates a quota engine. Metrics may be nil.
func NewQuotaEngine(
	tenants domain.TenantRepository,
	stores domain.StoreRepository,
	usage domain.UsageRepository,
	notifier domain.Notifier,
	m *metrics.AuthMetrics,
	logger *slog.Logger,
) *QuotaEngine {
	return &QuotaEngine{
		tenants:  tenants,
		stores:   stores,
		usage:    usage,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With("component", "quota_engine"),
		now:      time.Now,
	}
}

// CheckStoreLimit compares the tenant's active store count against its
// max_stores. At or above the limit it returns ErrStoreLimitExceeded. The
// limit is enforced at store creation, never retroactively on deactivation.
func (q *QuotaEngine) CheckStoreLimit(ctx context.Context, tenantID string) error {
	tenant, err := q.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load tenant %s: %w", tenantID, err)
	}
	if !tenant.IsActive {
		return fmt.Errorf("tenant %s: %w", tenantID, domain.ErrTenantInactive)
	}

	count, err := q.stores.CountActive(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("count stores for %s: %w", tenantID, err)
	}

	if count >= tenant.MaxStores {
		q.logger.Warn("store limit exceeded",
			"tenant_id", tenantID,
			"store_count", count,
			"max_stores", tenant.MaxStores,
		)
		if q.metrics != nil {
			q.metrics.QuotaRejections.Inc()
		}
		return fmt.Errorf("%d/%d stores: %w", count, tenant.MaxStores, domain.ErrStoreLimitExceeded)
	}
	return nil
}

// CheckCostLimit projects the tenant's monthly spend from the trailing 7-day
// event volume and raises an alert when the projection crosses 80% of
// max_monthly_cost. It never rejects; the returned estimate is advisory.
func (q *QuotaEngine) CheckCostLimit(ctx context.Context, tenantID string) (float64, error) {
	tenant, err := q.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("load tenant %s: %w", tenantID, err)
	}

	estimated, err := q.estimateMonthlyCost(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	if estimated > tenant.MaxMonthlyCost*costAlertThreshold {
		q.logger.Warn("cost alert",
			"tenant_id", tenantID,
			"estimated_cost", estimated,
			"max_monthly_cost", tenant.MaxMonthlyCost,
		)
		if q.metrics != nil {
			q.metrics.CostAlerts.Inc()
		}
		alert := domain.CostAlert{
			TenantID:      tenantID,
			EstimatedCost: estimated,
			BillingEmail:  tenant.BillingEmail,
		}
		if err := q.notifier.NotifyCostAlert(ctx, alert); err != nil {
			// Delivery is best-effort; the estimate is still valid.
			q.logger.Warn("cost alert delivery failed", "tenant_id", tenantID, "error", err)
		}
	}

	return estimated, nil
}

// ValidateTenantLimits runs the deferred per-request validation: always the
// store-limit check, plus the cost projection on every 4th hour (per the
// configured modulus). Intended to be dispatched off the request path; errors
// are returned for logging only.
func (q *QuotaEngine) ValidateTenantLimits(ctx context.Context, tenantID string, costCheckEvery time.Duration) error {
	if err := q.CheckStoreLimit(ctx, tenantID); err != nil {
		return err
	}

	hours := int(costCheckEvery / time.Hour)
	if hours <= 0 {
		hours = 1
	}
	if q.now().UTC().Hour()%hours == 0 {
		if _, err := q.CheckCostLimit(ctx, tenantID); err != nil {
			return err
		}
	}
	return nil
}

func (q *QuotaEngine) estimateMonthlyCost(ctx context.Context, tenantID string) (float64, error) {
	since := q.now().Add(-7 * 24 * time.Hour)
	weeklyEvents, err := q.usage.CountEventsSince(ctx, tenantID, since)
	if err != nil {
		return 0, fmt.Errorf("count events for %s: %w", tenantID, err)
	}

	monthlyEvents := weeklyEvents * 4
	return estimateInfraCost(monthlyEvents), nil
}

func estimateInfraCost(monthlyEvents int64) float64 {
	functionCost := float64(monthlyEvents) / 1000 * perThousandEvents
	brokerCost := float64(monthlyEvents) / 1_000_000 * perMillionEvents
	return baseComputeCost + baseDatabaseCost + functionCost + brokerCost
}
