package notifier

import (
	"context"
	"log/slog"

	"github.com/josefe-ing/storepulse/internal/domain"
)

// LogNotifier implements domain.Notifier by logging the alert. Actual
// delivery (email, WhatsApp) is an external collaborator; this sink keeps the
// contract honest until one is wired in.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "cost_notifier")}
}

// NotifyCostAlert logs the alert and reports success.
func (n *LogNotifier) NotifyCostAlert(ctx context.Context, alert domain.CostAlert) error {
	n.logger.Warn("cost alert",
		"tenant_id", alert.TenantID,
		"estimated_cost", alert.EstimatedCost,
		"billing_email", alert.BillingEmail,
	)
	return nil
}
