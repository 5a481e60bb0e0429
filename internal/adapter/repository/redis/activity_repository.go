package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/josefe-ing/storepulse/internal/domain"
)

// activityMaxLen bounds the stream; trimming is approximate (XADD MAXLEN ~).
const activityMaxLen = 100_000

// ActivityRecorder implements domain.ActivityRecorder on a Redis stream.
// Analytics consumers read the stream out of band; this side only appends.
type ActivityRecorder struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

// NewActivityRecorder creates an ActivityRecorder appending to the given
// stream key.
func NewActivityRecorder(client *redis.Client, stream string, logger *slog.Logger) *ActivityRecorder {
	return &ActivityRecorder{
		client: client,
		stream: stream,
		logger: logger.With("component", "activity_recorder"),
	}
}

// Record appends one activity entry. Callers treat failures as best-effort;
// the error is returned for logging only.
func (r *ActivityRecorder) Record(ctx context.Context, a domain.Activity) error {
	err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: activityMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"tenant_id": a.TenantID,
			"store_id":  a.StoreID,
			"method":    a.Method,
			"path":      a.Path,
			"timestamp": a.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}
