package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UsageRepository implements domain.UsageRepository against the metrics
// table the ingestion pipeline writes into.
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a UsageRepository.
func NewUsageRepository(db *sql.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) CountEventsSince(ctx context.Context, tenantID string, since time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM metrics WHERE tenant_id = $1 AND created_at > $2`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, tenantID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func (r *UsageRepository) LastEventAt(ctx context.Context, tenantID string) (*time.Time, error) {
	query := `SELECT MAX(created_at) FROM metrics WHERE tenant_id = $1`

	var last sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, tenantID).Scan(&last); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last event: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time
	return &t, nil
}
