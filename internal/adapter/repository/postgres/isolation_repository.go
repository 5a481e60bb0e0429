package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/josefe-ing/storepulse/internal/domain"
)

// IsolationRepository implements domain.IsolationRepository by pinning each
// request to a dedicated connection and setting the row-level-security GUC on
// it. Policies on the tenant-scoped tables filter on
// current_setting('app.tenant_id').
type IsolationRepository struct {
	db *sql.DB
}

// NewIsolationRepository creates an IsolationRepository.
func NewIsolationRepository(db *sql.DB) *IsolationRepository {
	return &IsolationRepository{db: db}
}

// Acquire checks a connection out of the pool and scopes it to the tenant.
// The connection must not serve another request until Release has reset it.
func (r *IsolationRepository) Acquire(ctx context.Context, tenantID string) (domain.TenantConn, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	_, err = conn.ExecContext(ctx, `SELECT set_config('app.tenant_id', $1, false)`, tenantID)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("set tenant context: %w", err)
	}

	return &tenantConn{conn: conn}, nil
}

type tenantConn struct {
	conn *sql.Conn
}

// Release clears the tenant GUC and returns the connection to the pool. The
// reset runs even when the request context is already gone so a pooled
// connection never carries a stale tenant id.
func (c *tenantConn) Release(ctx context.Context) error {
	_, resetErr := c.conn.ExecContext(ctx, `RESET app.tenant_id`)
	closeErr := c.conn.Close()
	if resetErr != nil {
		// Closing after a failed reset still detaches the session state once
		// the driver discards the connection.
		return fmt.Errorf("reset tenant context: %w", resetErr)
	}
	return closeErr
}

// QueryContext runs a query on the tenant-scoped connection.
func (c *tenantConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.conn.QueryContext(ctx, query, args...)
}

// ExecContext runs a statement on the tenant-scoped connection.
func (c *tenantConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.conn.ExecContext(ctx, query, args...)
}
