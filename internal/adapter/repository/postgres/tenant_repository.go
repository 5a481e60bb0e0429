package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/josefe-ing/storepulse/internal/domain"
)

// TenantRepository implements domain.TenantRepository on PostgreSQL.
type TenantRepository struct {
	db *sql.DB
}

// NewTenantRepository creates a TenantRepository.
func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

const tenantColumns = `tenant_id, company_name, plan_type, max_stores, max_monthly_cost,
	billing_email, admin_contact, whatsapp_numbers, is_active, created_at`

func scanTenant(row interface{ Scan(...any) error }) (*domain.Tenant, error) {
	var t domain.Tenant
	err := row.Scan(
		&t.ID,
		&t.CompanyName,
		&t.PlanType,
		&t.MaxStores,
		&t.MaxMonthlyCost,
		&t.BillingEmail,
		&t.AdminContact,
		pq.Array(&t.WhatsappNumbers),
		&t.IsActive,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepository) FindByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE tenant_id = $1`

	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find tenant by id: %w", err)
	}
	return tenant, nil
}

func (r *TenantRepository) List(ctx context.Context, activeOnly bool) ([]domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants
		WHERE ($1 = FALSE OR is_active = TRUE)
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

func (r *TenantRepository) Create(ctx context.Context, t *domain.Tenant) error {
	query := `INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.CompanyName,
		t.PlanType,
		t.MaxStores,
		t.MaxMonthlyCost,
		t.BillingEmail,
		t.AdminContact,
		pq.Array(t.WhatsappNumbers),
		t.IsActive,
		t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (r *TenantRepository) Update(ctx context.Context, id string, upd domain.TenantUpdate) (*domain.Tenant, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.CompanyName != nil {
		add("company_name", *upd.CompanyName)
	}
	if upd.PlanType != nil {
		add("plan_type", *upd.PlanType)
	}
	if upd.MaxStores != nil {
		add("max_stores", *upd.MaxStores)
	}
	if upd.MaxMonthlyCost != nil {
		add("max_monthly_cost", *upd.MaxMonthlyCost)
	}
	if upd.BillingEmail != nil {
		add("billing_email", *upd.BillingEmail)
	}
	if upd.AdminContact != nil {
		add("admin_contact", *upd.AdminContact)
	}
	if upd.WhatsappNumbers != nil {
		add("whatsapp_numbers", pq.Array(upd.WhatsappNumbers))
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}
	if len(sets) == 0 {
		return r.FindByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE tenants SET %s WHERE tenant_id = $%d RETURNING `+tenantColumns,
		strings.Join(sets, ", "), len(args))

	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	return tenant, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
