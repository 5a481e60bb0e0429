// Command onboard provisions a tenant end to end: the tenant record, its
// stores, and one API key per store, then writes a gateway env file per store
// into the output directory. Keys appear in those files and nowhere else.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/josefe-ing/storepulse/internal/adapter/metrics"
	"github.com/josefe-ing/storepulse/internal/adapter/notifier"
	"github.com/josefe-ing/storepulse/internal/adapter/repository/postgres"
	"github.com/josefe-ing/storepulse/internal/pkg/logger"
	"github.com/josefe-ing/storepulse/internal/usecase"

	_ "github.com/lib/pq" // postgres driver
)

func main() {
	var (
		tenantID     = flag.String("tenant-id", "", "tenant identifier (required)")
		company      = flag.String("company", "", "company name (required)")
		storeCount   = flag.Int("stores", 1, "number of stores to create")
		billingEmail = flag.String("billing-email", "", "billing email")
		adminContact = flag.String("admin-contact", "", "admin contact")
		whatsapp     = flag.String("whatsapp", "", "comma-separated WhatsApp numbers")
		maxCost      = flag.Float64("max-cost", 265.00, "max monthly cost")
		postgresURL  = flag.String("postgres-url", os.Getenv("POSTGRES_URL"), "postgres connection URL")
		outDir       = flag.String("out", "deployments", "output directory for gateway configs")
	)
	flag.Parse()

	log := logger.New("info")
	slog.SetDefault(log)

	if *tenantID == "" || *company == "" || *postgresURL == "" {
		fmt.Fprintln(os.Stderr, "usage: onboard --tenant-id <id> --company <name> [--stores N] (POSTGRES_URL required)")
		os.Exit(2)
	}

	db, err := sql.Open("postgres", *postgresURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var m *metrics.AuthMetrics // CLI run, no scrape endpoint

	tenantRepo := postgres.NewTenantRepository(db)
	storeRepo := postgres.NewStoreRepository(db)
	keyRepo := postgres.NewAPIKeyRepository(db)
	userRepo := postgres.NewUserRepository(db)
	usageRepo := postgres.NewUsageRepository(db)
	quota := usecase.NewQuotaEngine(tenantRepo, storeRepo, usageRepo, notifier.NewLogNotifier(log), m, log)
	service := usecase.NewTenantService(tenantRepo, storeRepo, keyRepo, userRepo, usageRepo, quota, nil, log)

	ctx := context.Background()

	var numbers []string
	if *whatsapp != "" {
		numbers = strings.Split(*whatsapp, ",")
	}

	tenant, err := service.CreateTenant(ctx, usecase.CreateTenantInput{
		TenantID:        *tenantID,
		CompanyName:     *company,
		MaxStores:       *storeCount,
		MaxMonthlyCost:  *maxCost,
		BillingEmail:    *billingEmail,
		AdminContact:    *adminContact,
		WhatsappNumbers: numbers,
	})
	if err != nil {
		log.Error("tenant creation failed", "tenant_id", *tenantID, "error", err)
		os.Exit(1)
	}
	log.Info("created tenant", "tenant_id", tenant.ID)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Error("failed to create output dir", "dir", *outDir, "error", err)
		os.Exit(1)
	}

	created := 0
	for i := 1; i <= *storeCount; i++ {
		storeID := fmt.Sprintf("T%02d", i)
		storeName := fmt.Sprintf("%s - Tienda %s", *company, storeID)

		if _, err := service.CreateStore(ctx, tenant.ID, storeID, storeName); err != nil {
			log.Error("store creation failed", "store_id", storeID, "error", err)
			break
		}

		issued, err := service.IssueAPIKey(ctx, tenant.ID, storeID)
		if err != nil {
			log.Error("key issuance failed", "store_id", storeID, "error", err)
			break
		}

		if err := writeGatewayConfig(*outDir, tenant.ID, storeID, storeName, issued.RawKey); err != nil {
			log.Error("failed to write gateway config", "store_id", storeID, "error", err)
			break
		}

		created++
		log.Info("provisioned store", "store_id", storeID, "key_id", issued.KeyID)
	}

	log.Info("onboarding finished", "tenant_id", tenant.ID, "stores_provisioned", created, "stores_requested", *storeCount)
	if created != *storeCount {
		os.Exit(1)
	}
}

func writeGatewayConfig(dir, tenantID, storeID, storeName, rawKey string) error {
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.env", tenantID, storeID))
	content := fmt.Sprintf(
		"# StorePulse edge gateway configuration\n# %s\nSTOREPULSE_TENANT_ID=%s\nSTOREPULSE_STORE_ID=%s\nSTOREPULSE_API_KEY=%s\n",
		storeName, tenantID, storeID, rawKey,
	)
	// The file holds the only copy of the secret; keep it owner-readable.
	return os.WriteFile(path, []byte(content), 0o600)
}
