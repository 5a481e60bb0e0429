package api

import (
	"log/slog"
	"net/http"

	"github.com/josefe-ing/storepulse/internal/adapter/api/handler"
	"github.com/josefe-ing/storepulse/internal/adapter/api/middleware"
	"github.com/josefe-ing/storepulse/internal/usecase"
)

// NewRouter creates and configures the main HTTP router.
//
// Three surfaces share the server:
//   - public health/metadata endpoints, no authentication;
//   - the dashboard surface (/v1/auth, /v1/admin) guarded by session tokens
//     and the admin capability;
//   - the data plane (everything else under /v1/) which passes through the
//     tenant-context pipeline.
func NewRouter(
	logger *slog.Logger,
	tokens *usecase.TokenService,
	tenantService *usecase.TenantService,
	tenantCtx func(http.Handler) http.Handler,
) http.Handler {
	mux := http.NewServeMux()
	logging := middleware.Logging(logger)

	// Public endpoints.
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"service":"storepulse-auth"}`))
	})

	// Dashboard surface.
	authHandler := handler.NewAuthHandler(tenantService, logger)
	mux.Handle("POST /v1/auth/login", logging(http.HandlerFunc(authHandler.Login)))

	adminMux := http.NewServeMux()
	handler.NewTenantHandler(tenantService, logger).Register(adminMux)
	adminGuard := middleware.DashboardAuth(tokens, logger, "admin:tenants")
	mux.Handle("/v1/admin/", logging(adminGuard(adminMux)))

	// Data plane. Logging sits inside the tenant-context middleware so log
	// lines carry the resolved tenant.
	dataMux := http.NewServeMux()
	dataMux.HandleFunc("GET /v1/whoami", handler.WhoAmI)
	mux.Handle("/v1/", tenantCtx(logging(dataMux)))

	return mux
}
