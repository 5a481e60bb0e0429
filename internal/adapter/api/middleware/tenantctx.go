package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/josefe-ing/storepulse/internal/adapter/metrics"
	"github.com/josefe-ing/storepulse/internal/domain"
	"github.com/josefe-ing/storepulse/internal/usecase"
)

// bypassPaths are served without tenant context. Health and metadata only.
var bypassPaths = map[string]struct{}{
	"/health":  {},
	"/version": {},
}

// TenantContextConfig bundles the collaborators of the tenant-context
// middleware.
type TenantContextConfig struct {
	Resolver   *usecase.TenantResolver
	Isolation  domain.IsolationRepository
	Quota      *usecase.QuotaEngine
	Activity   domain.ActivityRecorder
	Dispatcher *usecase.Dispatcher
	Metrics    *metrics.AuthMetrics
	Logger     *slog.Logger

	// CostCheckEvery is forwarded to the deferred quota validation.
	CostCheckEvery time.Duration

	// BackgroundTimeout bounds deferred quota checks and activity writes.
	BackgroundTimeout time.Duration
}

// TenantContext is the per-request pipeline every data-plane request passes
// through: credential extraction, cached verification, context attachment,
// row-level isolation, deferred quota validation, and post-hoc activity
// recording. Terminal states are the handler running with full context or a
// rejection mapped to 401/500.
func TenantContext(cfg TenantContextConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger.With("component", "tenant_context")
	bgTimeout := cfg.BackgroundTimeout
	if bgTimeout <= 0 {
		bgTimeout = 10 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := bypassPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			rawKey, ok := bearerCredential(r)
			if !ok || rawKey == "" {
				cfg.Metrics.RecordOutcome("missing_credential")
				logger.Warn("missing credential", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}

			authCtx, err := cfg.Resolver.Resolve(r.Context(), rawKey)
			if err != nil {
				rejectResolution(w, logger, cfg.Metrics, err)
				return
			}

			// Attach identity, then push it down to the data layer. The
			// isolation call is synchronous: a failure here must abort the
			// request rather than risk cross-tenant leakage.
			ctx := WithAuthContext(r.Context(), authCtx)

			conn, err := cfg.Isolation.Acquire(ctx, authCtx.TenantID)
			if err != nil {
				cfg.Metrics.RecordOutcome("internal_error")
				logger.Error("isolation context failed", "tenant_id", authCtx.TenantID, "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			defer func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), bgTimeout)
				defer cancel()
				if err := conn.Release(releaseCtx); err != nil {
					logger.Warn("failed to release tenant connection", "tenant_id", authCtx.TenantID, "error", err)
				}
			}()
			ctx = WithTenantConn(ctx, conn)

			cfg.Metrics.RecordOutcome("authorized")

			// Deferred quota validation: submitted, never awaited. Its
			// outcome cannot affect this response.
			tenantID := authCtx.TenantID
			cfg.Dispatcher.Submit("validate_tenant_limits", func(bg context.Context) {
				bg, cancel := context.WithTimeout(bg, bgTimeout)
				defer cancel()
				if err := cfg.Quota.ValidateTenantLimits(bg, tenantID, cfg.CostCheckEvery); err != nil {
					logger.Warn("tenant limits validation failed", "tenant_id", tenantID, "error", err)
				}
			})

			next.ServeHTTP(w, r.WithContext(ctx))

			// Post-hoc activity record. The response is already written, so
			// failures are logged and swallowed.
			activity := domain.Activity{
				TenantID:  authCtx.TenantID,
				StoreID:   authCtx.StoreID,
				Method:    r.Method,
				Path:      r.URL.Path,
				Timestamp: time.Now().UTC(),
			}
			cfg.Dispatcher.Submit("record_activity", func(bg context.Context) {
				bg, cancel := context.WithTimeout(bg, bgTimeout)
				defer cancel()
				if err := cfg.Activity.Record(bg, activity); err != nil {
					logger.Warn("failed to record tenant activity", "tenant_id", activity.TenantID, "error", err)
				}
			})
		})
	}
}

// rejectResolution maps a resolution failure onto a response. Every
// authentication failure gets the same generic body; the precise reason is
// only logged.
func rejectResolution(w http.ResponseWriter, logger *slog.Logger, m *metrics.AuthMetrics, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		m.RecordOutcome("missing_credential")
	case errors.Is(err, domain.ErrTenantInactive):
		m.RecordOutcome("tenant_inactive")
	case errors.Is(err, domain.ErrStoreInactive):
		m.RecordOutcome("store_inactive")
	case domain.IsAuthFailure(err):
		m.RecordOutcome("invalid_credential")
	default:
		// Unexpected internal failure during resolution: generic 500, no
		// internals leaked.
		m.RecordOutcome("internal_error")
		logger.Error("tenant context resolution failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	logger.Warn("request rejected", "reason", err.Error())
	writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
}

func bearerCredential(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func writeJSONError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
