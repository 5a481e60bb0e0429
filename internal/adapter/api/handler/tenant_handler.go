package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/josefe-ing/storepulse/internal/domain"
	"github.com/josefe-ing/storepulse/internal/usecase"
)

// TenantHandler serves the tenant/store/api-key management surface under
// /v1/admin/tenants. Routes are guarded upstream by the dashboard auth
// middleware.
type TenantHandler struct {
	service *usecase.TenantService
	logger  *slog.Logger
}

// NewTenantHandler creates a TenantHandler.
func NewTenantHandler(service *usecase.TenantService, logger *slog.Logger) *TenantHandler {
	return &TenantHandler{service: service, logger: logger.With("component", "tenant_handler")}
}

// Register mounts the management routes on the mux.
func (h *TenantHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/admin/tenants", h.createTenant)
	mux.HandleFunc("GET /v1/admin/tenants", h.listTenants)
	mux.HandleFunc("GET /v1/admin/tenants/{tenantID}", h.getTenant)
	mux.HandleFunc("PUT /v1/admin/tenants/{tenantID}", h.updateTenant)
	mux.HandleFunc("GET /v1/admin/tenants/{tenantID}/stats", h.tenantStats)

	mux.HandleFunc("POST /v1/admin/tenants/{tenantID}/stores", h.createStore)
	mux.HandleFunc("GET /v1/admin/tenants/{tenantID}/stores", h.listStores)
	mux.HandleFunc("GET /v1/admin/tenants/{tenantID}/stores/{storeID}", h.getStore)

	mux.HandleFunc("POST /v1/admin/tenants/{tenantID}/stores/{storeID}/api-key", h.issueAPIKey)
	mux.HandleFunc("GET /v1/admin/tenants/{tenantID}/api-keys", h.listAPIKeys)
	mux.HandleFunc("DELETE /v1/admin/tenants/{tenantID}/api-keys/{keyID}", h.revokeAPIKey)

	mux.HandleFunc("POST /v1/admin/tenants/{tenantID}/users", h.createUser)
}

func (h *TenantHandler) createTenant(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreateTenantInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenant, err := h.service.CreateTenant(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

func (h *TenantHandler) listTenants(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active_only") != "false"
	tenants, err := h.service.ListTenants(r.Context(), activeOnly)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if tenants == nil {
		tenants = []domain.Tenant{}
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (h *TenantHandler) getTenant(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.service.GetTenant(r.Context(), r.PathValue("tenantID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (h *TenantHandler) updateTenant(w http.ResponseWriter, r *http.Request) {
	var upd domain.TenantUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenant, err := h.service.UpdateTenant(r.Context(), r.PathValue("tenantID"), upd)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (h *TenantHandler) tenantStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.TenantStats(r.Context(), r.PathValue("tenantID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *TenantHandler) createStore(w http.ResponseWriter, r *http.Request) {
	var in struct {
		StoreID   string `json:"store_id"`
		StoreName string `json:"store_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.StoreID == "" {
		writeDetail(w, http.StatusBadRequest, "store_id is required")
		return
	}

	store, err := h.service.CreateStore(r.Context(), r.PathValue("tenantID"), in.StoreID, in.StoreName)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, store)
}

func (h *TenantHandler) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.ListStores(r.Context(), r.PathValue("tenantID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if stores == nil {
		stores = []domain.Store{}
	}
	writeJSON(w, http.StatusOK, stores)
}

func (h *TenantHandler) getStore(w http.ResponseWriter, r *http.Request) {
	store, err := h.service.GetStore(r.Context(), r.PathValue("tenantID"), r.PathValue("storeID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, store)
}

func (h *TenantHandler) issueAPIKey(w http.ResponseWriter, r *http.Request) {
	issued, err := h.service.IssueAPIKey(r.Context(), r.PathValue("tenantID"), r.PathValue("storeID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	// The raw key appears in this response and nowhere else, ever.
	writeJSON(w, http.StatusCreated, issued)
}

func (h *TenantHandler) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.ListAPIKeys(r.Context(), r.PathValue("tenantID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if keys == nil {
		keys = []domain.APIKey{}
	}
	writeJSON(w, http.StatusOK, keys)
}

func (h *TenantHandler) revokeAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RevokeAPIKey(r.Context(), r.PathValue("tenantID"), r.PathValue("keyID")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "api key revoked"})
}

func (h *TenantHandler) createUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email       string          `json:"email"`
		UserType    domain.UserType `json:"user_type"`
		Permissions []string        `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" {
		writeDetail(w, http.StatusBadRequest, "email is required")
		return
	}

	user, tempPassword, err := h.service.CreateDashboardUser(r.Context(), r.PathValue("tenantID"), in.Email, in.UserType, in.Permissions)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	// The temporary password is returned once, at creation.
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":                     user,
		"temp_password":            tempPassword,
		"password_change_required": true,
	})
}
