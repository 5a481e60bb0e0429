package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/josefe-ing/storepulse/internal/adapter/api/middleware"
	"github.com/josefe-ing/storepulse/internal/usecase"
)

// AuthHandler serves dashboard login and the identity echo endpoint.
type AuthHandler struct {
	service *usecase.TenantService
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(service *usecase.TenantService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger.With("component", "auth_handler")}
}

// Login authenticates a dashboard user and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		writeDetail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, user, err := h.service.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":             token,
		"token_type":               "bearer",
		"user":                     user,
		"password_change_required": user.PasswordChangeRequired,
	})
}

// WhoAmI echoes the tenant context resolved for the presented API key. Edge
// gateways use it to confirm their credentials after deployment.
func WhoAmI(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.AuthContextFrom(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "no tenant context")
		return
	}
	writeJSON(w, http.StatusOK, authCtx)
}
