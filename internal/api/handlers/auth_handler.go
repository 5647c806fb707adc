package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"knowyourclient/internal/pkg/errors"
	"knowyourclient/internal/platform/audit"
	"knowyourclient/internal/platform/auth"
	"knowyourclient/internal/platform/config"
)

type AuthHandler struct {
	admin    config.AdminConfig
	tokenSvc *auth.TokenService
	audit    *audit.Logger
}

func NewAuthHandler(admin config.AdminConfig, tokenSvc *auth.TokenService, audit *audit.Logger) *AuthHandler {
	return &AuthHandler{admin: admin, tokenSvc: tokenSvc, audit: audit}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login checks the credentials against the configured operator account.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	// An empty hash disables login entirely.
	if h.admin.PasswordHash == "" || !strings.EqualFold(req.Email, h.admin.Email) {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.admin.PasswordHash), []byte(req.Password)); err != nil {
		log.Warn().Str("email", req.Email).Msg("failed login attempt")
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	token, expiresAt, err := h.tokenSvc.GenerateAccessToken(h.admin.Email, auth.RoleAdmin)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign access token")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	h.audit.Log(r, h.admin.Email, "auth.login", "admin", h.admin.Email, nil)

	errors.WriteJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	})
}
