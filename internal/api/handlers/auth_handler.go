package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/starlight-api/starlight-be/internal/api/middleware"
	"github.com/starlight-api/starlight-be/internal/api/respond"
	"github.com/starlight-api/starlight-be/internal/auth"
	"github.com/starlight-api/starlight-be/internal/services"
)

// AuthHandler handles registration, login and the current-user lookup.
type AuthHandler struct {
	service services.UserServiceProvider
	tokens  *auth.TokenService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{service: service, tokens: tokens}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the login/OAuth success body.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	user, err := h.service.Register(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Registration rejected")
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, user.ToProfile())
}

// Login handles user authentication and token issuance.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		log.Warn().Str("username", payload.Username).Msg("Failed authentication attempt")
		respond.Error(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to issue token")
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// Me returns the currently authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	respond.JSON(w, http.StatusOK, user.ToProfile())
}
