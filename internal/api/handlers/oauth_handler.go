package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/starlight-api/starlight-be/internal/api/middleware"
	"github.com/starlight-api/starlight-be/internal/api/respond"
	"github.com/starlight-api/starlight-be/internal/auth"
	"github.com/starlight-api/starlight-be/internal/oauth"
	"github.com/starlight-api/starlight-be/internal/services"
)

const stateCookieName = "starlight_oauth_state"

// OAuthHandler drives the social login and account linking flows.
type OAuthHandler struct {
	providers   *oauth.Registry
	service     services.UserServiceProvider
	tokens      *auth.TokenService
	frontendURL string
	secure      bool
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(providers *oauth.Registry, service services.UserServiceProvider, tokens *auth.TokenService, frontendURL string, secureCookies bool) *OAuthHandler {
	return &OAuthHandler{
		providers:   providers,
		service:     service,
		tokens:      tokens,
		frontendURL: frontendURL,
		secure:      secureCookies,
	}
}

// Login starts the OAuth flow for a provider: a random state value is
// pinned in an HttpOnly cookie and the client is redirected.
func (h *OAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	provider, err := h.providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "validation_error", "unsupported OAuth provider")
		return
	}

	state, err := randomState()
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(10 * time.Minute),
	})

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// Callback completes the OAuth flow: state check, code exchange,
// identity lookup, find-or-create, token issuance, and a redirect to
// the frontend carrying the access token.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider, err := h.providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "validation_error", "unsupported OAuth provider")
		return
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		respond.Fail(w, r, http.StatusBadRequest, "validation_error", "OAuth state mismatch")
		return
	}
	// State is single-use.
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/", MaxAge: -1})

	token, err := provider.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Warn().Err(err).Str("provider", provider.Name()).Msg("OAuth code exchange failed")
		respond.Fail(w, r, http.StatusBadRequest, "oauth_error", "OAuth authentication failed")
		return
	}

	identity, err := provider.Identity(r.Context(), token)
	if err != nil || identity.Email == "" {
		log.Warn().Err(err).Str("provider", provider.Name()).Msg("OAuth identity lookup failed")
		respond.Fail(w, r, http.StatusBadRequest, "oauth_error", "unable to get user information from OAuth provider")
		return
	}

	user, err := h.service.FindOrCreateFromOAuth(r.Context(), identity)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	accessToken, err := h.tokens.Issue(user.Username)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	redirect := fmt.Sprintf("%s/auth/callback?token=%s&provider=%s", h.frontendURL, accessToken, provider.Name())
	http.Redirect(w, r, redirect, http.StatusTemporaryRedirect)
}

// LinkPayload carries the provider access token for account linking.
type LinkPayload struct {
	AccessToken string `json:"access_token"`
}

// Link binds a provider identity to the authenticated account. The
// client obtains the provider access token itself and posts it here.
func (h *OAuthHandler) Link(w http.ResponseWriter, r *http.Request) {
	provider, err := h.providers.Get(chi.URLParam(r, "provider"))
	if err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "validation_error", "unsupported OAuth provider")
		return
	}

	var payload LinkPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.AccessToken == "" {
		respond.Fail(w, r, http.StatusBadRequest, "validation_error", "access_token is required")
		return
	}

	identity, err := provider.IdentityFromAccessToken(r.Context(), payload.AccessToken)
	if err != nil {
		log.Warn().Err(err).Str("provider", provider.Name()).Msg("OAuth identity lookup failed")
		respond.Fail(w, r, http.StatusBadRequest, "oauth_error", "unable to get user information from OAuth provider")
		return
	}

	user := middleware.UserFrom(r.Context())
	if err := h.service.LinkOAuth(r.Context(), user, identity); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Successfully linked %s account", provider.Name()),
	})
}

// Unlink removes the provider binding from the authenticated account.
func (h *OAuthHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	user := middleware.UserFrom(r.Context())

	if err := h.service.UnlinkOAuth(r.Context(), user, providerName); err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Successfully unlinked %s account", providerName),
	})
}

func randomState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
