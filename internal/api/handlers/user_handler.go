package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starlight-api/starlight-be/internal/api/middleware"
	"github.com/starlight-api/starlight-be/internal/api/respond"
	"github.com/starlight-api/starlight-be/internal/services"
)

// UserHandler handles profile and statistics requests.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// GetMe returns the authenticated user's profile.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	respond.JSON(w, http.StatusOK, user.ToProfile())
}

// UpdateMe updates the authenticated user's profile fields.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Fail(w, r, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}

	user := middleware.UserFrom(r.Context())
	updated, err := h.service.UpdateProfile(r.Context(), user.ID, payload.FullName)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, updated.ToProfile())
}

// GetProfile returns another user's profile. The email is only
// included when the viewer is the profile owner or a superuser.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	profile := user.ToProfile()
	viewer := middleware.UserFrom(r.Context())
	if viewer == nil || (viewer.ID != user.ID && !viewer.IsSuperuser) {
		profile.Email = ""
	}

	respond.JSON(w, http.StatusOK, profile)
}

// Stats returns aggregate user counts, served from cache when warm.
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}
