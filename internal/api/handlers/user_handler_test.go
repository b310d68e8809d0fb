package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starlight-api/starlight-be/internal/api/middleware"
	"github.com/starlight-api/starlight-be/internal/models"
)

func TestGetMe(t *testing.T) {
	h := NewUserHandler(&stubUserService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	user := &models.User{
		ID:       1,
		Username: "alice",
		Email:    "alice@example.com",
		FullName: sql.NullString{String: "Alice Liddell", Valid: true},
		IsActive: true,
	}
	h.GetMe(rec, req.WithContext(middleware.WithUser(req.Context(), user)))

	assert.Equal(t, http.StatusOK, rec.Code)

	var profile models.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "Alice Liddell", profile.FullName)
}

func TestUpdateMe(t *testing.T) {
	updated := &models.User{
		ID:       1,
		Username: "alice",
		FullName: sql.NullString{String: "A. Liddell", Valid: true},
		IsActive: true,
	}
	h := NewUserHandler(&stubUserService{updateUser: updated})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/me", strings.NewReader(`{"full_name":"A. Liddell"}`))
	req = req.WithContext(middleware.WithUser(req.Context(), &models.User{ID: 1, Username: "alice"}))
	h.UpdateMe(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var profile models.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "A. Liddell", profile.FullName)
}

func profileRouter(h *UserHandler) *chi.Mux {
	router := chi.NewRouter()
	router.Get("/users/{username}", h.GetProfile)
	return router
}

func TestGetProfileAnonymousHidesEmail(t *testing.T) {
	alice := &models.User{ID: 1, Username: "alice", Email: "alice@example.com", IsActive: true}
	h := NewUserHandler(&stubUserService{byUsername: alice})

	rec := httptest.NewRecorder()
	profileRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/alice", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
	assert.NotContains(t, rec.Body.String(), "alice@example.com")
}

func TestGetProfileOwnerSeesEmail(t *testing.T) {
	alice := &models.User{ID: 1, Username: "alice", Email: "alice@example.com", IsActive: true}
	h := NewUserHandler(&stubUserService{byUsername: alice})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), alice))
	profileRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")
}

func TestGetProfileOtherViewerHidesEmail(t *testing.T) {
	alice := &models.User{ID: 1, Username: "alice", Email: "alice@example.com", IsActive: true}
	bob := &models.User{ID: 2, Username: "bob", IsActive: true}
	h := NewUserHandler(&stubUserService{byUsername: alice})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), bob))
	profileRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "alice@example.com")
}

func TestGetProfileSuperuserSeesEmail(t *testing.T) {
	alice := &models.User{ID: 1, Username: "alice", Email: "alice@example.com", IsActive: true}
	admin := &models.User{ID: 3, Username: "admin", IsActive: true, IsSuperuser: true}
	h := NewUserHandler(&stubUserService{byUsername: alice})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), admin))
	profileRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")
}

func TestGetProfileNotFound(t *testing.T) {
	h := NewUserHandler(&stubUserService{})

	rec := httptest.NewRecorder()
	profileRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users/ghost", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	h := NewUserHandler(&stubUserService{stats: &models.UserStats{TotalUsers: 10, ActiveUsers: 8}})

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_users":10,"active_users":8}`, rec.Body.String())
}
