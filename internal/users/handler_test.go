package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadertalk-backend/internal/leaders"
	sharedauth "leadertalk-backend/internal/shared/auth"
	"leadertalk-backend/internal/shared/server/middleware"
)

func setupUsersRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := NewService(NewMemoryRepo(), leaders.NewMemoryRepo())
	router := gin.New()
	router.Use(middleware.Auth("dev"))
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return router, svc
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := sharedauth.SignJWT(sharedauth.Claims{Sub: userID, Email: "u@example.com"})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestMeRequiresLogin(t *testing.T) {
	router, _ := setupUsersRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestMeReturnsProfile(t *testing.T) {
	router, svc := setupUsersRouter(t)
	require.NoError(t, svc.UpsertFromAuth(context.Background(), User{
		ID:       "google:u1",
		Email:    "u@example.com",
		FullName: "Taylor Example",
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set("Authorization", bearerFor(t, "google:u1"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "google:u1", got["id"])
	assert.Equal(t, "Taylor Example", got["fullName"])
	assert.Equal(t, false, got["onboardingCompleted"])
}

func TestOnboardingStoresGoalsAndLeaders(t *testing.T) {
	router, svc := setupUsersRouter(t)
	ctx := context.Background()
	require.NoError(t, svc.UpsertFromAuth(ctx, User{ID: "google:u1", Email: "u@example.com"}))

	payload, _ := json.Marshal(map[string]any{
		"goals":           "speak with more confidence",
		"selectedLeaders": []string{"winston-churchill", "steve-jobs"},
	})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/me/onboarding", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, "google:u1"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	user, err := svc.GetByID(ctx, "google:u1")
	require.NoError(t, err)
	assert.Equal(t, "speak with more confidence", user.Goals)
	assert.Equal(t, []string{"winston-churchill", "steve-jobs"}, user.SelectedLeaders)
	assert.True(t, user.OnboardingCompleted)
}

func TestOnboardingRejectsUnknownLeader(t *testing.T) {
	router, svc := setupUsersRouter(t)
	require.NoError(t, svc.UpsertFromAuth(context.Background(), User{ID: "google:u1", Email: "u@example.com"}))

	payload, _ := json.Marshal(map[string]any{
		"goals":           "clarity",
		"selectedLeaders": []string{"not-a-leader"},
	})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/me/onboarding", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, "google:u1"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "validation_error")
}

func TestOnboardingRejectsTooManyLeaders(t *testing.T) {
	_, svc := setupUsersRouter(t)
	ctx := context.Background()
	require.NoError(t, svc.UpsertFromAuth(ctx, User{ID: "google:u1", Email: "u@example.com"}))

	err := svc.CompleteOnboarding(ctx, "google:u1", "goals", []string{
		"winston-churchill", "maya-angelou", "steve-jobs", "eleanor-roosevelt",
	})
	assert.ErrorIs(t, err, ErrInvalidLeaders)
}

func TestOnboardingDeduplicatesLeaders(t *testing.T) {
	_, svc := setupUsersRouter(t)
	ctx := context.Background()
	require.NoError(t, svc.UpsertFromAuth(ctx, User{ID: "google:u1", Email: "u@example.com"}))

	require.NoError(t, svc.CompleteOnboarding(ctx, "google:u1", "goals", []string{
		"steve-jobs", "steve-jobs", " maya-angelou ",
	}))

	user, err := svc.GetByID(ctx, "google:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"steve-jobs", "maya-angelou"}, user.SelectedLeaders)
}
