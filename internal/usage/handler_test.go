package usage

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
	"github.com/xuri/excelize/v2"

	sharedauth "leadertalk-backend/internal/shared/auth"
	"leadertalk-backend/internal/shared/server/middleware"
)

func setupUsageRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := NewService()
	router := gin.New()
	router.Use(middleware.Auth("dev"))
	api := router.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	dev := api.Group("/dev")
	NewHandler(svc).RegisterDevRoutes(dev)
	return router, svc
}

func usageBearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := sharedauth.SignJWT(sharedauth.Claims{Sub: userID, Email: "u@example.com"})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestGetWordsDefaults(t *testing.T) {
	router, _ := setupUsageRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/usage/words", nil)
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var got struct {
		Plan        string  `json:"plan"`
		WordLimit   int     `json:"wordLimit"`
		Used        int     `json:"used"`
		Remaining   int     `json:"remaining"`
		PercentUsed float64 `json:"percentUsed"`
		CycleNumber int     `json:"cycleNumber"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Starter", got.Plan)
	assert.Equal(t, 5000, got.WordLimit)
	assert.Equal(t, 0, got.Used)
	assert.Equal(t, 5000, got.Remaining)
	assert.Equal(t, 0.0, got.PercentUsed)
	assert.Equal(t, 1, got.CycleNumber)
}

func TestGetWordsPercentUsed(t *testing.T) {
	router, svc := setupUsageRouter(t)
	ctx := context.Background()
	_, err := svc.ConsumeWords(ctx, "guest:g1", "rec-1", 1250)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/usage/words", nil)
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var got struct {
		Used        int     `json:"used"`
		PercentUsed float64 `json:"percentUsed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 1250, got.Used)
	assert.InDelta(t, 25.0, got.PercentUsed, 0.001)
}

func TestGetHistory(t *testing.T) {
	router, svc := setupUsageRouter(t)
	ctx := context.Background()
	_, err := svc.ConsumeWords(ctx, "google:u1", "rec-1", 100)
	require.NoError(t, err)
	_, err = svc.ConsumeWords(ctx, "google:u1", "rec-2", 200)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/usage/history", nil)
	req.Header.Set("Authorization", usageBearer(t, "google:u1"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var got struct {
		Cycles []struct {
			Cycle struct {
				Number int `json:"cycleNumber"`
			} `json:"cycle"`
			TotalWords int `json:"totalWords"`
			EntryCount int `json:"entryCount"`
		} `json:"cycles"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Cycles, 1)
	assert.Equal(t, 1, got.Cycles[0].Cycle.Number)
	assert.Equal(t, 300, got.Cycles[0].TotalWords)
	assert.Equal(t, 2, got.Cycles[0].EntryCount)
}

func TestHistoryRequiresLogin(t *testing.T) {
	router, _ := setupUsageRouter(t)

	for _, target := range []string{"/api/v1/usage/history", "/api/v1/usage/export"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("X-Guest-Id", "g1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		assert.Equal(t, http.StatusUnauthorized, resp.Code, target)
		assert.Contains(t, resp.Body.String(), "login_required", target)
	}
}

func TestExportXLSXDownload(t *testing.T) {
	router, svc := setupUsageRouter(t)
	ctx := context.Background()
	_, err := svc.ConsumeWords(ctx, "google:u1", "rec-1", 42)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/usage/export", nil)
	req.Header.Set("Authorization", usageBearer(t, "google:u1"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "word-usage-")
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header().Get("Content-Type"))

	book, err := excelize.OpenReader(bytes.NewReader(resp.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Cycles")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, "cycle", rows[0][0])
}

func TestDevResetClearsUsage(t *testing.T) {
	router, svc := setupUsageRouter(t)
	ctx := context.Background()
	_, err := svc.ConsumeWords(ctx, "guest:g1", "rec-1", 500)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dev/usage/reset", nil)
	req.Header.Set("X-Guest-Id", "g1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	u, err := svc.Get(ctx, "guest:g1")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Used)
}
