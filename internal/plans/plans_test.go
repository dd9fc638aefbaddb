package plans

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByNameCaseInsensitive(t *testing.T) {
	p, ok := ByName("pro")
	require.True(t, ok)
	assert.Equal(t, "Pro", p.Name)
	assert.Equal(t, 50000, p.MonthlyWordLimit)

	_, ok = ByName("Platinum")
	assert.False(t, ok)
}

func TestDefaultIsFreeTier(t *testing.T) {
	p := Default()
	assert.Equal(t, DefaultPlanName, p.Name)
	assert.Equal(t, 0, p.PriceCentsMonth)
	assert.Greater(t, p.MonthlyWordLimit, 0)
}

func TestListPlansEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	NewHandler().RegisterRoutes(api)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)

	var got []Plan
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 3)
	assert.Equal(t, "Starter", got[0].Name)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].MonthlyWordLimit, got[i-1].MonthlyWordLimit)
	}
}
