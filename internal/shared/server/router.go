package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "leadertalk-backend/internal/auth"
	"leadertalk-backend/internal/leaders"
	"leadertalk-backend/internal/plans"
	"leadertalk-backend/internal/recordings"
	"leadertalk-backend/internal/shared/config"
	"leadertalk-backend/internal/shared/metrics"
	"leadertalk-backend/internal/shared/server/middleware"
	"leadertalk-backend/internal/shared/server/respond"
	"leadertalk-backend/internal/subscriptions"
	"leadertalk-backend/internal/uploads"
	"leadertalk-backend/internal/usage"
	"leadertalk-backend/internal/users"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config               config.Config
	LeadersHandler       *leaders.Handler
	PlansHandler         *plans.Handler
	RecordingsHandler    *recordings.Handler
	UsageHandler         *usage.Handler
	UsersHandler         *users.Handler
	SubscriptionsHandler *subscriptions.Handler
	GoogleAuth           *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				middleware.RateLimitGroupUpload: {Rate: 0.5, Burst: 5},
			},
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && strings.HasSuffix(c.FullPath(), "/recordings/upload") {
					return middleware.RateLimitGroupUpload
				}
				return ""
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.LeadersHandler != nil {
		deps.LeadersHandler.RegisterRoutes(api)
	}
	if deps.PlansHandler != nil {
		deps.PlansHandler.RegisterRoutes(api)
	}
	if deps.RecordingsHandler != nil {
		deps.RecordingsHandler.RegisterRoutes(api)
	}
	uploads.RegisterRoutes(api)
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(api)
	}
	if deps.SubscriptionsHandler != nil {
		deps.SubscriptionsHandler.RegisterRoutes(api)
	}
	if deps.Config.Env == "dev" && deps.UsageHandler != nil {
		dev := api.Group("/dev")
		deps.UsageHandler.RegisterDevRoutes(dev)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
