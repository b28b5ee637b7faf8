package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"isotope-backend/internal/runs"
	"isotope-backend/internal/shared/config"
	"isotope-backend/internal/shared/metrics"
	"isotope-backend/internal/shared/server/middleware"
	"isotope-backend/internal/shared/server/respond"
)

// RouterDeps carries everything route registration needs.
type RouterDeps struct {
	Config     config.Config
	RunHandler *runs.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(rateLimits()),
	)

	r.GET("/healthz", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	deps.RunHandler.RegisterRoutes(api)

	return r
}

// rateLimits keeps the poll endpoint in its own generous bucket so a client
// polling many runs at once does not crowd out run creation.
func rateLimits() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 20, Burst: 40},
			"POLL":    {Rate: 50, Burst: 100},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet && c.FullPath() == "/api/v1/analysis-runs/:id" {
				return "POLL"
			}
			return "DEFAULT"
		},
	}
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
