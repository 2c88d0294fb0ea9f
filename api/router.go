// Package api serves the on-demand HTTP surface: health, the due list and
// single-vehicle checks.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tollwatch/api/handler"
	"github.com/use-agent/tollwatch/api/middleware"
	"github.com/use-agent/tollwatch/cache"
	"github.com/use-agent/tollwatch/config"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Checker handler.Checker
	Roster  handler.RosterFunc
	Gate    *handler.Gate
	Limiter *middleware.Limiter
	Cache   *cache.Cache // nil disables report caching
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(cfg *config.Config, deps Deps, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	if deps.Gate == nil {
		deps.Gate = handler.NewGate()
	}
	if deps.Limiter == nil {
		deps.Limiter = middleware.NewLimiter(cfg.RateLimit)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(deps.Gate, startTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(deps.Limiter.Middleware())

	protected.GET("/due", handler.Due(deps.Roster, cfg.Run.Location()))
	protected.POST("/check", handler.Check(deps.Checker, deps.Gate, deps.Roster, deps.Cache, cfg.Run.WindowDays))

	return r
}
