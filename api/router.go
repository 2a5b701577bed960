package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/use-agent/shopcrawl/api/handler"
	"github.com/use-agent/shopcrawl/api/middleware"
	"github.com/use-agent/shopcrawl/config"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Runner   handler.CatalogRunner
	Gatherer prometheus.Gatherer
	HTTP     middleware.HTTPObserver
	Logger   *slog.Logger
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → AccessLog → Metrics
//	Catalog: RateLimit
//
// Health and metrics endpoints are outside the rate limit so probes and
// scrapers always work.
func NewRouter(deps Deps, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.AccessLog())
	if deps.HTTP != nil {
		r.Use(middleware.Metrics(deps.HTTP))
	}

	r.GET("/healthz", handler.Health())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	catalog := r.Group("/api")
	catalog.Use(middleware.RateLimit(cfg.RateLimit))
	catalog.GET("", handler.Catalog(deps.Runner, cfg.Crawl.Categories))
	catalog.GET("/:category", handler.CategoryCatalog(deps.Runner, cfg.Crawl.Categories))

	return r
}
