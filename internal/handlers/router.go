// Package handlers exposes the catalog and order services over HTTP with gin.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-catalog-orders/internal/health"
	"github.com/imrishuroy/go-catalog-orders/internal/metrics"
	"github.com/imrishuroy/go-catalog-orders/internal/orders"
	"github.com/imrishuroy/go-catalog-orders/internal/products"
)

// RouterConfig groups the dependencies of the HTTP surface.
type RouterConfig struct {
	Products *products.Service
	Orders   *orders.Service
	Health   *health.Handler

	// Metrics and Gatherer are optional; /metrics is only served with a Gatherer.
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	RequestTimeout time.Duration
	Logger         *log.Entry
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	logger = logger.WithField("component", "http")

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), CORS(), AccessLog(logger))
	if cfg.Metrics != nil {
		r.Use(Metrics(cfg.Metrics))
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to E-commerce Backend API"})
	})
	r.GET("/livez", health.Liveness)
	if cfg.Health != nil {
		r.GET("/health", cfg.Health.Health)
		r.GET("/readyz", cfg.Health.Readiness)
	}
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/", Timeout(cfg.RequestTimeout))
	RegisterProductsRoutes(api, cfg.Products, logger)
	RegisterOrdersRoutes(api, cfg.Orders, logger)

	return r
}
