package router

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-console/internal/handler"
	"github.com/jwalitptl/clinic-console/internal/middleware"
	"github.com/jwalitptl/clinic-console/pkg/logger"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	RateLimit   middleware.RateLimiterConfig
	RateEnabled bool
	MaxBodySize int64
}

type Router struct {
	engine   *gin.Engine
	h        *handler.Handler
	health   Handler
	handlers []Handler
}

func NewRouter(
	log *logger.Logger,
	h *handler.Handler,
	httpMetrics *middleware.HTTPMetrics,
	health Handler,
	config RouterConfig,
	handlers ...Handler,
) *Router {
	engine := gin.New()

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
	)
	if httpMetrics != nil {
		engine.Use(httpMetrics.Middleware())
	}
	if config.RateEnabled {
		engine.Use(middleware.NewRateLimiter(config.RateLimit).RateLimit())
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = middleware.DefaultMaxBodySize
	}
	engine.Use(middleware.SizeLimit(config.MaxBodySize))

	return &Router{
		engine:   engine,
		h:        h,
		health:   health,
		handlers: handlers,
	}
}

func (r *Router) Setup() {
	r.engine.GET("/health", r.h.HealthCheck)
	r.engine.GET("/metrics", r.h.MetricsHandler)
	if r.health != nil {
		r.health.RegisterRoutes(&r.engine.RouterGroup)
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})
	for _, h := range r.handlers {
		h.RegisterRoutes(api)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
