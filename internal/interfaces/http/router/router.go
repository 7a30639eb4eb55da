// Package router wires handlers and middleware into the gin engine.
package router

import (
	"github.com/dealerdesk/backend/internal/infrastructure/logger"
	"github.com/dealerdesk/backend/internal/infrastructure/telemetry"
	"github.com/dealerdesk/backend/internal/interfaces/http/handler"
	"github.com/dealerdesk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config carries everything the router needs to assemble the engine
type Config struct {
	Logger          *zap.Logger
	MeterProvider   *telemetry.MeterProvider
	TracingEnabled  bool
	AllowedOrigins  []string
	DealHandler     *handler.DealHandler
	VehicleHandler  *handler.VehicleHandler
	CustomerHandler *handler.CustomerHandler
	UserHandler     *handler.UserHandler
	Monitoring      *handler.MonitoringHandler
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// Build assembles the full engine: middleware chain, health probes, and all
// API routes. The middleware order matters: request IDs must exist before
// logging, and the dealership scope must be resolved before any handler runs.
func Build(cfg Config) *gin.Engine {
	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.AllowedOrigins
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.Secure())

	if cfg.Logger != nil {
		engine.Use(logger.GinMiddleware(cfg.Logger))
		engine.Use(logger.Recovery(cfg.Logger))
	} else {
		engine.Use(gin.Recovery())
	}

	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: "dealerdesk-backend",
		Enabled:     cfg.TracingEnabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: cfg.MeterProvider,
		Enabled:       cfg.MeterProvider != nil && cfg.MeterProvider.IsEnabled(),
	}))
	engine.Use(middleware.Dealership())

	if cfg.Monitoring != nil {
		engine.GET("/health", cfg.Monitoring.Health)
		engine.GET("/healthz", cfg.Monitoring.Health)
		engine.GET("/ready", cfg.Monitoring.Ready)
	}

	router := NewRouter(engine)
	if cfg.DealHandler != nil {
		router.Register(&dealRoutes{h: cfg.DealHandler})
	}
	if cfg.VehicleHandler != nil {
		router.Register(&vehicleRoutes{h: cfg.VehicleHandler})
	}
	if cfg.CustomerHandler != nil {
		router.Register(&customerRoutes{h: cfg.CustomerHandler})
	}
	if cfg.UserHandler != nil {
		router.Register(&userRoutes{h: cfg.UserHandler})
	}
	if cfg.Monitoring != nil {
		router.Register(&monitoringRoutes{h: cfg.Monitoring})
	}
	router.Setup()

	return engine
}

type dealRoutes struct {
	h *handler.DealHandler
}

func (r *dealRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	deals := rg.Group("/deals")
	deals.POST("", r.h.Create)
	deals.GET("", r.h.List)
	deals.GET("/:id", r.h.Get)
	deals.GET("/:id/scenarios", r.h.ListScenarios)
	deals.POST("/:id/customer", r.h.AttachCustomer)
}

type vehicleRoutes struct {
	h *handler.VehicleHandler
}

func (r *vehicleRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	vehicles := rg.Group("/vehicles")
	vehicles.POST("", r.h.Receive)
	vehicles.GET("", r.h.List)
	vehicles.GET("/:id", r.h.Get)
}

type customerRoutes struct {
	h *handler.CustomerHandler
}

func (r *customerRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	customers.POST("", r.h.Create)
	customers.GET("", r.h.List)
	customers.GET("/:id", r.h.Get)
}

type userRoutes struct {
	h *handler.UserHandler
}

func (r *userRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.POST("", r.h.Register)
	users.GET("/:id", r.h.Get)
}

// monitoringRoutes exposes read-only diagnostics. The dealership middleware
// skips this group, so probes and dashboards need no tenant header.
type monitoringRoutes struct {
	h *handler.MonitoringHandler
}

func (r *monitoringRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	monitoring := rg.Group("/monitoring")
	monitoring.GET("/pool", r.h.PoolMetrics)
	monitoring.GET("/transactions", r.h.TxStats)
	monitoring.GET("/queries", r.h.QueryHistory)
	monitoring.GET("/slow-queries", r.h.SlowQueries)
}
