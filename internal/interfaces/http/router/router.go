// Package router wires handlers onto the gin engine.
package router

import (
	"github.com/adfeed/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adfeed/backend/internal/infrastructure/logger"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds router configuration
type Config struct {
	// APIVersion is the version segment of the URL prefix, e.g. "v1"
	APIVersion string
	// CORS configures cross-origin access; zero value rejects all origins
	CORS middleware.CORSConfig
	// MaxBodyBytes caps request body size; 0 disables the limit
	MaxBodyBytes int64
	// Logger is the base logger for request logging and panic recovery
	Logger *zap.Logger
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	cfg        Config
	registrars []RouteRegistrar
}

// New creates a Router over a fresh gin engine with the standard
// middleware chain installed
func New(cfg Config) *Router {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.Merchant(),
	)
	if cfg.MaxBodyBytes > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	}

	return &Router{engine: engine, cfg: cfg}
}

// Register adds a RouteRegistrar to be wired on Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes and returns the engine
func (r *Router) Setup() *gin.Engine {
	api := r.engine.Group("/api/" + r.cfg.APIVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return r.engine
}
