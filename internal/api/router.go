package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/sweetshop/sweetshop-api/internal/api/handler"
	"github.com/sweetshop/sweetshop-api/internal/api/middleware"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
	_ "github.com/sweetshop/sweetshop-api/internal/docs"
)

const bodyLimit = "1M"

// Deps carries everything the HTTP layer needs. Services are constructed by
// the caller so the router stays free of storage concerns.
type Deps struct {
	Log         zerolog.Logger
	Auth        ports.AuthService
	Sessions    middleware.Verifier
	Sweets      ports.SweetService
	Readiness   map[string]handler.Pinger
	CORSOrigins []string
	// Registry receives the HTTP metrics. Nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			handler.HeaderIdempotencyKey,
		},
	}))
	e.Use(echomiddleware.BodyLimit(bodyLimit))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "sweetshop",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	requireAuth := middleware.Auth(deps.Sessions)
	optionalAuth := middleware.OptionalAuth(deps.Sessions)

	api := e.Group("/api")

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/me", handler.NewMeHandler().Get, requireAuth)

	// --- Inventory routes ---
	// Role checks live in the service; the middleware only resolves the caller.
	sweetHandler := handler.NewSweetHandler(deps.Sweets)
	sweets := api.Group("/sweets")
	sweets.GET("", sweetHandler.List)
	sweets.GET("/search", sweetHandler.Search)
	sweets.POST("", sweetHandler.Create, requireAuth)
	sweets.GET("/:id", sweetHandler.Get)
	sweets.PUT("/:id", sweetHandler.Update, requireAuth)
	sweets.DELETE("/:id", sweetHandler.Delete, requireAuth)
	sweets.POST("/:id/purchase", sweetHandler.Purchase, optionalAuth)
	sweets.POST("/:id/restock", sweetHandler.Restock, requireAuth)
	sweets.GET("/:id/movements", sweetHandler.Movements, requireAuth)

	return e
}
