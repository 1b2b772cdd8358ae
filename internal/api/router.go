package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/tiendadigital/marketplace-api/docs"
	"github.com/tiendadigital/marketplace-api/internal/api/handler"
	"github.com/tiendadigital/marketplace-api/internal/api/middleware"
	"github.com/tiendadigital/marketplace-api/internal/core/domain"
	"github.com/tiendadigital/marketplace-api/internal/core/ports"
	"github.com/tiendadigital/marketplace-api/internal/core/service"
)

const defaultAPIPrefix = "/api"

// Dependencies are the adapters the router wires into services and handlers.
type Dependencies struct {
	Users  ports.UserRepository
	Tokens ports.RefreshTokenRepository
	Codec  ports.TokenIssuer
	Hasher ports.PasswordHasher
	Audit  ports.AuditSink

	// Readiness lists the dependencies pinged by /health/ready.
	Readiness map[string]handler.Pinger

	APIPrefix string
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// Each router owns its HTTP metrics registry; custom auth metrics live
	// in the default one.
	reg := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "marketplace",
		Subsystem:  "http",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health" || c.Path() == "/health/ready"
		},
	}))

	// --- Dependencies ---
	authService := service.NewAuthService(deps.Users, deps.Tokens, deps.Codec, deps.Hasher, deps.Audit, deps.Log)
	profileService := service.NewProfileService(deps.Users, deps.Hasher, deps.Log)
	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(profileService)

	authenticate := middleware.Authenticate(deps.Codec, deps.Log)
	adminOnly := middleware.Authorize(domain.RoleAdmin)

	prefix := deps.APIPrefix
	if prefix == "" {
		prefix = defaultAPIPrefix
	}
	g := e.Group(prefix)

	// --- Session routes ---
	g.POST("/signup", authHandler.Signup)
	g.POST("/login", authHandler.Login)
	g.POST("/refresh-token", authHandler.RefreshToken)
	g.DELETE("/signout", authHandler.Signout)

	// --- Identity routes ---
	g.GET("/user", profileHandler.Me, authenticate)
	g.GET("/profile", profileHandler.Get, authenticate)
	g.GET("/profile/all", profileHandler.List, authenticate, adminOnly)
	g.PUT("/profile/:id", profileHandler.Update, authenticate, adminOnly)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Observability ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{reg, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
