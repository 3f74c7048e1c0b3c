package rest

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"keycloak-gateway/app/port"
	"keycloak-gateway/app/rest/handlers"
	custommw "keycloak-gateway/app/rest/middleware"
)

// RouterConfig holds router configuration
type RouterConfig struct {
	Logger       *slog.Logger
	IdP          port.IdentityProvider
	Profiles     port.ProfileRepository
	DB           handlers.HealthChecker
	FrontendURL  string
	FrontendHost string
	EnableDebug  bool
}

// NewRouter creates and configures the Echo router
func NewRouter(config RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Debug = config.EnableDebug

	authHandler := handlers.NewAuthHandler(config.IdP, config.Profiles, config.FrontendURL, config.FrontendHost, config.Logger)
	profileHandler := handlers.NewProfileHandler(config.Profiles, config.Logger)
	healthHandler := handlers.NewHealthHandler(config.DB, config.Logger)

	authMiddleware := custommw.NewAuthMiddleware(config.IdP, config.Logger)
	rateLimiter := custommw.NewRateLimiter()

	// Global middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(custommw.NewCORSMiddleware(custommw.DefaultCORSConfig(config.FrontendURL)))
	e.Use(custommw.SecurityHeaders())
	e.Use(rateLimiter.RateLimit())

	v1 := e.Group("/v1")

	// Health endpoints (no auth required)
	v1.GET("/health", healthHandler.HealthCheck)
	v1.GET("/ready", healthHandler.ReadinessCheck)
	v1.GET("/live", healthHandler.LivenessCheck)

	// OIDC flow endpoints
	auth := v1.Group("/auth")
	auth.GET("/login", authHandler.Login)
	auth.GET("/callback", authHandler.Callback)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/login-simple", authHandler.SimpleLogin)
	auth.GET("/userinfo", authHandler.UserInfo, authMiddleware.RequireAuth())

	// Profile endpoints (all require a resolvable bearer token)
	profile := v1.Group("/profile")
	profile.Use(authMiddleware.RequireAuth())
	profile.POST("", profileHandler.Create)
	profile.PUT("", profileHandler.Update)
	profile.DELETE("", profileHandler.Delete)
	profile.GET("/picture", profileHandler.Picture)

	return e
}
