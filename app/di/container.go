package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"keycloak-gateway/app/config"
	"keycloak-gateway/app/driver/keycloak"
	"keycloak-gateway/app/driver/postgres"
	"keycloak-gateway/app/port"
	"keycloak-gateway/app/rest"
)

// Container holds all dependencies for the application
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Drivers
	DB             *postgres.DB
	KeycloakClient *keycloak.Client

	// Ports
	Profiles port.ProfileRepository
}

// NewContainer creates and initializes a new dependency injection
// container. Keycloak discovery happens here, so startup fails fast when
// the realm is unreachable.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	container := &Container{
		Config: cfg,
		Logger: logger,
	}

	var err error

	container.DB, err = postgres.NewConnection(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	container.KeycloakClient, err = keycloak.NewClient(ctx, cfg, logger)
	if err != nil {
		container.DB.Close()
		return nil, fmt.Errorf("failed to initialize keycloak client: %w", err)
	}

	container.Profiles = postgres.NewProfileRepository(container.DB.Pool(), logger)

	logger.Info("container initialized", "issuer", container.KeycloakClient.Issuer())
	return container, nil
}

// CreateRouter creates and returns a fully configured Echo router
func (c *Container) CreateRouter() *echo.Echo {
	return rest.NewRouter(rest.RouterConfig{
		Logger:       c.Logger,
		IdP:          c.KeycloakClient,
		Profiles:     c.Profiles,
		DB:           c.DB,
		FrontendURL:  c.Config.FrontendBaseURL,
		FrontendHost: c.Config.FrontendHost(),
		EnableDebug:  c.Config.LogLevel == "debug",
	})
}

// Close closes all resources
func (c *Container) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
}
