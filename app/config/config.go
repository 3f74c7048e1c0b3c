package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the gateway. It is loaded once at
// startup and passed into constructors; nothing reads the environment
// after Load returns.
type Config struct {
	// Server
	Port     string
	Host     string
	LogLevel string

	// Database
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseSSLMode  string

	// Keycloak
	KeycloakServerURL    string
	KeycloakRealm        string
	KeycloakClientID     string
	KeycloakClientSecret string
	KeycloakRedirectURI  string
	KeycloakTimeout      time.Duration

	// Frontend the callback handler redirects to and scopes its
	// cookies against.
	FrontendBaseURL string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Port = getEnvOrDefault("PORT", "9600")
	cfg.Host = getEnvOrDefault("HOST", "0.0.0.0")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	cfg.DatabaseHost = getEnvOrDefault("DB_HOST", "profile-postgres")
	cfg.DatabasePort = getEnvOrDefault("DB_PORT", "5432")
	cfg.DatabaseName = getEnvOrDefault("DB_NAME", "profile_db")
	cfg.DatabaseUser = getEnvOrDefault("DB_USER", "profile_user")
	cfg.DatabasePassword = os.Getenv("DB_PASSWORD")
	if cfg.DatabasePassword == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}
	cfg.DatabaseSSLMode = getEnvOrDefault("DB_SSL_MODE", "require")

	cfg.KeycloakServerURL = os.Getenv("KEYCLOAK_SERVER_URL")
	if cfg.KeycloakServerURL == "" {
		return nil, fmt.Errorf("KEYCLOAK_SERVER_URL is required")
	}
	cfg.KeycloakRealm = os.Getenv("KEYCLOAK_REALM")
	if cfg.KeycloakRealm == "" {
		return nil, fmt.Errorf("KEYCLOAK_REALM is required")
	}
	cfg.KeycloakClientID = os.Getenv("KEYCLOAK_CLIENT_ID")
	if cfg.KeycloakClientID == "" {
		return nil, fmt.Errorf("KEYCLOAK_CLIENT_ID is required")
	}
	cfg.KeycloakClientSecret = os.Getenv("KEYCLOAK_CLIENT_SECRET")
	cfg.KeycloakRedirectURI = os.Getenv("KEYCLOAK_REDIRECT_URI")
	if cfg.KeycloakRedirectURI == "" {
		return nil, fmt.Errorf("KEYCLOAK_REDIRECT_URI is required")
	}

	timeoutStr := getEnvOrDefault("KEYCLOAK_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid KEYCLOAK_TIMEOUT: %w", err)
	}
	cfg.KeycloakTimeout = timeout

	cfg.FrontendBaseURL = os.Getenv("BASE_FRONTEND_URL")
	if cfg.FrontendBaseURL == "" {
		return nil, fmt.Errorf("BASE_FRONTEND_URL is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("invalid port: %s", c.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535: %s", c.Port)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	for name, raw := range map[string]string{
		"KEYCLOAK_SERVER_URL":   c.KeycloakServerURL,
		"KEYCLOAK_REDIRECT_URI": c.KeycloakRedirectURI,
		"BASE_FRONTEND_URL":     c.FrontendBaseURL,
	} {
		if !isValidURL(raw) {
			return fmt.Errorf("invalid %s: %s", name, raw)
		}
	}

	if c.KeycloakTimeout < time.Second {
		return fmt.Errorf("keycloak timeout must be at least 1s, got: %v", c.KeycloakTimeout)
	}

	return nil
}

// Issuer returns the realm issuer URL used for OIDC discovery.
func (c *Config) Issuer() string {
	return fmt.Sprintf("%s/realms/%s", strings.TrimRight(c.KeycloakServerURL, "/"), c.KeycloakRealm)
}

// FrontendHost returns the hostname of the frontend base URL. The
// callback handler scopes its cookies to "." + this host.
func (c *Config) FrontendHost() string {
	u, err := url.Parse(c.FrontendBaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// DatabaseDSN builds the PostgreSQL connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// Helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func isValidURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
