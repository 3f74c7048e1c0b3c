package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"keycloak-gateway/app/domain"
	"keycloak-gateway/app/port"
)

// identityContextKey is where the resolved identity lives on the Echo
// context for the remainder of request handling.
const identityContextKey = "user_identity"

// AuthMiddleware resolves bearer tokens against the IdP. Every
// authenticated request re-validates its token via the userinfo endpoint;
// nothing is cached locally.
type AuthMiddleware struct {
	idp    port.IdentityProvider
	logger *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(idp port.IdentityProvider, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		idp:    idp,
		logger: logger,
	}
}

// RequireAuth rejects requests without a resolvable bearer token before
// the handler body runs.
func (m *AuthMiddleware) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := m.extractBearerToken(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"detail": "Authentication failed.",
				})
			}

			identity, err := m.idp.UserInfo(c.Request().Context(), token)
			if err != nil {
				// Token rejection is expected traffic; anything else
				// (network, decode bugs) is logged loudly so it stays
				// visible, but the caller still just gets a 401.
				if errors.Is(err, domain.ErrAuthenticationFailed) {
					m.logger.Debug("bearer token rejected", "error", err)
				} else {
					m.logger.Error("identity resolution failed", "error", err)
				}
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"detail": "Authentication failed.",
				})
			}

			c.Set(identityContextKey, identity)
			return next(c)
		}
	}
}

// OptionalAuth resolves the identity when a bearer token is present but
// lets anonymous and unresolvable requests through. Resolution failures
// are swallowed into "no identity"; endpoint-level checks decide whether
// that is acceptable.
func (m *AuthMiddleware) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := m.extractBearerToken(c)
			if token == "" {
				return next(c)
			}

			identity, err := m.idp.UserInfo(c.Request().Context(), token)
			if err != nil {
				m.logger.Debug("optional auth failed", "error", err)
				return next(c)
			}

			c.Set(identityContextKey, identity)
			return next(c)
		}
	}
}

// extractBearerToken pulls the token out of an "Authorization: Bearer"
// header. Absent or malformed headers yield "" (anonymous).
func (m *AuthMiddleware) extractBearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// IdentityFrom returns the identity attached by RequireAuth or
// OptionalAuth, if any.
func IdentityFrom(c echo.Context) (*domain.UserIdentity, bool) {
	identity, ok := c.Get(identityContextKey).(*domain.UserIdentity)
	return identity, ok && identity != nil
}
