package port

import (
	"context"

	"keycloak-gateway/app/domain"
)

// IdentityProvider is the boundary to the external Keycloak server. All
// methods are single synchronous calls with no local retries; a failed
// call surfaces immediately as one of the domain error kinds.
type IdentityProvider interface {
	// AuthCodeURL returns the IdP authorize URL for the configured
	// client, response_type=code, scope and redirect URI.
	AuthCodeURL() string

	// ExchangeCode runs the authorization-code grant.
	// Fails with domain.ErrInvalidGrant on an invalid or expired code.
	ExchangeCode(ctx context.Context, code string) (*domain.TokenBundle, error)

	// Refresh runs the refresh-token grant.
	// Fails with domain.ErrInvalidGrant on an invalid, expired or
	// revoked refresh token.
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenBundle, error)

	// PasswordLogin runs the resource-owner-password grant with an
	// optional TOTP second factor. Fails with
	// domain.ErrAuthenticationFailed on bad credentials.
	PasswordLogin(ctx context.Context, usernameOrEmail, password, totp string) (*domain.TokenBundle, error)

	// Logout revokes the refresh token server-side. Fails with
	// domain.ErrInvalidGrant if the token is already invalid.
	Logout(ctx context.Context, refreshToken string) error

	// UserInfo resolves an access token to the user identity via the
	// IdP userinfo endpoint. Fails with domain.ErrAuthenticationFailed
	// on an invalid or expired token.
	UserInfo(ctx context.Context, accessToken string) (*domain.UserIdentity, error)
}
