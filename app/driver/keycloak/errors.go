package keycloak

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"keycloak-gateway/app/domain"
)

// classifyGrantError maps a token-endpoint failure onto the domain error
// taxonomy. Keycloak answers invalid, expired and revoked grants with
// 400 invalid_grant or 401 invalid_client; anything else (network
// failures, 5xx) stays an unexpected error and surfaces as-is.
func (c *Client) classifyGrantError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			c.logger.Warn("grant rejected", "op", op, "status", status, "oauth_error", re.ErrorCode)
			return fmt.Errorf("%s rejected with status %d: %w", op, status, domain.ErrInvalidGrant)
		}
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
