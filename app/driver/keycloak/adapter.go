package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"keycloak-gateway/app/domain"
)

// AuthCodeURL returns the realm authorize URL for the configured client,
// response_type=code, scope and redirect URI.
func (c *Client) AuthCodeURL() string {
	return c.oauth.AuthCodeURL("")
}

// ExchangeCode runs the authorization-code grant against the token
// endpoint.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*domain.TokenBundle, error) {
	tok, err := c.oauth.Exchange(c.callContext(ctx), code)
	if err != nil {
		return nil, c.classifyGrantError("code exchange", err)
	}
	return bundleFromToken(tok), nil
}

// Refresh runs the refresh-token grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.TokenBundle, error) {
	src := c.oauth.TokenSource(c.callContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, c.classifyGrantError("token refresh", err)
	}
	return bundleFromToken(tok), nil
}

// tokenResponse is the raw token-endpoint payload for grants x/oauth2 has
// no surface for (direct access grant with TOTP).
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
}

// PasswordLogin runs the resource-owner-password grant, with an optional
// TOTP second factor. Keycloak accepts the one-time code as an extra
// "totp" form parameter on the direct grant.
func (c *Client) PasswordLogin(ctx context.Context, usernameOrEmail, password, totp string) (*domain.TokenBundle, error) {
	form := url.Values{
		"grant_type": {"password"},
		"client_id":  {c.clientID},
		"username":   {usernameOrEmail},
		"password":   {password},
		"scope":      {strings.Join(c.oauth.Scopes, " ")},
	}
	if c.clientSecret != "" {
		form.Set("client_secret", c.clientSecret)
	}
	if totp != "" {
		form.Set("totp", totp)
	}

	status, body, err := c.postForm(ctx, c.tokenURL, form)
	if err != nil {
		return nil, fmt.Errorf("password grant request failed: %w", err)
	}
	switch {
	case status == http.StatusOK:
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		c.logger.Warn("password grant rejected", "status", status)
		return nil, fmt.Errorf("password grant rejected with status %d: %w", status, domain.ErrAuthenticationFailed)
	default:
		return nil, fmt.Errorf("password grant failed with status %d", status)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &domain.TokenBundle{
		AccessToken:      tr.AccessToken,
		ExpiresIn:        tr.ExpiresIn,
		RefreshToken:     tr.RefreshToken,
		RefreshExpiresIn: tr.RefreshExpiresIn,
		TokenType:        tr.TokenType,
	}, nil
}

// Logout revokes the refresh token at the realm end-session endpoint.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	form := url.Values{
		"client_id":     {c.clientID},
		"refresh_token": {refreshToken},
	}
	if c.clientSecret != "" {
		form.Set("client_secret", c.clientSecret)
	}

	status, _, err := c.postForm(ctx, c.logoutURL, form)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	switch {
	case status == http.StatusNoContent || status == http.StatusOK:
		return nil
	case status == http.StatusBadRequest || status == http.StatusUnauthorized:
		return fmt.Errorf("logout rejected with status %d: %w", status, domain.ErrInvalidGrant)
	default:
		return fmt.Errorf("logout failed with status %d", status)
	}
}

// UserInfo resolves an access token via the realm userinfo endpoint and
// keeps the full claims payload on the returned identity. Only an IdP
// rejection (401/403) becomes ErrAuthenticationFailed; outages and decode
// failures keep their cause so callers can log them as such.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*domain.UserIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read userinfo response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.Debug("userinfo call rejected", "status", resp.StatusCode)
		return nil, fmt.Errorf("userinfo rejected with status %d: %w", resp.StatusCode, domain.ErrAuthenticationFailed)
	default:
		return nil, fmt.Errorf("userinfo failed with status %d", resp.StatusCode)
	}

	var claims map[string]any
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo claims: %w", err)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("userinfo response is missing the sub claim")
	}
	return domain.NewUserIdentity(sub, claims), nil
}

// postForm issues a single form POST with the bounded HTTP client and
// returns the status code and body.
func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// bundleFromToken maps an oauth2 token plus its raw extras into a
// TokenBundle. Keycloak reports refresh_expires_in only in the raw
// payload.
func bundleFromToken(tok *oauth2.Token) *domain.TokenBundle {
	expiresIn := intExtra(tok, "expires_in")
	if expiresIn == 0 && !tok.Expiry.IsZero() {
		expiresIn = int(time.Until(tok.Expiry).Seconds())
	}
	return &domain.TokenBundle{
		AccessToken:      tok.AccessToken,
		ExpiresIn:        expiresIn,
		RefreshToken:     tok.RefreshToken,
		RefreshExpiresIn: intExtra(tok, "refresh_expires_in"),
		TokenType:        tok.TokenType,
	}
}

// intExtra reads a numeric extra field off an oauth2 token. The JSON
// decoder surfaces numbers as float64.
func intExtra(tok *oauth2.Token, key string) int {
	switch v := tok.Extra(key).(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}
