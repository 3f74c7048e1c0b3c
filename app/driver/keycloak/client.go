package keycloak

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"

	"keycloak-gateway/app/config"
)

// Client wraps the discovered Keycloak realm. It owns the OAuth2
// configuration for the confidential client and a dedicated HTTP client
// with a single bounded timeout per call. There are no retries: a
// repeated password grant could trigger IdP-side lockouts.
type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client

	issuer       string
	tokenURL     string
	logoutURL    string
	userinfoURL  string
	clientID     string
	clientSecret string

	logger *slog.Logger
}

// discoveryClaims are the realm metadata fields this client needs beyond
// what go-oidc exposes directly.
type discoveryClaims struct {
	TokenEndpoint      string `json:"token_endpoint"`
	EndSessionEndpoint string `json:"end_session_endpoint"`
	UserinfoEndpoint   string `json:"userinfo_endpoint"`
}

// NewClient discovers the realm via /.well-known/openid-configuration and
// builds the OAuth2 configuration for the authorization-code flow.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = cfg.KeycloakTimeout

	issuer := cfg.Issuer()
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("keycloak discovery failed for %s: %w", issuer, err)
	}

	var claims discoveryClaims
	if err := provider.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode keycloak discovery document: %w", err)
	}
	if claims.TokenEndpoint == "" || claims.EndSessionEndpoint == "" || claims.UserinfoEndpoint == "" {
		return nil, fmt.Errorf("keycloak discovery document for %s is missing the token, end-session or userinfo endpoint", issuer)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.KeycloakClientID,
		ClientSecret: cfg.KeycloakClientSecret,
		RedirectURL:  cfg.KeycloakRedirectURI,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}

	logger.Info("keycloak client initialized",
		"issuer", issuer,
		"client_id", cfg.KeycloakClientID,
		"timeout", cfg.KeycloakTimeout)

	return &Client{
		oauth:        oauthCfg,
		httpClient:   httpClient,
		issuer:       issuer,
		tokenURL:     claims.TokenEndpoint,
		logoutURL:    claims.EndSessionEndpoint,
		userinfoURL:  claims.UserinfoEndpoint,
		clientID:     cfg.KeycloakClientID,
		clientSecret: cfg.KeycloakClientSecret,
		logger:       logger.With("component", "keycloak"),
	}, nil
}

// Issuer returns the discovered realm issuer URL.
func (c *Client) Issuer() string {
	return c.issuer
}

// callContext attaches the client's bounded HTTP client to ctx so that
// both go-oidc and oauth2 calls go through it.
func (c *Client) callContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}
