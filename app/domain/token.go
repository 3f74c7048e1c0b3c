package domain

import "strconv"

// TokenBundle holds the token material returned by a Keycloak grant.
// Bundles are only ever produced by the Keycloak driver; the values are
// opaque to this service and are never persisted server-side.
type TokenBundle struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
}

// CookieField is a single cookie-bound token attribute.
type CookieField struct {
	Name  string
	Value string
}

// CookieFields returns the bundle as the ordered name/value pairs the
// callback handler sets as cookies. The names are part of the wire
// contract with the frontend and must not change.
func (t *TokenBundle) CookieFields() []CookieField {
	return []CookieField{
		{Name: "access_token", Value: t.AccessToken},
		{Name: "expires_in", Value: strconv.Itoa(t.ExpiresIn)},
		{Name: "refresh_token", Value: t.RefreshToken},
		{Name: "refresh_expires_in", Value: strconv.Itoa(t.RefreshExpiresIn)},
		{Name: "token_type", Value: t.TokenType},
	}
}
