package domain

// UserIdentity is the user record resolved from Keycloak's userinfo
// endpoint. It is rebuilt from the IdP on every authenticated request and
// never cached locally.
type UserIdentity struct {
	Sub               string `json:"sub"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`

	// Claims holds the full userinfo payload, including attributes this
	// service has no typed field for.
	Claims map[string]any `json:"-"`
}

// Claim looks up an arbitrary userinfo attribute by key. Unknown keys are
// absent, not an error.
func (u *UserIdentity) Claim(key string) (any, bool) {
	if u.Claims == nil {
		return nil, false
	}
	v, ok := u.Claims[key]
	return v, ok
}

// StringClaim returns a claim coerced to string, or "" when the claim is
// missing or not a string.
func (u *UserIdentity) StringClaim(key string) string {
	v, ok := u.Claim(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// NewUserIdentity builds a UserIdentity from a raw claims map, lifting the
// well-known OIDC profile claims into typed fields.
func NewUserIdentity(sub string, claims map[string]any) *UserIdentity {
	u := &UserIdentity{
		Sub:    sub,
		Claims: claims,
	}
	u.GivenName = u.StringClaim("given_name")
	u.FamilyName = u.StringClaim("family_name")
	u.PreferredUsername = u.StringClaim("preferred_username")
	u.Email = u.StringClaim("email")
	return u
}
