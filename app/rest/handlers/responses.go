package handlers

import "time"

// DetailResponse is the body shape the frontend contract uses for auth
// failures and simple status messages.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// UnexpectedErrorResponse carries the raw error message for 500s.
type UnexpectedErrorResponse struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// ErrorResponse is the generic error body for validation and shape
// failures.
type ErrorResponse struct {
	Error  string `json:"error"`
	Fields any    `json:"fields,omitempty"`
}

// UserInfoResponse is the userinfo payload: the well-known OIDC profile
// claims plus the stored profile-picture reference, if any.
type UserInfoResponse struct {
	Sub               string  `json:"sub"`
	GivenName         string  `json:"given_name"`
	FamilyName        string  `json:"family_name"`
	PreferredUsername string  `json:"preferred_username"`
	Email             string  `json:"email"`
	ProfilePicture    *string `json:"profile_picture"`
}

// ProfileResponse is the profile row as exposed over HTTP. The picture
// itself is served from its own endpoint; the response only carries the
// reference.
type ProfileResponse struct {
	UUID           string    `json:"uuid"`
	Email          string    `json:"email"`
	ProfilePicture *string   `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HealthResponse is the basic health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}
