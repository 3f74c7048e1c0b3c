package domain

import "time"

// UserProfile is the persisted profile row keyed by the Keycloak subject
// id. The UUID always comes from the authenticated caller, never from the
// request body.
type UserProfile struct {
	UUID               string    `json:"uuid"`
	Email              string    `json:"email"`
	ProfilePicture     []byte    `json:"-"`
	PictureContentType string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// HasPicture reports whether a profile picture has been uploaded.
func (p *UserProfile) HasPicture() bool {
	return len(p.ProfilePicture) > 0
}
