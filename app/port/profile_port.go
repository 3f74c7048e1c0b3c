package port

import (
	"context"

	"keycloak-gateway/app/domain"
)

// ProfileRepository persists user-profile rows keyed by the Keycloak
// subject id.
type ProfileRepository interface {
	// Create inserts a new profile. Fails with domain.ErrProfileExists
	// when a row for the subject already exists.
	Create(ctx context.Context, profile *domain.UserProfile) error

	// GetBySubject returns the profile for a subject id, or
	// domain.ErrProfileNotFound.
	GetBySubject(ctx context.Context, sub string) (*domain.UserProfile, error)

	// Update replaces the mutable profile fields and refreshes
	// updated_at. Fails with domain.ErrProfileNotFound when no row
	// exists for the subject.
	Update(ctx context.Context, profile *domain.UserProfile) error

	// Delete removes the profile row, or returns
	// domain.ErrProfileNotFound.
	Delete(ctx context.Context, sub string) error
}
