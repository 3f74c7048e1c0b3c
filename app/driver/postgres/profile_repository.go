package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"keycloak-gateway/app/domain"
	"keycloak-gateway/app/port"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// ProfileRepository implements port.ProfileRepository for PostgreSQL.
// Rows are keyed by the Keycloak subject id; mutations are single-row and
// rely on row-level atomicity, so no additional locking is needed.
type ProfileRepository struct {
	db     DatabaseIface
	logger *slog.Logger
}

// NewProfileRepository creates a new PostgreSQL profile repository
func NewProfileRepository(db DatabaseIface, logger *slog.Logger) port.ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger.With("component", "profile_repository"),
	}
}

// Create inserts a new profile row keyed by the subject id.
func (r *ProfileRepository) Create(ctx context.Context, profile *domain.UserProfile) error {
	query := `
		INSERT INTO user_profiles (
			uuid, email, profile_picture, picture_content_type, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now().UTC()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.db.Exec(ctx, query,
		profile.UUID,
		profile.Email,
		profile.ProfilePicture,
		profile.PictureContentType,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("profile for subject %s: %w", profile.UUID, domain.ErrProfileExists)
		}
		r.logger.Error("failed to create profile", "sub", profile.UUID, "error", err)
		return fmt.Errorf("failed to create profile: %w", err)
	}

	r.logger.Info("profile created", "sub", profile.UUID)
	return nil
}

// GetBySubject returns the profile row for a subject id.
func (r *ProfileRepository) GetBySubject(ctx context.Context, sub string) (*domain.UserProfile, error) {
	query := `
		SELECT
			uuid, email, profile_picture, picture_content_type, created_at, updated_at
		FROM user_profiles
		WHERE uuid = $1`

	profile := &domain.UserProfile{}
	err := r.db.QueryRow(ctx, query, sub).Scan(
		&profile.UUID,
		&profile.Email,
		&profile.ProfilePicture,
		&profile.PictureContentType,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile for subject %s: %w", sub, domain.ErrProfileNotFound)
		}
		r.logger.Error("failed to get profile", "sub", sub, "error", err)
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// Update replaces the mutable fields and refreshes updated_at, whether or
// not any visible field changed.
func (r *ProfileRepository) Update(ctx context.Context, profile *domain.UserProfile) error {
	query := `
		UPDATE user_profiles
		SET profile_picture = $2, picture_content_type = $3, updated_at = $4
		WHERE uuid = $1`

	profile.UpdatedAt = time.Now().UTC()

	tag, err := r.db.Exec(ctx, query,
		profile.UUID,
		profile.ProfilePicture,
		profile.PictureContentType,
		profile.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to update profile", "sub", profile.UUID, "error", err)
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile for subject %s: %w", profile.UUID, domain.ErrProfileNotFound)
	}

	r.logger.Info("profile updated", "sub", profile.UUID)
	return nil
}

// Delete removes the profile row for a subject id.
func (r *ProfileRepository) Delete(ctx context.Context, sub string) error {
	query := `DELETE FROM user_profiles WHERE uuid = $1`

	tag, err := r.db.Exec(ctx, query, sub)
	if err != nil {
		r.logger.Error("failed to delete profile", "sub", sub, "error", err)
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile for subject %s: %w", sub, domain.ErrProfileNotFound)
	}

	r.logger.Info("profile deleted", "sub", sub)
	return nil
}
