package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"keycloak-gateway/app/domain"
	"keycloak-gateway/app/port"
	"keycloak-gateway/app/rest/middleware"
)

var errPictureTooLarge = errors.New("profile picture exceeds 5 MiB")

// maxPictureBytes caps uploaded profile pictures at 5 MiB.
const maxPictureBytes = 5 << 20

// pictureFormField is the multipart field the picture is uploaded under.
const pictureFormField = "profile_picture"

// pictureRef returns the HTTP reference exposed for a stored picture.
func pictureRef() string {
	return "/v1/profile/picture"
}

// ProfileHandler handles the user-profile CRUD endpoints. Every endpoint
// requires authentication; the profile key is always the caller's subject
// id, never anything from the request body.
type ProfileHandler struct {
	profiles port.ProfileRepository
	logger   *slog.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles port.ProfileRepository, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// Create inserts the caller's profile row, with an optional picture from
// the multipart body.
func (h *ProfileHandler) Create(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, DetailResponse{
			Detail: "Authentication failed.",
		})
	}

	picture, contentType, err := h.readPicture(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
		})
	}

	profile := &domain.UserProfile{
		UUID:               identity.Sub,
		Email:              identity.Email,
		ProfilePicture:     picture,
		PictureContentType: contentType,
	}
	if err := h.profiles.Create(c.Request().Context(), profile); err != nil {
		h.logger.Warn("profile creation failed", "sub", identity.Sub, "error", err)
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusCreated, h.toResponse(profile))
}

// Update replaces the caller's profile picture (when provided) and
// refreshes updated_at either way.
func (h *ProfileHandler) Update(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, DetailResponse{
			Detail: "Authentication failed.",
		})
	}

	profile, err := h.profiles.GetBySubject(c.Request().Context(), identity.Sub)
	if err != nil {
		return writeDomainError(c, err)
	}

	picture, contentType, err := h.readPicture(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
		})
	}
	if picture != nil {
		profile.ProfilePicture = picture
		profile.PictureContentType = contentType
	}

	if err := h.profiles.Update(c.Request().Context(), profile); err != nil {
		h.logger.Warn("profile update failed", "sub", identity.Sub, "error", err)
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, h.toResponse(profile))
}

// Delete removes the caller's profile row.
func (h *ProfileHandler) Delete(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, DetailResponse{
			Detail: "Authentication failed.",
		})
	}

	if err := h.profiles.Delete(c.Request().Context(), identity.Sub); err != nil {
		h.logger.Warn("profile deletion failed", "sub", identity.Sub, "error", err)
		return writeDomainError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// Picture serves the caller's stored profile picture.
func (h *ProfileHandler) Picture(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, DetailResponse{
			Detail: "Authentication failed.",
		})
	}

	profile, err := h.profiles.GetBySubject(c.Request().Context(), identity.Sub)
	if err != nil {
		return writeDomainError(c, err)
	}
	if !profile.HasPicture() {
		return c.JSON(http.StatusNotFound, DetailResponse{
			Detail: "Profile not found.",
		})
	}

	contentType := profile.PictureContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Blob(http.StatusOK, contentType, profile.ProfilePicture)
}

// readPicture reads the optional picture upload from the multipart body.
// A missing field is not an error; the caller gets nil bytes.
func (h *ProfileHandler) readPicture(c echo.Context) ([]byte, string, error) {
	fileHeader, err := c.FormFile(pictureFormField)
	if err != nil {
		// http.ErrMissingFile and multipart parse failures on bodies
		// without a file both mean "no picture uploaded".
		return nil, "", nil
	}
	if fileHeader.Size > maxPictureBytes {
		return nil, "", errPictureTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	picture, err := io.ReadAll(io.LimitReader(file, maxPictureBytes+1))
	if err != nil {
		return nil, "", err
	}
	if len(picture) > maxPictureBytes {
		return nil, "", errPictureTooLarge
	}

	return picture, fileHeader.Header.Get("Content-Type"), nil
}

func (h *ProfileHandler) toResponse(profile *domain.UserProfile) ProfileResponse {
	resp := ProfileResponse{
		UUID:      profile.UUID,
		Email:     profile.Email,
		CreatedAt: profile.CreatedAt,
		UpdatedAt: profile.UpdatedAt,
	}
	if profile.HasPicture() {
		ref := pictureRef()
		resp.ProfilePicture = &ref
	}
	return resp
}
