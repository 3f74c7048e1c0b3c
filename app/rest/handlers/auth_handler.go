package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"keycloak-gateway/app/domain"
	"keycloak-gateway/app/port"
	"keycloak-gateway/app/rest/middleware"
	"keycloak-gateway/app/utils/validator"
)

// tokenCookieMaxAge is the fixed lifetime of every token cookie set by
// the callback handler. Part of the frontend wire contract.
const tokenCookieMaxAge = 3600

// AuthHandler handles the OIDC flow endpoints: login redirect, callback,
// refresh, userinfo, logout and password login.
type AuthHandler struct {
	idp          port.IdentityProvider
	profiles     port.ProfileRepository
	validator    *validator.Validator
	frontendURL  string
	frontendHost string
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(idp port.IdentityProvider, profiles port.ProfileRepository, frontendURL, frontendHost string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		idp:          idp,
		profiles:     profiles,
		validator:    validator.New(),
		frontendURL:  frontendURL,
		frontendHost: frontendHost,
		logger:       logger,
	}
}

// RefreshRequest is the refresh endpoint body.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest is the logout endpoint body.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,min=1"`
}

// SimpleLoginRequest is the password-login endpoint body. The TOTP second
// factor is optional.
type SimpleLoginRequest struct {
	UsernameOrEmail string `json:"username_or_email" validate:"required"`
	Password        string `json:"password" validate:"required"`
	Totp            string `json:"totp" validate:"omitempty,totp"`
}

// Login redirects the browser to the Keycloak authorize URL.
func (h *AuthHandler) Login(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.idp.AuthCodeURL())
}

// Callback exchanges the authorization code for tokens, sets the token
// cookies and redirects back to the frontend.
func (h *AuthHandler) Callback(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Missing code parameter",
		})
	}

	bundle, err := h.idp.ExchangeCode(c.Request().Context(), code)
	if err != nil {
		h.logger.Warn("code exchange failed", "error", err)
		return writeDomainError(c, err)
	}

	h.setTokenCookies(c, bundle)
	return c.Redirect(http.StatusFound, h.frontendURL)
}

// setTokenCookies sets each bundle field as its own cookie. Fixed
// contract: Max-Age 3600, Secure, HttpOnly, SameSite=Lax, domain scoped
// to "." + frontend host for subdomain sharing.
func (h *AuthHandler) setTokenCookies(c echo.Context, bundle *domain.TokenBundle) {
	for _, field := range bundle.CookieFields() {
		c.SetCookie(&http.Cookie{
			Name:     field.Name,
			Value:    field.Value,
			MaxAge:   tokenCookieMaxAge,
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Domain:   "." + h.frontendHost,
			Path:     "/",
		})
	}
}

// Refresh exchanges a refresh token for a new token bundle.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}

	bundle, err := h.idp.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		h.logger.Warn("token refresh failed", "error", err)
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, bundle)
}

// UserInfo returns the authenticated caller's identity merged with the
// stored profile-picture reference.
func (h *AuthHandler) UserInfo(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, DetailResponse{
			Detail: "Authentication failed.",
		})
	}

	resp := UserInfoResponse{
		Sub:               identity.Sub,
		GivenName:         identity.GivenName,
		FamilyName:        identity.FamilyName,
		PreferredUsername: identity.PreferredUsername,
		Email:             identity.Email,
	}

	profile, err := h.profiles.GetBySubject(c.Request().Context(), identity.Sub)
	switch {
	case err == nil:
		if profile.HasPicture() {
			ref := pictureRef()
			resp.ProfilePicture = &ref
		}
	case errors.Is(err, domain.ErrProfileNotFound):
		// No profile yet; the picture stays null.
	default:
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the refresh token server-side.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}

	if err := h.idp.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		h.logger.Warn("logout failed", "error", err)
		return writeDomainError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// SimpleLogin authenticates with username/email and password, optionally
// with a TOTP code.
func (h *AuthHandler) SimpleLogin(c echo.Context) error {
	var req SimpleLoginRequest
	if ok, err := h.bindAndValidate(c, &req); !ok {
		return err
	}

	bundle, err := h.idp.PasswordLogin(c.Request().Context(), req.UsernameOrEmail, req.Password, req.Totp)
	if err != nil {
		h.logger.Warn("password login failed", "username_or_email", req.UsernameOrEmail, "error", err)
		return writeDomainError(c, err)
	}

	return c.JSON(http.StatusOK, bundle)
}

// bindAndValidate binds the request body, checks its shape and writes the
// 400 response on failure. It reports whether the request is usable.
func (h *AuthHandler) bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
		})
	}
	if err := h.validator.Validate(req); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			return false, c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:  "validation failed",
				Fields: verr.Errors,
			})
		}
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "validation failed",
		})
	}
	return true, nil
}
