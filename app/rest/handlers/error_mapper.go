package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"keycloak-gateway/app/domain"
)

// writeDomainError translates a domain error into its HTTP response.
// Every handler calls this at its outer failure boundary; no driver error
// leaves a handler unmapped. The 401 bodies are part of the frontend
// contract.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidGrant):
		return c.JSON(http.StatusUnauthorized, DetailResponse{
			Detail: "Invalid grant or token.",
		})
	case errors.Is(err, domain.ErrAuthenticationFailed):
		return c.JSON(http.StatusUnauthorized, DetailResponse{
			Detail: "Authentication failed.",
		})
	case errors.Is(err, domain.ErrProfileNotFound):
		return c.JSON(http.StatusNotFound, DetailResponse{
			Detail: "Profile not found.",
		})
	case errors.Is(err, domain.ErrProfileExists):
		return c.JSON(http.StatusConflict, DetailResponse{
			Detail: "Profile already exists.",
		})
	default:
		return c.JSON(http.StatusInternalServerError, UnexpectedErrorResponse{
			Detail: "An unexpected error occurred",
			Error:  err.Error(),
		})
	}
}
