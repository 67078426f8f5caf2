package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Schoolmate-Ai/schoolmateai-backend/middlewares"
)

const dateLayout = "2006-01-02"

var validate = validator.New()

// requireTenant returns the caller's claims and school id. Platform
// super-admin tokens carry no tenant and are rejected on tenant-scoped
// routes.
func requireTenant(c echo.Context) (*middlewares.Claims, uuid.UUID, error) {
	claims := middlewares.GetClaims(c)
	if claims == nil {
		return nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, map[string]any{"error": "INVALID_TOKEN"})
	}
	if claims.SchoolID == nil || *claims.SchoolID == uuid.Nil {
		return nil, uuid.Nil, echo.NewHTTPError(http.StatusForbidden, map[string]any{"error": "NO_TENANT"})
	}
	return claims, *claims.SchoolID, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func parseUUIDParam(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	return id, err == nil
}
