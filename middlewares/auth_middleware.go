package middlewares

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

const claimsKey = "auth.claims"

// Claims is the decoded token payload. Subject carries the email. SchoolID
// is nil on platform super-admin tokens, which are not tenant-scoped.
type Claims struct {
	UserID   uuid.UUID  `json:"user_id,omitempty"`
	Role     string     `json:"role"`
	SchoolID *uuid.UUID `json:"school_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Email() string { return c.Subject }

func extractBearer(c echo.Context) (string, error) {
	h := c.Request().Header.Get("Authorization")
	if h == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, map[string]any{"error": "MISSING_AUTH_HEADER"})
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, map[string]any{"error": "INVALID_AUTH_HEADER"})
	}
	return parts[1], nil
}

func parseClaims(c echo.Context, secret string) (*Claims, error) {
	tok, err := extractBearer(c)
	if err != nil {
		return nil, err
	}
	token, err := jwt.ParseWithClaims(tok, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, map[string]any{"error": "INVALID_TOKEN_METHOD"})
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, map[string]any{"error": "INVALID_TOKEN"})
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, map[string]any{"error": "INVALID_CLAIMS"})
	}
	return claims, nil
}

// RequireAuth verifies a school-user token (HS256) and attaches the typed
// claims to the context. Tokens missing user id, email or role are rejected.
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseClaims(c, secret)
			if err != nil {
				return err
			}
			if claims.UserID == uuid.Nil || claims.Email() == "" || claims.Role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]any{"error": "TOKEN_MISSING_FIELDS"})
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// RequireSuperAdmin verifies a platform super-admin token. These tokens
// carry only subject and role; there is no tenant.
func RequireSuperAdmin(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseClaims(c, secret)
			if err != nil {
				return err
			}
			if claims.Email() == "" || claims.Role != models.RoleSuperAdmin {
				return echo.NewHTTPError(http.StatusForbidden, map[string]any{"error": "FORBIDDEN"})
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// GetClaims returns the claims attached by RequireAuth/RequireSuperAdmin.
func GetClaims(c echo.Context) *Claims {
	claims, _ := c.Get(claimsKey).(*Claims)
	return claims
}

// SetClaims attaches claims directly. Test hook.
func SetClaims(c echo.Context, claims *Claims) {
	c.Set(claimsKey, claims)
}
