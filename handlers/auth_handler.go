package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/Schoolmate-Ai/schoolmateai-backend/config"
	"github.com/Schoolmate-Ai/schoolmateai-backend/database"
	"github.com/Schoolmate-Ai/schoolmateai-backend/middlewares"
	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

type AuthHandler struct {
	JWTSecret string
	TokenTTL  time.Duration
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{JWTSecret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL}
}

// signSchoolToken mints a tenant-scoped token: subject email, role, user id,
// school id.
func (h *AuthHandler) signSchoolToken(u *models.User) (string, error) {
	now := time.Now()
	claims := middlewares.Claims{
		UserID:   u.ID,
		Role:     u.Role,
		SchoolID: &u.SchoolID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(h.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return tk.SignedString([]byte(h.JWTSecret))
}

// signSuperAdminToken mints a platform token: subject email and role only.
func (h *AuthHandler) signSuperAdminToken(a *models.SuperAdmin) (string, error) {
	now := time.Now()
	claims := middlewares.Claims{
		UserID: a.ID,
		Role:   models.RoleSuperAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(h.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return tk.SignedString([]byte(h.JWTSecret))
}

type schoolLoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /school/login
//
// Unknown email and wrong password both answer INVALID_CREDENTIALS so the
// endpoint cannot be used to enumerate accounts.
func (h *AuthHandler) SchoolLogin(c echo.Context) error {
	var req schoolLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_FIELDS"})
	}

	var u models.User
	if err := database.DB.Where("email = ?", req.Email).First(&u).Error; err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "INVALID_CREDENTIALS"})
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "INVALID_CREDENTIALS"})
	}

	token, err := h.signSchoolToken(&u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "TOKEN_GEN_FAILED"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"access_token": token,
		"name":         u.Name,
		"role":         u.Role,
		"school_id":    u.SchoolID,
	})
}

func hashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}
