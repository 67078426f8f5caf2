package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"github.com/Schoolmate-Ai/schoolmateai-backend/database"
	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

// SuperAdminHandler covers the platform side: operator accounts, school
// (tenant) registration and provisioning the tenant's first account.
type SuperAdminHandler struct {
	Auth *AuthHandler
}

func NewSuperAdminHandler(auth *AuthHandler) *SuperAdminHandler {
	return &SuperAdminHandler{Auth: auth}
}

type superAdminRegisterReq struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// POST /superadmins
func (h *SuperAdminHandler) Register(c echo.Context) error {
	var req superAdminRegisterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR"})
	}

	var dup models.SuperAdmin
	if err := database.DB.Where("email = ?", req.Email).First(&dup).Error; err == nil {
		return c.JSON(http.StatusConflict, map[string]any{"error": "EMAIL_EXISTS"})
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "HASH_FAILED"})
	}
	admin := models.SuperAdmin{Name: req.Name, Email: req.Email, PasswordHash: hash}
	if err := database.DB.Create(&admin).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "CREATE_FAILED"})
	}
	return c.JSON(http.StatusCreated, admin)
}

// POST /superadmins/login
func (h *SuperAdminHandler) Login(c echo.Context) error {
	var req schoolLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "MISSING_FIELDS"})
	}

	var admin models.SuperAdmin
	if err := database.DB.Where("email = ?", req.Email).First(&admin).Error; err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "INVALID_CREDENTIALS"})
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, map[string]any{"error": "INVALID_CREDENTIALS"})
	}

	token, err := h.Auth.signSuperAdminToken(&admin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "TOKEN_GEN_FAILED"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"access_token": token,
		"name":         admin.Name,
		"email":        admin.Email,
		"role":         admin.Role,
	})
}

type schoolRegisterReq struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	Board   string `json:"board"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// POST /superadmins/register-school
func (h *SuperAdminHandler) RegisterSchool(c echo.Context) error {
	var req schoolRegisterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR"})
	}

	if req.Email != "" {
		var dup models.School
		if err := database.DB.Where("email = ?", req.Email).First(&dup).Error; err == nil {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "SCHOOL_EMAIL_EXISTS"})
		}
	}
	var dup models.School
	if err := database.DB.Where("name = ? AND address = ?", req.Name, req.Address).First(&dup).Error; err == nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "SCHOOL_EXISTS"})
	}

	school := models.School{
		Name:    req.Name,
		Address: req.Address,
		Board:   req.Board,
		Phone:   req.Phone,
		Email:   req.Email,
	}
	if err := database.DB.Create(&school).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "CREATE_FAILED"})
	}
	return c.JSON(http.StatusCreated, school)
}

// GET /superadmins/schools
func (h *SuperAdminHandler) ListSchools(c echo.Context) error {
	var schools []models.School
	if err := database.DB.Order("created_at ASC").Find(&schools).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, schools)
}

type schoolSuperAdminReq struct {
	Name        string         `json:"name" validate:"required"`
	Email       string         `json:"email" validate:"required,email"`
	Password    string         `json:"password" validate:"required,min=8"`
	SchoolID    uuid.UUID      `json:"school_id" validate:"required"`
	ProfileData map[string]any `json:"profile_data"`
}

// POST /superadmins/register-school-superadmin
//
// Creates the tenant's first account. The role is fixed by the endpoint.
func (h *SuperAdminHandler) RegisterSchoolSuperAdmin(c echo.Context) error {
	var req schoolSuperAdminReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR"})
	}

	var school models.School
	if err := database.DB.First(&school, "id = ?", req.SchoolID).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "SCHOOL_NOT_FOUND"})
	}
	var dup models.User
	if err := database.DB.Where("email = ?", req.Email).First(&dup).Error; err == nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "EMAIL_EXISTS"})
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "HASH_FAILED"})
	}
	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleSchoolSuperAdmin,
		SchoolID:     school.ID,
		IsActive:     true,
	}
	if req.ProfileData != nil {
		if raw, err := json.Marshal(req.ProfileData); err == nil {
			user.ProfileData = datatypes.JSON(raw)
		}
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "CREATE_FAILED"})
	}
	return c.JSON(http.StatusCreated, user)
}
