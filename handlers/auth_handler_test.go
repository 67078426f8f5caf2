package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schoolmate-Ai/schoolmateai-backend/middlewares"
	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

const testSecret = "test-secret"

func newTestAuthHandler() *AuthHandler {
	return &AuthHandler{JWTSecret: testSecret, TokenTTL: time.Hour}
}

func TestSchoolLogin(t *testing.T) {
	db := setupDB(t)
	h := newTestAuthHandler()

	school := seedSchool(t, db)
	hash, err := hashPassword("correct-horse-1")
	require.NoError(t, err)
	teacher := models.User{
		Name:         "Teacher",
		Email:        "teacher@example.test",
		PasswordHash: hash,
		Role:         models.RoleTeacher,
		SchoolID:     school.ID,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&teacher).Error)

	body := map[string]string{"email": "Teacher@Example.Test", "password": "correct-horse-1"}
	c, rec := newTestContext(t, http.MethodPost, "/school/login", body, nil)
	require.NoError(t, h.SchoolLogin(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, models.RoleTeacher, resp.Role)
	require.NotEmpty(t, resp.AccessToken)

	// The token carries user id, role, tenant and expiry.
	var claims middlewares.Claims
	_, err = jwt.ParseWithClaims(resp.AccessToken, &claims, func(t *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, teacher.ID, claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	require.NotNil(t, claims.SchoolID)
	assert.Equal(t, school.ID, *claims.SchoolID)
	assert.Equal(t, teacher.Email, claims.Email())
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestSchoolLoginDoesNotLeakAccountExistence(t *testing.T) {
	db := setupDB(t)
	h := newTestAuthHandler()

	school := seedSchool(t, db)
	hash, err := hashPassword("correct-horse-1")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Name: "Known", Email: "known@example.test", PasswordHash: hash,
		Role: models.RoleTeacher, SchoolID: school.ID, IsActive: true,
	}).Error)

	cases := map[string]map[string]string{
		"unknown email":  {"email": "nobody@example.test", "password": "whatever-123"},
		"wrong password": {"email": "known@example.test", "password": "wrong-password"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, rec := newTestContext(t, http.MethodPost, "/school/login", body, nil)
			require.NoError(t, h.SchoolLogin(c))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "INVALID_CREDENTIALS", errCode(t, rec))
		})
	}
}

func TestSuperAdminRegisterAndLogin(t *testing.T) {
	setupDB(t)
	h := NewSuperAdminHandler(newTestAuthHandler())

	body := superAdminRegisterReq{Name: "Operator", Email: "op@example.test", Password: "long-enough-1"}
	c, rec := newTestContext(t, http.MethodPost, "/superadmins", body, nil)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Duplicate email conflicts.
	c, rec = newTestContext(t, http.MethodPost, "/superadmins", body, nil)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_EXISTS", errCode(t, rec))

	login := map[string]string{"email": "op@example.test", "password": "long-enough-1"}
	c, rec = newTestContext(t, http.MethodPost, "/superadmins/login", login, nil)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, models.RoleSuperAdmin, resp.Role)

	var claims middlewares.Claims
	_, err := jwt.ParseWithClaims(resp.AccessToken, &claims, func(t *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, claims.Role)
	assert.Nil(t, claims.SchoolID)
}

func TestRegisterSchoolAndFirstAccount(t *testing.T) {
	db := setupDB(t)
	h := NewSuperAdminHandler(newTestAuthHandler())

	body := schoolRegisterReq{Name: "Green Valley", Address: "12 Hill Road", Board: "ICSE"}
	c, rec := newTestContext(t, http.MethodPost, "/superadmins/register-school", body, nil)
	require.NoError(t, h.RegisterSchool(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var school models.School
	decodeBody(t, rec, &school)

	// Same name and address is the same school.
	c, rec = newTestContext(t, http.MethodPost, "/superadmins/register-school", body, nil)
	require.NoError(t, h.RegisterSchool(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SCHOOL_EXISTS", errCode(t, rec))

	acct := schoolSuperAdminReq{
		Name:     "Principal",
		Email:    "principal@example.test",
		Password: "long-enough-1",
		SchoolID: school.ID,
	}
	c, rec = newTestContext(t, http.MethodPost, "/superadmins/register-school-superadmin", acct, nil)
	require.NoError(t, h.RegisterSchoolSuperAdmin(c))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user models.User
	require.NoError(t, db.Where("email = ?", "principal@example.test").First(&user).Error)
	assert.Equal(t, models.RoleSchoolSuperAdmin, user.Role)
	assert.Equal(t, school.ID, user.SchoolID)
}
