package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Schoolmate-Ai/schoolmateai-backend/database"
	"github.com/Schoolmate-Ai/schoolmateai-backend/middlewares"
	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

// setupDB opens a fresh in-memory database, migrates it and points the
// package-global connection at it for the duration of the test. The shared
// cache keeps every pooled connection on the same database.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
	return db
}

// newTestContext builds an echo context around a recorded request. Claims,
// when given, are attached directly instead of going through the JWT
// middleware.
func newTestContext(t *testing.T, method, path string, body any, claims *middlewares.Claims) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if claims != nil {
		middlewares.SetClaims(c, claims)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var m map[string]any
	decodeBody(t, rec, &m)
	code, _ := m["error"].(string)
	return code
}

func claimsFor(u models.User) *middlewares.Claims {
	school := u.SchoolID
	return &middlewares.Claims{
		UserID:           u.ID,
		Role:             u.Role,
		SchoolID:         &school,
		RegisteredClaims: jwt.RegisteredClaims{Subject: u.Email},
	}
}

func seedSchool(t *testing.T, db *gorm.DB) models.School {
	t.Helper()
	s := models.School{
		Name:    "Test School " + uuid.NewString()[:8],
		Address: "1 Test Lane",
		Board:   "CBSE",
	}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func seedClass(t *testing.T, db *gorm.DB, schoolID uuid.UUID, name, section string) models.Class {
	t.Helper()
	c := models.Class{SchoolID: schoolID, ClassName: name, Section: section}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func seedSubject(t *testing.T, db *gorm.DB, schoolID uuid.UUID, name string) models.Subject {
	t.Helper()
	s := models.Subject{SchoolID: schoolID, Name: name}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func seedUser(t *testing.T, db *gorm.DB, schoolID uuid.UUID, role, name string, classID *uuid.UUID) models.User {
	t.Helper()
	u := models.User{
		Name:         name,
		Email:        uuid.NewString() + "@example.test",
		PasswordHash: "not-a-real-hash",
		Role:         role,
		SchoolID:     schoolID,
		ClassID:      classID,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedClassTeacher(t *testing.T, db *gorm.DB, teacherID, classID uuid.UUID) models.ClassTeacher {
	t.Helper()
	ct := models.ClassTeacher{TeacherID: teacherID, ClassID: classID}
	require.NoError(t, db.Create(&ct).Error)
	return ct
}
