package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"

	"github.com/Schoolmate-Ai/schoolmateai-backend/database"
	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

// DirectoryHandler creates and lists the accounts, classes and subjects of
// one school. Each register endpoint accepts exactly one target role.
type DirectoryHandler struct{}

func NewDirectoryHandler() *DirectoryHandler { return &DirectoryHandler{} }

type registerUserReq struct {
	Name        string         `json:"name" validate:"required"`
	Email       string         `json:"email" validate:"required,email"`
	Password    string         `json:"password" validate:"required,min=8"`
	ClassID     *uuid.UUID     `json:"class_id"`
	ProfileData map[string]any `json:"profile_data"`
}

func (h *DirectoryHandler) registerUser(c echo.Context, role string) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var req registerUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR"})
	}

	var dup models.User
	if err := database.DB.Where("email = ?", req.Email).First(&dup).Error; err == nil {
		return c.JSON(http.StatusConflict, map[string]any{"error": "EMAIL_EXISTS"})
	}

	// class_id only makes sense for students, and must be a class of the
	// caller's school.
	var classID *uuid.UUID
	if role == models.RoleStudent && req.ClassID != nil {
		var class models.Class
		if err := database.DB.Where("id = ? AND school_id = ?", *req.ClassID, schoolID).First(&class).Error; err != nil {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "CLASS_NOT_FOUND"})
		}
		classID = req.ClassID
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "HASH_FAILED"})
	}
	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		SchoolID:     schoolID,
		ClassID:      classID,
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

// POST /school/register-admin
func (h *DirectoryHandler) RegisterAdmin(c echo.Context) error {
	return h.registerUser(c, models.RoleSchoolAdmin)
}

// POST /school/register-teacher
func (h *DirectoryHandler) RegisterTeacher(c echo.Context) error {
	return h.registerUser(c, models.RoleTeacher)
}

// POST /school/register-student
func (h *DirectoryHandler) RegisterStudent(c echo.Context) error {
	return h.registerUser(c, models.RoleStudent)
}

// POST /school/register-parent
func (h *DirectoryHandler) RegisterParent(c echo.Context) error {
	return h.registerUser(c, models.RoleParent)
}

type addClassReq struct {
	ClassName string `json:"class_name" validate:"required"`
	Section   string `json:"section" validate:"required"`
}

// POST /school/add-class
func (h *DirectoryHandler) AddClass(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var req addClassReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.ClassName = strings.TrimSpace(req.ClassName)
	req.Section = strings.TrimSpace(req.Section)
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR"})
	}

	var cnt int64
	database.DB.Model(&models.Class{}).
		Where("school_id = ? AND class_name = ? AND section = ?", schoolID, req.ClassName, req.Section).
		Count(&cnt)
	if cnt > 0 {
		return c.JSON(http.StatusConflict, map[string]any{"error": "CLASS_EXISTS"})
	}

	class := models.Class{SchoolID: schoolID, ClassName: req.ClassName, Section: req.Section}
	if err := database.DB.Create(&class).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "CREATE_FAILED"})
	}
	return c.JSON(http.StatusCreated, class)
}

type addSubjectReq struct {
	Name string `json:"name" validate:"required"`
}

// POST /school/add-subject
func (h *DirectoryHandler) AddSubject(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var req addSubjectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR"})
	}

	var cnt int64
	database.DB.Model(&models.Subject{}).
		Where("school_id = ? AND name = ?", schoolID, req.Name).
		Count(&cnt)
	if cnt > 0 {
		return c.JSON(http.StatusConflict, map[string]any{"error": "SUBJECT_EXISTS"})
	}

	subject := models.Subject{SchoolID: schoolID, Name: req.Name}
	if err := database.DB.Create(&subject).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "CREATE_FAILED"})
	}
	return c.JSON(http.StatusCreated, subject)
}

type teacherOut struct {
	models.User
	IsClassTeacher bool       `json:"is_class_teacher"`
	ClassTeacherOf *uuid.UUID `json:"class_teacher_of,omitempty"`
}

// GET /school/teachers
//
// is_class_teacher is derived from class_teachers on every read; there is no
// stored flag to drift out of sync.
func (h *DirectoryHandler) ListTeachers(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var teachers []models.User
	if err := database.DB.
		Where("school_id = ? AND role = ?", schoolID, models.RoleTeacher).
		Order("name ASC").Find(&teachers).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	ids := make([]uuid.UUID, 0, len(teachers))
	for _, t := range teachers {
		ids = append(ids, t.ID)
	}
	var assignments []models.ClassTeacher
	if len(ids) > 0 {
		if err := database.DB.Where("teacher_id IN ?", ids).Find(&assignments).Error; err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
		}
	}
	classOf := make(map[uuid.UUID]uuid.UUID, len(assignments))
	for _, a := range assignments {
		classOf[a.TeacherID] = a.ClassID
	}

	out := make([]teacherOut, 0, len(teachers))
	for _, t := range teachers {
		o := teacherOut{User: t}
		if classID, ok := classOf[t.ID]; ok {
			o.IsClassTeacher = true
			cid := classID
			o.ClassTeacherOf = &cid
		}
		out = append(out, o)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /school/students?class_id=
func (h *DirectoryHandler) ListStudents(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}

	tx := database.DB.Where("school_id = ? AND role = ?", schoolID, models.RoleStudent)
	if raw := strings.TrimSpace(c.QueryParam("class_id")); raw != "" {
		classID, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
		}
		tx = tx.Where("class_id = ?", classID)
	}

	var students []models.User
	if err := tx.Order("name ASC").Find(&students).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, students)
}

// GET /school/classes
func (h *DirectoryHandler) ListClasses(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}
	var classes []models.Class
	if err := database.DB.Where("school_id = ?", schoolID).
		Order("class_name ASC, section ASC").Find(&classes).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, classes)
}

// GET /school/subjects
func (h *DirectoryHandler) ListSubjects(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}
	var subjects []models.Subject
	if err := database.DB.Where("school_id = ?", schoolID).
		Order("name ASC").Find(&subjects).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, subjects)
}
