package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Schoolmate-Ai/schoolmateai-backend/database"
	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

// TeacherAssignmentHandler manages the class-teacher designation and the
// teacher-facing assignment views.
type TeacherAssignmentHandler struct{}

func NewTeacherAssignmentHandler() *TeacherAssignmentHandler {
	return &TeacherAssignmentHandler{}
}

type assignClassTeacherReq struct {
	TeacherID uuid.UUID `json:"teacher_id" validate:"required"`
	ClassID   uuid.UUID `json:"class_id" validate:"required"`
}

// POST /teachers/assign-class-teacher
//
// A teacher class-teaches at most one class. The check here gives a readable
// error; the unique index on class_teachers.teacher_id is the backstop under
// concurrent requests.
func (h *TeacherAssignmentHandler) AssignClassTeacher(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var req assignClassTeacherReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR"})
	}

	var teacher models.User
	if err := database.DB.
		Where("id = ? AND school_id = ? AND role = ?", req.TeacherID, schoolID, models.RoleTeacher).
		First(&teacher).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "TEACHER_NOT_FOUND"})
	}
	if _, err := loadClassInTenant(req.ClassID, schoolID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "CLASS_NOT_FOUND"})
	}

	var elsewhere int64
	database.DB.Model(&models.ClassTeacher{}).
		Where("teacher_id = ? AND class_id <> ?", req.TeacherID, req.ClassID).
		Count(&elsewhere)
	if elsewhere > 0 {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "TEACHER_ALREADY_ASSIGNED"})
	}

	var assignment models.ClassTeacher
	err = database.DB.Where("class_id = ?", req.ClassID).First(&assignment).Error
	if err == nil {
		assignment.TeacherID = req.TeacherID
		if err := database.DB.Save(&assignment).Error; err != nil {
			return c.JSON(http.StatusConflict, map[string]any{"error": "ASSIGNMENT_CONFLICT"})
		}
		return c.JSON(http.StatusOK, assignment)
	}

	assignment = models.ClassTeacher{TeacherID: req.TeacherID, ClassID: req.ClassID}
	if err := database.DB.Create(&assignment).Error; err != nil {
		// Lost a race to another request; the unique index rejected us.
		return c.JSON(http.StatusConflict, map[string]any{"error": "ASSIGNMENT_CONFLICT"})
	}
	return c.JSON(http.StatusCreated, assignment)
}

// DELETE /teachers/remove-assignment/:class_id
func (h *TeacherAssignmentHandler) RemoveAssignment(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}
	classID, ok := parseUUIDParam(c, "class_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	if _, err := loadClassInTenant(classID, schoolID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "CLASS_NOT_FOUND"})
	}

	var assignment models.ClassTeacher
	if err := database.DB.Where("class_id = ?", classID).First(&assignment).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "NO_ASSIGNMENT"})
	}
	if err := database.DB.Delete(&assignment).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_WRITE_FAILED"})
	}
	return c.NoContent(http.StatusNoContent)
}

type classWithTeacherOut struct {
	ClassID     uuid.UUID  `json:"class_id"`
	ClassName   string     `json:"class_name"`
	Section     string     `json:"section"`
	TeacherID   *uuid.UUID `json:"teacher_id,omitempty"`
	TeacherName string     `json:"teacher_name"`
}

// GET /teachers/school-class-teachers
func (h *TeacherAssignmentHandler) SchoolClassTeachers(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var rows []classWithTeacherOut
	if err := database.DB.Model(&models.Class{}).
		Select(`classes.id AS class_id, classes.class_name, classes.section,
			class_teachers.teacher_id, COALESCE(users.name, '') AS teacher_name`).
		Joins("LEFT JOIN class_teachers ON class_teachers.class_id = classes.id").
		Joins("LEFT JOIN users ON users.id = class_teachers.teacher_id").
		Where("classes.school_id = ?", schoolID).
		Order("classes.class_name ASC, classes.section ASC").
		Scan(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	for i := range rows {
		if rows[i].TeacherName == "" {
			rows[i].TeacherName = "No teacher assigned"
		}
	}
	return c.JSON(http.StatusOK, rows)
}

// GET /teachers/teacher-class/:teacher_id
func (h *TeacherAssignmentHandler) TeacherClass(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}
	teacherID, ok := parseUUIDParam(c, "teacher_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}

	var teacher models.User
	if err := database.DB.
		Where("id = ? AND school_id = ?", teacherID, schoolID).
		First(&teacher).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "TEACHER_NOT_FOUND"})
	}

	var assignment models.ClassTeacher
	if err := database.DB.Where("teacher_id = ?", teacherID).First(&assignment).Error; err != nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, assignment)
}

type teacherSubjectAssignmentOut struct {
	ClassID          uuid.UUID `json:"class_id"`
	ClassDisplayName string    `json:"class_display_name"`
	SubjectID        uuid.UUID `json:"subject_id"`
	SubjectName      string    `json:"subject_name"`
	IsOptional       bool      `json:"is_optional"`
}

// GET /teachers/my-assignments
//
// Class-subjects taught by the calling teacher.
func (h *TeacherAssignmentHandler) MyAssignments(c echo.Context) error {
	claims, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}
	if claims.Role != models.RoleTeacher {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "FORBIDDEN"})
	}

	type row struct {
		ClassID     uuid.UUID
		ClassName   string
		Section     string
		SubjectID   uuid.UUID
		SubjectName string
		IsOptional  bool
	}
	var rows []row
	if err := database.DB.Model(&models.ClassSubject{}).
		Select(`class_subjects.class_id, classes.class_name, classes.section,
			class_subjects.subject_id, subjects.name AS subject_name, class_subjects.is_optional`).
		Joins("JOIN classes ON classes.id = class_subjects.class_id").
		Joins("JOIN subjects ON subjects.id = class_subjects.subject_id").
		Where("class_subjects.teacher_id = ? AND classes.school_id = ?", claims.UserID, schoolID).
		Order("classes.class_name ASC, classes.section ASC, subjects.name ASC").
		Scan(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	out := make([]teacherSubjectAssignmentOut, 0, len(rows))
	for _, r := range rows {
		out = append(out, teacherSubjectAssignmentOut{
			ClassID:          r.ClassID,
			ClassDisplayName: r.ClassName + " " + r.Section,
			SubjectID:        r.SubjectID,
			SubjectName:      r.SubjectName,
			IsOptional:       r.IsOptional,
		})
	}
	return c.JSON(http.StatusOK, out)
}
