package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Schoolmate-Ai/schoolmateai-backend/database"
	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

// SubjectHandler maintains class-subject mappings and optional-subject
// enrollments. Every referenced entity must belong to the caller's school.
type SubjectHandler struct{}

func NewSubjectHandler() *SubjectHandler { return &SubjectHandler{} }

// loadClassInTenant fetches a class and enforces tenant scope in one step.
func loadClassInTenant(classID, schoolID uuid.UUID) (*models.Class, error) {
	var class models.Class
	if err := database.DB.Where("id = ? AND school_id = ?", classID, schoolID).First(&class).Error; err != nil {
		return nil, err
	}
	return &class, nil
}

type mapToClassReq struct {
	ClassID    uuid.UUID  `json:"class_id" validate:"required"`
	SubjectID  uuid.UUID  `json:"subject_id" validate:"required"`
	IsOptional bool       `json:"is_optional"`
	TeacherID  *uuid.UUID `json:"teacher_id"`
}

// POST /subjects/map-to-class
func (h *SubjectHandler) MapToClass(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var req mapToClassReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR"})
	}

	var subject models.Subject
	if err := database.DB.Where("id = ? AND school_id = ?", req.SubjectID, schoolID).First(&subject).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "SUBJECT_NOT_FOUND"})
	}
	if _, err := loadClassInTenant(req.ClassID, schoolID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "CLASS_NOT_FOUND"})
	}
	if req.TeacherID != nil {
		var teacher models.User
		if err := database.DB.
			Where("id = ? AND school_id = ? AND role = ?", *req.TeacherID, schoolID, models.RoleTeacher).
			First(&teacher).Error; err != nil {
			return c.JSON(http.StatusNotFound, map[string]any{"error": "TEACHER_NOT_FOUND"})
		}
	}

	var cnt int64
	database.DB.Model(&models.ClassSubject{}).
		Where("class_id = ? AND subject_id = ?", req.ClassID, req.SubjectID).
		Count(&cnt)
	if cnt > 0 {
		return c.JSON(http.StatusConflict, map[string]any{"error": "ALREADY_MAPPED"})
	}

	mapping := models.ClassSubject{
		ClassID:    req.ClassID,
		SubjectID:  req.SubjectID,
		IsOptional: req.IsOptional,
		TeacherID:  req.TeacherID,
	}
	if err := database.DB.Create(&mapping).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "CREATE_FAILED"})
	}
	return c.JSON(http.StatusCreated, mapping)
}

type bulkMapItem struct {
	SubjectID  uuid.UUID `json:"subject_id"`
	IsOptional bool      `json:"is_optional"`
}

type skippedItem struct {
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

// POST /subjects/bulk-map-to-class/:class_id
//
// Valid items commit as one batch; invalid ones are reported back with a
// reason instead of failing the batch or vanishing silently.
func (h *SubjectHandler) BulkMapToClass(c echo.Context) error {
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

	var items []bulkMapItem
	if err := c.Bind(&items); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}

	applied := make([]models.ClassSubject, 0, len(items))
	skipped := make([]skippedItem, 0)
	seen := make(map[uuid.UUID]bool, len(items))

	for _, item := range items {
		if item.SubjectID == uuid.Nil || seen[item.SubjectID] {
			skipped = append(skipped, skippedItem{ID: item.SubjectID, Reason: "DUPLICATE_IN_REQUEST"})
			continue
		}
		seen[item.SubjectID] = true

		var subject models.Subject
		if err := database.DB.First(&subject, "id = ?", item.SubjectID).Error; err != nil {
			skipped = append(skipped, skippedItem{ID: item.SubjectID, Reason: "SUBJECT_NOT_FOUND"})
			continue
		}
		if subject.SchoolID != schoolID {
			skipped = append(skipped, skippedItem{ID: item.SubjectID, Reason: "WRONG_TENANT"})
			continue
		}
		var cnt int64
		database.DB.Model(&models.ClassSubject{}).
			Where("class_id = ? AND subject_id = ?", classID, item.SubjectID).
			Count(&cnt)
		if cnt > 0 {
			skipped = append(skipped, skippedItem{ID: item.SubjectID, Reason: "ALREADY_MAPPED"})
			continue
		}
		applied = append(applied, models.ClassSubject{
			ClassID:    classID,
			SubjectID:  item.SubjectID,
			IsOptional: item.IsOptional,
		})
	}

	if len(applied) > 0 {
		if err := database.DB.Transaction(func(tx *gorm.DB) error {
			for i := range applied {
				if err := tx.Create(&applied[i]).Error; err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_WRITE_FAILED"})
		}
	}

	return c.JSON(http.StatusOK, map[string]any{"applied": applied, "skipped": skipped})
}

type classSubjectDetailOut struct {
	ID          uuid.UUID  `json:"id"`
	SubjectID   uuid.UUID  `json:"subject_id"`
	SubjectName string     `json:"subject_name"`
	IsOptional  bool       `json:"is_optional"`
	TeacherID   *uuid.UUID `json:"teacher_id,omitempty"`
	TeacherName string     `json:"teacher_name,omitempty"`
}

// GET /subjects/by-class/:class_id
func (h *SubjectHandler) ByClass(c echo.Context) error {
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

	var rows []classSubjectDetailOut
	if err := database.DB.Model(&models.ClassSubject{}).
		Select(`class_subjects.id, class_subjects.subject_id, subjects.name AS subject_name,
			class_subjects.is_optional, class_subjects.teacher_id, COALESCE(users.name, '') AS teacher_name`).
		Joins("JOIN subjects ON subjects.id = class_subjects.subject_id").
		Joins("LEFT JOIN users ON users.id = class_subjects.teacher_id").
		Where("class_subjects.class_id = ?", classID).
		Order("subjects.name ASC").
		Scan(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, rows)
}

// DELETE /subjects/remove-from-class/:mapping_id
//
// Blocked while student enrollments still reference the mapping: dropping a
// subject must not silently discard elections.
func (h *SubjectHandler) RemoveFromClass(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}
	mappingID, ok := parseUUIDParam(c, "mapping_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}

	var mapping models.ClassSubject
	if err := database.DB.First(&mapping, "id = ?", mappingID).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "MAPPING_NOT_FOUND"})
	}
	if _, err := loadClassInTenant(mapping.ClassID, schoolID); err != nil {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "FORBIDDEN"})
	}
	var subject models.Subject
	if err := database.DB.Where("id = ? AND school_id = ?", mapping.SubjectID, schoolID).First(&subject).Error; err != nil {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "FORBIDDEN"})
	}

	var enrollments int64
	database.DB.Model(&models.StudentSubject{}).
		Where("class_subject_id = ?", mapping.ID).
		Count(&enrollments)
	if enrollments > 0 {
		return c.JSON(http.StatusConflict, map[string]any{"error": "HAS_ENROLLMENTS"})
	}

	if err := database.DB.Delete(&mapping).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_WRITE_FAILED"})
	}
	return c.NoContent(http.StatusNoContent)
}

type assignTeacherReq struct {
	TeacherID      uuid.UUID `json:"teacher_id" validate:"required"`
	ClassSubjectID uuid.UUID `json:"class_subject_id" validate:"required"`
}

// POST /subjects/assign-teacher
//
// Sets the subject teacher on a mapping. Last write wins; a teacher may
// teach any number of subjects.
func (h *SubjectHandler) AssignTeacher(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var req assignTeacherReq
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
	var mapping models.ClassSubject
	if err := database.DB.First(&mapping, "id = ?", req.ClassSubjectID).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "MAPPING_NOT_FOUND"})
	}
	if _, err := loadClassInTenant(mapping.ClassID, schoolID); err != nil {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "FORBIDDEN"})
	}

	mapping.TeacherID = &req.TeacherID
	if err := database.DB.Save(&mapping).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_WRITE_FAILED"})
	}
	return c.JSON(http.StatusOK, mapping)
}

type enrollReq struct {
	StudentID      uuid.UUID `json:"student_id" validate:"required"`
	ClassSubjectID uuid.UUID `json:"class_subject_id" validate:"required"`
}

// POST /subjects/enroll-optional
func (h *SubjectHandler) EnrollOptional(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}

	var req enrollReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR"})
	}

	var mapping models.ClassSubject
	if err := database.DB.First(&mapping, "id = ?", req.ClassSubjectID).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "MAPPING_NOT_FOUND"})
	}
	if _, err := loadClassInTenant(mapping.ClassID, schoolID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "MAPPING_NOT_FOUND"})
	}
	if !mapping.IsOptional {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "NOT_OPTIONAL"})
	}

	var student models.User
	if err := database.DB.
		Where("id = ? AND school_id = ? AND role = ?", req.StudentID, schoolID, models.RoleStudent).
		First(&student).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "STUDENT_NOT_FOUND"})
	}
	if student.ClassID == nil || *student.ClassID != mapping.ClassID {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "WRONG_CLASS"})
	}

	var cnt int64
	database.DB.Model(&models.StudentSubject{}).
		Where("student_id = ? AND class_subject_id = ?", req.StudentID, req.ClassSubjectID).
		Count(&cnt)
	if cnt > 0 {
		return c.JSON(http.StatusConflict, map[string]any{"error": "ALREADY_ENROLLED"})
	}

	enrollment := models.StudentSubject{StudentID: req.StudentID, ClassSubjectID: req.ClassSubjectID}
	if err := database.DB.Create(&enrollment).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "CREATE_FAILED"})
	}
	return c.JSON(http.StatusCreated, enrollment)
}

type bulkEnrollReq struct {
	StudentIDs []uuid.UUID `json:"student_ids" validate:"required,min=1"`
}

// POST /subjects/bulk-enroll/:class_subject_id
func (h *SubjectHandler) BulkEnroll(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}
	mappingID, ok := parseUUIDParam(c, "class_subject_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}

	var mapping models.ClassSubject
	if err := database.DB.First(&mapping, "id = ?", mappingID).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "MAPPING_NOT_FOUND"})
	}
	if _, err := loadClassInTenant(mapping.ClassID, schoolID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "MAPPING_NOT_FOUND"})
	}
	if !mapping.IsOptional {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "NOT_OPTIONAL"})
	}

	var req bulkEnrollReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR"})
	}

	applied := make([]models.StudentSubject, 0, len(req.StudentIDs))
	skipped := make([]skippedItem, 0)
	seen := make(map[uuid.UUID]bool, len(req.StudentIDs))

	for _, studentID := range req.StudentIDs {
		if studentID == uuid.Nil || seen[studentID] {
			skipped = append(skipped, skippedItem{ID: studentID, Reason: "DUPLICATE_IN_REQUEST"})
			continue
		}
		seen[studentID] = true

		var student models.User
		if err := database.DB.First(&student, "id = ?", studentID).Error; err != nil {
			skipped = append(skipped, skippedItem{ID: studentID, Reason: "STUDENT_NOT_FOUND"})
			continue
		}
		if student.SchoolID != schoolID || student.Role != models.RoleStudent {
			skipped = append(skipped, skippedItem{ID: studentID, Reason: "NOT_A_STUDENT_HERE"})
			continue
		}
		if student.ClassID == nil || *student.ClassID != mapping.ClassID {
			skipped = append(skipped, skippedItem{ID: studentID, Reason: "WRONG_CLASS"})
			continue
		}
		var cnt int64
		database.DB.Model(&models.StudentSubject{}).
			Where("student_id = ? AND class_subject_id = ?", studentID, mappingID).
			Count(&cnt)
		if cnt > 0 {
			skipped = append(skipped, skippedItem{ID: studentID, Reason: "ALREADY_ENROLLED"})
			continue
		}
		applied = append(applied, models.StudentSubject{StudentID: studentID, ClassSubjectID: mappingID})
	}

	if len(applied) > 0 {
		if err := database.DB.Transaction(func(tx *gorm.DB) error {
			for i := range applied {
				if err := tx.Create(&applied[i]).Error; err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_WRITE_FAILED"})
		}
	}

	return c.JSON(http.StatusOK, map[string]any{"applied": applied, "skipped": skipped})
}

// DELETE /subjects/unenroll/:enrollment_id
func (h *SubjectHandler) Unenroll(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}
	enrollmentID, ok := parseUUIDParam(c, "enrollment_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}

	var enrollment models.StudentSubject
	if err := database.DB.First(&enrollment, "id = ?", enrollmentID).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "ENROLLMENT_NOT_FOUND"})
	}
	var student models.User
	if err := database.DB.
		Where("id = ? AND school_id = ?", enrollment.StudentID, schoolID).
		First(&student).Error; err != nil {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "FORBIDDEN"})
	}
	var mapping models.ClassSubject
	if err := database.DB.First(&mapping, "id = ?", enrollment.ClassSubjectID).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "MAPPING_NOT_FOUND"})
	}
	if _, err := loadClassInTenant(mapping.ClassID, schoolID); err != nil {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "FORBIDDEN"})
	}

	if err := database.DB.Delete(&enrollment).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_WRITE_FAILED"})
	}
	return c.NoContent(http.StatusNoContent)
}

type studentSubjectDetailOut struct {
	EnrollmentID uuid.UUID `json:"enrollment_id"`
	SubjectID    uuid.UUID `json:"subject_id"`
	SubjectName  string    `json:"subject_name"`
	IsOptional   bool      `json:"is_optional"`
}

// GET /subjects/student/:student_id
func (h *SubjectHandler) StudentSubjects(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}
	studentID, ok := parseUUIDParam(c, "student_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}

	var student models.User
	if err := database.DB.
		Where("id = ? AND school_id = ? AND role = ?", studentID, schoolID, models.RoleStudent).
		First(&student).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "STUDENT_NOT_FOUND"})
	}

	var rows []studentSubjectDetailOut
	if err := database.DB.Model(&models.StudentSubject{}).
		Select(`student_subjects.id AS enrollment_id, subjects.id AS subject_id,
			subjects.name AS subject_name, class_subjects.is_optional`).
		Joins("JOIN class_subjects ON class_subjects.id = student_subjects.class_subject_id").
		Joins("JOIN subjects ON subjects.id = class_subjects.subject_id").
		Where("student_subjects.student_id = ?", studentID).
		Order("subjects.name ASC").
		Scan(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, rows)
}
