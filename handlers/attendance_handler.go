package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Schoolmate-Ai/schoolmateai-backend/database"
	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

// editWindow is how far back an attendance register can still be submitted
// or corrected. Midnight of the target date is compared against now minus
// this window: today and yesterday stay editable, older dates do not.
const editWindow = 36 * time.Hour

// nowFunc is swapped in tests.
var nowFunc = time.Now

type AttendanceHandler struct{}

func NewAttendanceHandler() *AttendanceHandler { return &AttendanceHandler{} }

type studentAttendanceRecord struct {
	StudentID   uuid.UUID               `json:"student_id" validate:"required"`
	Status      models.AttendanceStatus `json:"status" validate:"required"`
	ArrivalTime string                  `json:"arrival_time"`
	Notes       string                  `json:"notes"`
}

type dailyAttendanceReq struct {
	ClassID uuid.UUID                 `json:"class_id" validate:"required"`
	Date    string                    `json:"date" validate:"required"`
	Records []studentAttendanceRecord `json:"records"`
}

type attendanceOut struct {
	ID             uuid.UUID               `json:"id"`
	StudentID      uuid.UUID               `json:"student_id"`
	StudentName    string                  `json:"student_name"`
	Status         models.AttendanceStatus `json:"status"`
	ArrivalTime    string                  `json:"arrival_time,omitempty"`
	Notes          string                  `json:"notes,omitempty"`
	RecordedBy     uuid.UUID               `json:"recorded_by"`
	RecordedByName string                  `json:"recorded_by_name"`
	CreatedAt      time.Time               `json:"created_at"`
}

type dailyAttendanceResp struct {
	ClassID     uuid.UUID       `json:"class_id"`
	ClassName   string          `json:"class_name"`
	Date        string          `json:"date"`
	Attendances []attendanceOut `json:"attendances"`
}

// POST /attendance/daily
//
// The request lists only students whose status is not present; everyone else
// on the class's active roster defaults to present. Resubmitting the same
// class/date overwrites the day's rows, so an omission resets a previously
// non-present student back to present.
func (h *AttendanceHandler) RecordDaily(c echo.Context) error {
	claims, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}
	if claims.Role != models.RoleTeacher {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "FORBIDDEN"})
	}

	var req dailyAttendanceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_PAYLOAD"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "VALIDATION_ERROR"})
	}
	day, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_DATE"})
	}
	for _, r := range req.Records {
		if !r.Status.Valid() {
			return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_STATUS"})
		}
	}

	class, err := loadClassInTenant(req.ClassID, schoolID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "CLASS_NOT_FOUND"})
	}

	// Only the class's designated class-teacher may submit its register.
	var assignment models.ClassTeacher
	if err := database.DB.Where("class_id = ?", class.ID).First(&assignment).Error; err != nil ||
		assignment.TeacherID != claims.UserID {
		return c.JSON(http.StatusForbidden, map[string]any{"error": "NOT_CLASS_TEACHER"})
	}

	if day.Before(nowFunc().UTC().Add(-editWindow)) {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "EDIT_WINDOW_CLOSED"})
	}

	var students []models.User
	if err := database.DB.
		Where("class_id = ? AND role = ? AND is_active = ?", class.ID, models.RoleStudent, true).
		Find(&students).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	if len(students) == 0 {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "NO_ACTIVE_STUDENTS"})
	}

	// Sparse input by student id. Ids outside the active roster are ignored.
	inputByStudent := make(map[uuid.UUID]studentAttendanceRecord, len(req.Records))
	for _, r := range req.Records {
		inputByStudent[r.StudentID] = r
	}

	var existing []models.Attendance
	if err := database.DB.
		Where("class_id = ? AND date = ?", class.ID, req.Date).
		Find(&existing).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	existingByStudent := make(map[uuid.UUID]models.Attendance, len(existing))
	for _, row := range existing {
		existingByStudent[row.StudentID] = row
	}

	rows := make([]models.Attendance, 0, len(students))
	for _, student := range students {
		status := models.AttendancePresent
		arrival, notes := "", ""
		if in, ok := inputByStudent[student.ID]; ok {
			status = in.Status
			arrival = strings.TrimSpace(in.ArrivalTime)
			notes = strings.TrimSpace(in.Notes)
		}

		if row, ok := existingByStudent[student.ID]; ok {
			row.Status = status
			row.ArrivalTime = arrival
			row.Notes = notes
			row.RecordedBy = claims.UserID
			rows = append(rows, row)
		} else {
			rows = append(rows, models.Attendance{
				SchoolID:    schoolID,
				ClassID:     class.ID,
				Date:        req.Date,
				StudentID:   student.ID,
				Status:      status,
				RecordedBy:  claims.UserID,
				ArrivalTime: arrival,
				Notes:       notes,
			})
		}
	}

	// One batch: either the whole register lands or none of it does.
	if err := database.DB.Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			if err := tx.Save(&rows[i]).Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return c.JSON(http.StatusConflict, map[string]any{"error": "ATTENDANCE_CONFLICT"})
	}

	nameOf := make(map[uuid.UUID]string, len(students)+1)
	for _, s := range students {
		nameOf[s.ID] = s.Name
	}
	var recorder models.User
	if err := database.DB.First(&recorder, "id = ?", claims.UserID).Error; err == nil {
		nameOf[recorder.ID] = recorder.Name
	}

	out := make([]attendanceOut, 0, len(rows))
	for _, row := range rows {
		out = append(out, attendanceOut{
			ID:             row.ID,
			StudentID:      row.StudentID,
			StudentName:    nameOf[row.StudentID],
			Status:         row.Status,
			ArrivalTime:    row.ArrivalTime,
			Notes:          row.Notes,
			RecordedBy:     row.RecordedBy,
			RecordedByName: nameOf[row.RecordedBy],
			CreatedAt:      row.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, dailyAttendanceResp{
		ClassID:     class.ID,
		ClassName:   class.DisplayName(),
		Date:        req.Date,
		Attendances: out,
	})
}

// GET /attendance/by-class?class_id=&date=
func (h *AttendanceHandler) ByClass(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}

	classID, err := uuid.Parse(strings.TrimSpace(c.QueryParam("class_id")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	date := strings.TrimSpace(c.QueryParam("date"))
	if _, err := parseDate(date); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_DATE"})
	}
	if _, err := loadClassInTenant(classID, schoolID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "CLASS_NOT_FOUND"})
	}

	var rows []attendanceOut
	if err := database.DB.Model(&models.Attendance{}).
		Select(`attendances.id, attendances.student_id, students.name AS student_name,
			attendances.status, attendances.arrival_time, attendances.notes,
			attendances.recorded_by, COALESCE(recorders.name, '') AS recorded_by_name,
			attendances.created_at`).
		Joins("JOIN users AS students ON students.id = attendances.student_id").
		Joins("LEFT JOIN users AS recorders ON recorders.id = attendances.recorded_by").
		Where("attendances.class_id = ? AND attendances.date = ?", classID, date).
		Order("students.name ASC").
		Scan(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}
	return c.JSON(http.StatusOK, rows)
}

type attendanceSummary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	HalfDay int `json:"half_day"`
	Leave   int `json:"leave"`
	Total   int `json:"total"`
}

// GET /attendance/student/:student_id?start=&end=
func (h *AttendanceHandler) StudentHistory(c echo.Context) error {
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

	tx := database.DB.Where("student_id = ?", studentID)
	if start := strings.TrimSpace(c.QueryParam("start")); start != "" {
		tx = tx.Where("date >= ?", start)
	}
	if end := strings.TrimSpace(c.QueryParam("end")); end != "" {
		tx = tx.Where("date <= ?", end)
	}

	var rows []models.Attendance
	if err := tx.Order("date ASC").Find(&rows).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	var sum attendanceSummary
	for _, row := range rows {
		switch row.Status {
		case models.AttendancePresent:
			sum.Present++
		case models.AttendanceAbsent:
			sum.Absent++
		case models.AttendanceHalfDay:
			sum.HalfDay++
		case models.AttendanceLeave:
			sum.Leave++
		}
	}
	sum.Total = len(rows)

	return c.JSON(http.StatusOK, map[string]any{
		"student_id":   student.ID,
		"student_name": student.Name,
		"summary":      sum,
		"records":      rows,
	})
}
