package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/Schoolmate-Ai/schoolmateai-backend/database"
	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxExportDays caps the per-date column count to keep workbooks readable.
const maxExportDays = 62

// GET /attendance/export-excel?class_id=&start=&end=
//
// One row per student: roll no (from the profile bag), name, a P/A/HD/L code
// per date, totals per status. A summary block and a pie chart of the
// class-level status distribution follow the roster.
func (h *AttendanceHandler) ExportExcel(c echo.Context) error {
	_, schoolID, err := requireTenant(c)
	if err != nil {
		return err
	}

	classID, err := uuid.Parse(strings.TrimSpace(c.QueryParam("class_id")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_ID"})
	}
	start, err := parseDate(strings.TrimSpace(c.QueryParam("start")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_DATE"})
	}
	end, err := parseDate(strings.TrimSpace(c.QueryParam("end")))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_DATE"})
	}
	if end.Before(start) {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "INVALID_RANGE"})
	}
	if int(end.Sub(start).Hours()/24)+1 > maxExportDays {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "RANGE_TOO_LARGE"})
	}

	class, err := loadClassInTenant(classID, schoolID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "CLASS_NOT_FOUND"})
	}

	var students []models.User
	if err := database.DB.
		Where("class_id = ? AND role = ? AND is_active = ?", classID, models.RoleStudent, true).
		Order("name ASC").Find(&students).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	var records []models.Attendance
	if err := database.DB.
		Where("class_id = ? AND date >= ? AND date <= ?",
			classID, start.Format(dateLayout), end.Format(dateLayout)).
		Find(&records).Error; err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "DB_QUERY_FAILED"})
	}

	type key struct {
		student uuid.UUID
		date    string
	}
	statusOf := make(map[key]models.AttendanceStatus, len(records))
	classTotals := map[models.AttendanceStatus]int{}
	for _, r := range records {
		statusOf[key{r.StudentID, r.Date}] = r.Status
		classTotals[r.Status]++
	}

	dates := make([]string, 0, maxExportDays)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Attendance Report - %s (%s to %s)",
		class.DisplayName(), start.Format(dateLayout), end.Format(dateLayout)))

	// Header row: roll no, name, one column per date, then totals.
	headerRow := 3
	f.SetCellValue(sheet, cell(1, headerRow), "Roll No")
	f.SetCellValue(sheet, cell(2, headerRow), "Student Name")
	for i, d := range dates {
		f.SetCellValue(sheet, cell(3+i, headerRow), d)
	}
	totalsCol := 3 + len(dates)
	for i, label := range []string{"P", "A", "HD", "L"} {
		f.SetCellValue(sheet, cell(totalsCol+i, headerRow), label)
	}

	row := headerRow + 1
	for _, s := range students {
		f.SetCellValue(sheet, cell(1, row), rollNo(s))
		f.SetCellValue(sheet, cell(2, row), s.Name)

		totals := map[models.AttendanceStatus]int{}
		for i, d := range dates {
			if st, ok := statusOf[key{s.ID, d}]; ok {
				f.SetCellValue(sheet, cell(3+i, row), string(st))
				totals[st]++
			}
		}
		for i, st := range []models.AttendanceStatus{
			models.AttendancePresent, models.AttendanceAbsent,
			models.AttendanceHalfDay, models.AttendanceLeave,
		} {
			f.SetCellValue(sheet, cell(totalsCol+i, row), totals[st])
		}
		row++
	}

	// Summary block feeding the pie chart.
	summaryRow := row + 2
	f.SetCellValue(sheet, cell(1, summaryRow), "Status")
	f.SetCellValue(sheet, cell(2, summaryRow), "Count")
	labels := []struct {
		name   string
		status models.AttendanceStatus
	}{
		{"Present", models.AttendancePresent},
		{"Absent", models.AttendanceAbsent},
		{"Half Day", models.AttendanceHalfDay},
		{"Leave", models.AttendanceLeave},
	}
	for i, l := range labels {
		f.SetCellValue(sheet, cell(1, summaryRow+1+i), l.name)
		f.SetCellValue(sheet, cell(2, summaryRow+1+i), classTotals[l.status])
	}

	if err := f.AddChart(sheet, cell(4, summaryRow), &excelize.Chart{
		Type: excelize.Pie,
		Series: []excelize.ChartSeries{{
			Name: "Status distribution",
			Categories: fmt.Sprintf("%s!$A$%d:$A$%d",
				sheet, summaryRow+1, summaryRow+len(labels)),
			Values: fmt.Sprintf("%s!$B$%d:$B$%d",
				sheet, summaryRow+1, summaryRow+len(labels)),
		}},
		Title: []excelize.RichTextRun{{Text: "Class status distribution"}},
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "EXPORT_FAILED"})
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]any{"error": "EXPORT_FAILED"})
	}

	filename := fmt.Sprintf("attendance_%s_%s.xlsx",
		strings.ReplaceAll(class.DisplayName(), " ", "_"), start.Format(dateLayout))
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// rollNo pulls the roll number out of the student's profile bag, if present.
func rollNo(u models.User) string {
	if len(u.ProfileData) == 0 {
		return ""
	}
	var bag map[string]any
	if err := json.Unmarshal(u.ProfileData, &bag); err != nil {
		return ""
	}
	switch v := bag["roll_no"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}
