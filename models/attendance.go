package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttendanceStatus codes match the report format: P/A/HD/L.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "P"
	AttendanceAbsent  AttendanceStatus = "A"
	AttendanceHalfDay AttendanceStatus = "HD"
	AttendanceLeave   AttendanceStatus = "L"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceHalfDay, AttendanceLeave:
		return true
	default:
		return false
	}
}

// Attendance is one student's status for one calendar day. Date and
// ArrivalTime are stored as YYYY-MM-DD / HH:MM strings. Rows are created the
// first time a class-teacher submits a day's register and updated in place
// on resubmission; they are never deleted.
type Attendance struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	SchoolID    uuid.UUID        `json:"school_id" gorm:"type:uuid;not null;index:idx_attendance_school_date,priority:1"`
	ClassID     uuid.UUID        `json:"class_id" gorm:"type:uuid;not null;uniqueIndex:uq_attendance_class_date_student,priority:1"`
	Date        string           `json:"date" gorm:"size:10;not null;uniqueIndex:uq_attendance_class_date_student,priority:2;index:idx_attendance_school_date,priority:2"`
	StudentID   uuid.UUID        `json:"student_id" gorm:"type:uuid;not null;uniqueIndex:uq_attendance_class_date_student,priority:3"`
	Status      AttendanceStatus `json:"status" gorm:"size:2;not null"`
	RecordedBy  uuid.UUID        `json:"recorded_by" gorm:"type:uuid;not null"`
	ArrivalTime string           `json:"arrival_time,omitempty" gorm:"size:5"`
	Notes       string           `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Attendance) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
