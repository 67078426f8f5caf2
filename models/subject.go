package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subject is an entry in a school's subject catalog.
type Subject struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SchoolID uuid.UUID `json:"school_id" gorm:"type:uuid;not null;uniqueIndex:uq_school_subject_name"`
	Name     string    `json:"name" gorm:"size:100;not null;uniqueIndex:uq_school_subject_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Subject) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ClassSubject maps a subject onto a class. Optional mappings require
// per-student enrollment; compulsory ones apply to the whole class
// implicitly. TeacherID is the subject teacher, not the class-teacher.
type ClassSubject struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	ClassID    uuid.UUID  `json:"class_id" gorm:"type:uuid;not null;uniqueIndex:uq_class_subject"`
	SubjectID  uuid.UUID  `json:"subject_id" gorm:"type:uuid;not null;uniqueIndex:uq_class_subject"`
	IsOptional bool       `json:"is_optional" gorm:"not null;default:false"`
	TeacherID  *uuid.UUID `json:"teacher_id,omitempty" gorm:"type:uuid"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (cs *ClassSubject) BeforeCreate(tx *gorm.DB) error {
	if cs.ID == uuid.Nil {
		cs.ID = uuid.New()
	}
	return nil
}

// StudentSubject is a student's opt-in to an optional class-subject.
type StudentSubject struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	StudentID      uuid.UUID `json:"student_id" gorm:"type:uuid;not null;uniqueIndex:uq_student_class_subject"`
	ClassSubjectID uuid.UUID `json:"class_subject_id" gorm:"type:uuid;not null;uniqueIndex:uq_student_class_subject"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ss *StudentSubject) BeforeCreate(tx *gorm.DB) error {
	if ss.ID == uuid.Nil {
		ss.ID = uuid.New()
	}
	return nil
}
