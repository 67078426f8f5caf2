package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClassTeacher designates the single teacher responsible for a class. The
// unique indexes hold the invariants at the store level: a teacher
// class-teaches at most one class, and a class has at most one class-teacher.
// Handlers still check first so callers get a readable error instead of a
// raw constraint violation; under a race the loser's insert fails here.
type ClassTeacher struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TeacherID uuid.UUID `json:"teacher_id" gorm:"type:uuid;not null;uniqueIndex:uq_class_teacher_one_class"`
	ClassID   uuid.UUID `json:"class_id" gorm:"type:uuid;not null;uniqueIndex:uq_class_teacher_per_class"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ct *ClassTeacher) BeforeCreate(tx *gorm.DB) error {
	if ct.ID == uuid.Nil {
		ct.ID = uuid.New()
	}
	return nil
}
