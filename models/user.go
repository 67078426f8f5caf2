package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Roles carried in token claims and stored on users. RoleSuperAdmin is the
// platform operator; the rest are school-scoped.
const (
	RoleSuperAdmin       = "superadmin"
	RoleSchoolSuperAdmin = "school_superadmin"
	RoleSchoolAdmin      = "school_admin"
	RoleTeacher          = "teacher"
	RoleStudent          = "student"
	RoleParent           = "parent"
)

// User is any school-scoped account: admins, teachers, students, parents.
// ClassID is only set for students. ProfileData is a free-form attribute bag
// (e.g. roll number, guardian contact); derived facts like "is class teacher"
// are never stored here, they are computed from class_teachers on read.
type User struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string         `json:"name" gorm:"size:100;not null"`
	Email        string         `json:"email" gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string         `json:"-" gorm:"not null"`
	Role         string         `json:"role" gorm:"size:20;not null;index:idx_user_school_role,priority:2"`
	SchoolID     uuid.UUID      `json:"school_id" gorm:"type:uuid;not null;index:idx_user_school_role,priority:1"`
	ClassID      *uuid.UUID     `json:"class_id,omitempty" gorm:"type:uuid;index:idx_user_class_role,priority:1"`
	ProfileData  datatypes.JSON `json:"profile_data,omitempty"`
	IsActive     bool           `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
