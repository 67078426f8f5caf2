package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Class is one class/section of a school, e.g. "1st" / "A".
type Class struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SchoolID  uuid.UUID `json:"school_id" gorm:"type:uuid;not null;uniqueIndex:uq_school_class_section"`
	ClassName string    `json:"class_name" gorm:"size:50;not null;uniqueIndex:uq_school_class_section"`
	Section   string    `json:"section" gorm:"size:10;not null;uniqueIndex:uq_school_class_section"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Class) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// DisplayName renders the name shown in rosters and reports, e.g. "1st A".
func (c Class) DisplayName() string {
	return c.ClassName + " " + c.Section
}
