package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// School is the tenant. Every class, subject and user hangs off one school.
type School struct {
	ID      uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name    string    `json:"name" gorm:"size:100;not null;uniqueIndex:uq_school_name_address"`
	Address string    `json:"address" gorm:"size:255;not null;uniqueIndex:uq_school_name_address"`
	Board   string    `json:"board,omitempty" gorm:"size:50"`
	Phone   string    `json:"phone,omitempty" gorm:"size:20"`
	Email   string    `json:"email,omitempty" gorm:"size:120"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *School) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
