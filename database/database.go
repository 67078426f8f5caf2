package database

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Schoolmate-Ai/schoolmateai-backend/config"
	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

var DB *gorm.DB

func Connect(cfg *config.Config) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	DB = db

	if err := Migrate(DB); err != nil {
		log.Fatalf("auto migrate failed: %v", err)
	}
}

// Migrate creates/updates the schema. Split out so tests can run it against
// their own *gorm.DB.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SuperAdmin{},
		&models.School{},
		&models.User{},
		&models.Class{},
		&models.Subject{},
		&models.ClassSubject{},
		&models.StudentSubject{},
		&models.ClassTeacher{},
		&models.Attendance{},
	)
}
