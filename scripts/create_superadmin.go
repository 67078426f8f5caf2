// scripts/create_superadmin.go
package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Schoolmate-Ai/schoolmateai-backend/config"
	"github.com/Schoolmate-Ai/schoolmateai-backend/database"
	"github.com/Schoolmate-Ai/schoolmateai-backend/models"
)

func main() {
	cfg := config.Load()
	database.Connect(cfg)

	email := os.Getenv("SUPERADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}
	password := os.Getenv("SUPERADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var existing models.SuperAdmin
	if err := database.DB.Where("email = ?", email).First(&existing).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Fatalf("failed to query superadmins: %v", err)
		}
	} else {
		fmt.Println("super admin already exists:", email)
		os.Exit(0)
	}

	admin := models.SuperAdmin{
		Name:         "Super Admin",
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := database.DB.Create(&admin).Error; err != nil {
		log.Fatalf("failed to insert super admin: %v", err)
	}

	fmt.Println("super admin created:", email)
	fmt.Println("remember to change the initial password")
}
