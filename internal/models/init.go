package models

import (
	"strings"

	"github.com/schoolsuite/resultpin/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultSchoolAdmin creates a demo school with one admin account on
// first boot. Does nothing once any admin exists.
func InitDefaultSchoolAdmin(schoolName, username, password string) error {
	var count int64
	DB.Model(&SchoolAdmin{}).Count(&count)
	if count > 0 {
		return nil
	}

	schoolName = strings.TrimSpace(schoolName)
	if schoolName == "" {
		schoolName = "Demo School"
	}
	if username == "" {
		username = "admin"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	school := School{
		Name: schoolName,
		Slug: slugify(schoolName),
	}
	if err := DB.Create(&school).Error; err != nil {
		return err
	}

	admin := SchoolAdmin{
		SchoolID:     school.ID,
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := DB.Create(&admin).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_admin_created_with_default_password", "username", username)
		logger.Warnw("default_admin_password_change_required", "username", username)
	} else {
		logger.Warnw("default_admin_created", "username", username, "password_hidden", true)
	}
	return nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	cleaned := make([]rune, 0, len(slug))
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		return "school"
	}
	return string(cleaned)
}
