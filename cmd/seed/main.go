package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/schoolsuite/resultpin/internal/config"
	"github.com/schoolsuite/resultpin/internal/logger"
	"github.com/schoolsuite/resultpin/internal/models"
	"github.com/schoolsuite/resultpin/internal/provider"
	"github.com/schoolsuite/resultpin/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container := provider.NewContainer(cfg)

	// School
	school := models.School{
		Name:              "Greenfield Secondary School",
		Slug:              "greenfield-secondary",
		NotificationEmail: "office@greenfield.example",
	}
	var existingSchool models.School
	if err := models.DB.Where("slug = ?", school.Slug).First(&existingSchool).Error; err != nil {
		if err := models.DB.Create(&school).Error; err != nil {
			stdLog.Fatalf("Failed to create school: %v", err)
		}
		stdLog.Printf("Created school: %s", school.Name)
	} else {
		school = existingSchool
		stdLog.Printf("School already exists: %s", school.Name)
	}

	// Admin account
	var adminCount int64
	models.DB.Model(&models.SchoolAdmin{}).Where("school_id = ?", school.ID).Count(&adminCount)
	if adminCount == 0 {
		hash, err := container.AuthService.HashPassword("admin123")
		if err != nil {
			stdLog.Fatalf("Failed to hash password: %v", err)
		}
		admin := models.SchoolAdmin{
			SchoolID:     school.ID,
			Username:     "greenfield-admin",
			PasswordHash: hash,
		}
		if err := models.DB.Create(&admin).Error; err != nil {
			stdLog.Fatalf("Failed to create admin: %v", err)
		}
		stdLog.Printf("Created admin: %s (password admin123, change it)", admin.Username)
	}

	// Students with one published result each
	names := []struct {
		admission, first, last, class string
	}{
		{"GF/2023/001", "Amina", "Bello", "SS2A"},
		{"GF/2023/002", "Chidi", "Okafor", "SS2A"},
		{"GF/2023/003", "Tunde", "Adeyemi", "SS2B"},
		{"GF/2023/004", "Ngozi", "Eze", "SS2B"},
		{"GF/2023/005", "Musa", "Ibrahim", "SS2C"},
	}
	const sessionID, termID = 2024, 1
	for i, n := range names {
		var student models.Student
		if err := models.DB.Where("school_id = ? AND admission_number = ?", school.ID, n.admission).First(&student).Error; err != nil {
			student = models.Student{
				SchoolID:        school.ID,
				AdmissionNumber: n.admission,
				FirstName:       n.first,
				LastName:        n.last,
				ClassName:       n.class,
			}
			if err := models.DB.Create(&student).Error; err != nil {
				stdLog.Printf("Failed to create student %s: %v", n.admission, err)
				continue
			}
			stdLog.Printf("Created student: %s", n.admission)
		}

		var resultCount int64
		models.DB.Model(&models.StudentResult{}).
			Where("student_id = ? AND session_id = ? AND term_id = ?", student.ID, sessionID, termID).
			Count(&resultCount)
		if resultCount > 0 {
			continue
		}
		payload, _ := json.Marshal(map[string]interface{}{
			"subjects": []map[string]interface{}{
				{"name": "Mathematics", "score": 62 + i*5, "grade": "B"},
				{"name": "English", "score": 58 + i*4, "grade": "C"},
				{"name": "Physics", "score": 70 + i*3, "grade": "A"},
			},
			"position":     i + 1,
			"class_size":   len(names),
			"teacher_note": "Keep up the effort.",
			"published_at": time.Now().Format(time.RFC3339),
		})
		result := models.StudentResult{
			StudentID: student.ID,
			SchoolID:  school.ID,
			SessionID: sessionID,
			TermID:    termID,
			Payload:   string(payload),
		}
		if err := models.DB.Create(&result).Error; err != nil {
			stdLog.Printf("Failed to create result for %s: %v", n.admission, err)
		}
	}

	// One batch of scratch cards
	var cardCount int64
	models.DB.Model(&models.ScratchCard{}).Where("school_id = ?", school.ID).Count(&cardCount)
	if cardCount == 0 {
		batch, cards, err := container.ScratchCardService.GenerateCards(service.GenerateCardsInput{
			SchoolID: school.ID,
			Quantity: 10,
		})
		if err != nil {
			stdLog.Fatalf("Failed to generate cards: %v", err)
		}
		stdLog.Printf("Created batch %s with %d cards:", batch.BatchNo, len(cards))
		for _, card := range cards {
			fmt.Printf("  %s (%d uses)\n", card.Pin, card.UsesRemaining)
		}
	} else {
		stdLog.Printf("Cards already seeded (%d existing)", cardCount)
	}

	stdLog.Printf("Seed complete")
}
