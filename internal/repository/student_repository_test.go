package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/schoolsuite/resultpin/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupStudentRepoTest(t *testing.T) (*GormStudentRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:student_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.School{}, &models.Student{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewStudentRepository(db), db
}

func TestFindByAdmissionNumberCaseInsensitive(t *testing.T) {
	repo, db := setupStudentRepoTest(t)
	student := &models.Student{
		SchoolID:        1,
		AdmissionNumber: "GS/2023/014",
		FirstName:       "Chinedu",
		LastName:        "Eze",
	}
	if err := db.Create(student).Error; err != nil {
		t.Fatalf("create student failed: %v", err)
	}

	for _, input := range []string{"GS/2023/014", "gs/2023/014", "  Gs/2023/014  "} {
		found, err := repo.FindByAdmissionNumber(1, input)
		if err != nil {
			t.Fatalf("lookup %q failed: %v", input, err)
		}
		if found == nil || found.ID != student.ID {
			t.Fatalf("lookup %q did not resolve the student", input)
		}
	}
}

func TestFindByAdmissionNumberScopedToSchool(t *testing.T) {
	repo, db := setupStudentRepoTest(t)
	if err := db.Create(&models.Student{
		SchoolID:        1,
		AdmissionNumber: "GS/2023/014",
		FirstName:       "Chinedu",
		LastName:        "Eze",
	}).Error; err != nil {
		t.Fatalf("create student failed: %v", err)
	}

	found, err := repo.FindByAdmissionNumber(2, "GS/2023/014")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if found != nil {
		t.Fatal("another school's student must not resolve")
	}

	found, err = repo.FindByAdmissionNumber(1, "GS/2023/999")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if found != nil {
		t.Fatal("unknown admission number must not resolve")
	}
}

func TestStudentListSearch(t *testing.T) {
	repo, db := setupStudentRepoTest(t)
	seed := []models.Student{
		{SchoolID: 1, AdmissionNumber: "GS/2023/001", FirstName: "Amina", LastName: "Bello"},
		{SchoolID: 1, AdmissionNumber: "GS/2023/002", FirstName: "Tunde", LastName: "Adeyemi"},
		{SchoolID: 2, AdmissionNumber: "OT/2023/001", FirstName: "Amina", LastName: "Yusuf"},
	}
	if err := db.Create(&seed).Error; err != nil {
		t.Fatalf("seed students failed: %v", err)
	}

	students, total, err := repo.List(StudentListFilter{SchoolID: 1})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(students) != 2 {
		t.Fatalf("expected 2 students for school 1, got total=%d len=%d", total, len(students))
	}

	students, total, err = repo.List(StudentListFilter{SchoolID: 1, Search: "Amina"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 1 || students[0].LastName != "Bello" {
		t.Fatalf("unexpected search result: total=%d", total)
	}
}
