package repository

import (
	"errors"
	"strings"

	"github.com/schoolsuite/resultpin/internal/models"

	"gorm.io/gorm"
)

// StudentRepository read-only student lookup
type StudentRepository interface {
	FindByAdmissionNumber(schoolID uint, admissionNumber string) (*models.Student, error)
	List(filter StudentListFilter) ([]models.Student, int64, error)
}

// GormStudentRepository GORM implementation
type GormStudentRepository struct {
	db *gorm.DB
}

// NewStudentRepository creates the student repository
func NewStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{db: db}
}

// FindByAdmissionNumber resolves a student within the issuing school.
// Admission numbers are compared case-insensitively: they are printed on
// report sheets and typed back by parents.
func (r *GormStudentRepository) FindByAdmissionNumber(schoolID uint, admissionNumber string) (*models.Student, error) {
	admissionNumber = strings.TrimSpace(admissionNumber)
	if schoolID == 0 || admissionNumber == "" {
		return nil, nil
	}
	var student models.Student
	if err := r.db.
		Where("school_id = ? AND UPPER(admission_number) = ?", schoolID, strings.ToUpper(admissionNumber)).
		First(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &student, nil
}

// List queries a school's students
func (r *GormStudentRepository) List(filter StudentListFilter) ([]models.Student, int64, error) {
	query := r.db.Model(&models.Student{})
	if filter.SchoolID > 0 {
		query = query.Where("school_id = ?", filter.SchoolID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"admission_number LIKE ? OR first_name LIKE ? OR last_name LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var students []models.Student
	if err := query.Order("id asc").Find(&students).Error; err != nil {
		return nil, 0, err
	}
	return students, total, nil
}
