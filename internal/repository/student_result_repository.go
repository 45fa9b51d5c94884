package repository

import (
	"errors"

	"github.com/schoolsuite/resultpin/internal/models"

	"gorm.io/gorm"
)

// StudentResultRepository published result lookup
type StudentResultRepository interface {
	FindExact(studentID, schoolID, sessionID, termID uint) (*models.StudentResult, error)
	FindLatest(studentID, schoolID uint) (*models.StudentResult, error)
}

// GormStudentResultRepository GORM implementation
type GormStudentResultRepository struct {
	db *gorm.DB
}

// NewStudentResultRepository creates the result repository
func NewStudentResultRepository(db *gorm.DB) *GormStudentResultRepository {
	return &GormStudentResultRepository{db: db}
}

// FindExact fetches the result for a specific session and term
func (r *GormStudentResultRepository) FindExact(studentID, schoolID, sessionID, termID uint) (*models.StudentResult, error) {
	var result models.StudentResult
	if err := r.db.
		Where("student_id = ? AND school_id = ? AND session_id = ? AND term_id = ?",
			studentID, schoolID, sessionID, termID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// FindLatest fetches the most recently published result for a student.
// Used when the caller omits session/term.
func (r *GormStudentResultRepository) FindLatest(studentID, schoolID uint) (*models.StudentResult, error) {
	var result models.StudentResult
	if err := r.db.
		Where("student_id = ? AND school_id = ?", studentID, schoolID).
		Order("created_at desc, id desc").
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
