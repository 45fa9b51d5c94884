package repository

import (
	"errors"

	"github.com/schoolsuite/resultpin/internal/models"

	"gorm.io/gorm"
)

// SchoolRepository school lookup
type SchoolRepository interface {
	GetByID(id uint) (*models.School, error)
	GetBySlug(slug string) (*models.School, error)
}

// GormSchoolRepository GORM implementation
type GormSchoolRepository struct {
	db *gorm.DB
}

// NewSchoolRepository creates the school repository
func NewSchoolRepository(db *gorm.DB) *GormSchoolRepository {
	return &GormSchoolRepository{db: db}
}

// GetByID fetches a school by primary key
func (r *GormSchoolRepository) GetByID(id uint) (*models.School, error) {
	var school models.School
	if err := r.db.First(&school, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &school, nil
}

// GetBySlug fetches a school by its URL slug
func (r *GormSchoolRepository) GetBySlug(slug string) (*models.School, error) {
	if slug == "" {
		return nil, nil
	}
	var school models.School
	if err := r.db.Where("slug = ?", slug).First(&school).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &school, nil
}
