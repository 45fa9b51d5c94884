package repository

import (
	"errors"

	"github.com/schoolsuite/resultpin/internal/models"

	"gorm.io/gorm"
)

// SchoolAdminRepository school admin account access
type SchoolAdminRepository interface {
	GetByID(id uint) (*models.SchoolAdmin, error)
	GetByUsername(username string) (*models.SchoolAdmin, error)
	Update(admin *models.SchoolAdmin) error
}

// GormSchoolAdminRepository GORM implementation
type GormSchoolAdminRepository struct {
	db *gorm.DB
}

// NewSchoolAdminRepository creates the admin repository
func NewSchoolAdminRepository(db *gorm.DB) *GormSchoolAdminRepository {
	return &GormSchoolAdminRepository{db: db}
}

// GetByID fetches an admin by primary key
func (r *GormSchoolAdminRepository) GetByID(id uint) (*models.SchoolAdmin, error) {
	var admin models.SchoolAdmin
	if err := r.db.First(&admin, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

// GetByUsername fetches an admin by login name
func (r *GormSchoolAdminRepository) GetByUsername(username string) (*models.SchoolAdmin, error) {
	if username == "" {
		return nil, nil
	}
	var admin models.SchoolAdmin
	if err := r.db.Where("username = ?", username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}

// Update persists admin changes
func (r *GormSchoolAdminRepository) Update(admin *models.SchoolAdmin) error {
	return r.db.Save(admin).Error
}
