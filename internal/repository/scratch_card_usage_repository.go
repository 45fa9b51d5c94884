package repository

import (
	"strings"

	"github.com/schoolsuite/resultpin/internal/models"

	"gorm.io/gorm"
)

// ScratchCardUsageRepository append-only ledger access. Entries are created
// in the redemption transaction and never touched again.
type ScratchCardUsageRepository interface {
	Create(entry *models.ScratchCardUsage) error
	ListByCard(cardID uint, page, pageSize int) ([]models.ScratchCardUsage, int64, error)
	ListBySchool(filter ScratchCardUsageListFilter) ([]models.ScratchCardUsage, int64, error)
	CountByCard(cardID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormScratchCardUsageRepository
}

// GormScratchCardUsageRepository GORM implementation
type GormScratchCardUsageRepository struct {
	db *gorm.DB
}

// NewScratchCardUsageRepository creates the ledger repository
func NewScratchCardUsageRepository(db *gorm.DB) *GormScratchCardUsageRepository {
	return &GormScratchCardUsageRepository{db: db}
}

// WithTx binds the repository to a transaction
func (r *GormScratchCardUsageRepository) WithTx(tx *gorm.DB) *GormScratchCardUsageRepository {
	if tx == nil {
		return r
	}
	return &GormScratchCardUsageRepository{db: tx}
}

// Create appends a ledger entry
func (r *GormScratchCardUsageRepository) Create(entry *models.ScratchCardUsage) error {
	if entry == nil {
		return nil
	}
	return r.db.Create(entry).Error
}

// ListByCard returns a card's entries, most recent first
func (r *GormScratchCardUsageRepository) ListByCard(cardID uint, page, pageSize int) ([]models.ScratchCardUsage, int64, error) {
	query := r.db.Model(&models.ScratchCardUsage{}).Where("card_id = ?", cardID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)

	var entries []models.ScratchCardUsage
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListBySchool returns a school's entries for dashboards, most recent first
func (r *GormScratchCardUsageRepository) ListBySchool(filter ScratchCardUsageListFilter) ([]models.ScratchCardUsage, int64, error) {
	query := r.db.Model(&models.ScratchCardUsage{})
	if filter.SchoolID > 0 {
		query = query.Where("school_id = ?", filter.SchoolID)
	}
	if filter.CardID > 0 {
		query = query.Where("card_id = ?", filter.CardID)
	}
	if admission := strings.TrimSpace(filter.AdmissionNumber); admission != "" {
		query = query.Where("student_admission_number = ?", admission)
	}
	if filter.UsedFrom != nil {
		query = query.Where("used_at >= ?", *filter.UsedFrom)
	}
	if filter.UsedTo != nil {
		query = query.Where("used_at <= ?", *filter.UsedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var entries []models.ScratchCardUsage
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// CountByCard counts a card's ledger entries (reconciles against usage_count)
func (r *GormScratchCardUsageRepository) CountByCard(cardID uint) (int64, error) {
	var total int64
	if err := r.db.Model(&models.ScratchCardUsage{}).Where("card_id = ?", cardID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
