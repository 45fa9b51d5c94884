package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/schoolsuite/resultpin/internal/models"

	"gorm.io/gorm"
)

// ScratchCardStats aggregate counters for a school's cards
type ScratchCardStats struct {
	Total             int64 `json:"total"`
	Active            int64 `json:"active"`
	Depleted          int64 `json:"depleted"`
	Deactivated       int64 `json:"deactivated"`
	TotalUses         int64 `json:"total_uses"`
	RemainingCapacity int64 `json:"remaining_capacity"`
}

// ConsumeOutcome result of the atomic consume primitive
type ConsumeOutcome struct {
	Consumed           bool
	PriorUsesRemaining int
}

// ScratchCardRepository scratch card data access contract
type ScratchCardRepository interface {
	CreateBatch(batch *models.ScratchCardBatch, cards []models.ScratchCard) error
	GetByID(id uint) (*models.ScratchCard, error)
	FindByPin(pin string) (*models.ScratchCard, error)
	TryConsumeOne(cardID uint, now time.Time) (ConsumeOutcome, error)
	Deactivate(cardID uint, now time.Time) (*models.ScratchCard, error)
	List(filter ScratchCardListFilter) ([]models.ScratchCard, int64, error)
	ListUnusedBySchool(schoolID uint) ([]models.ScratchCard, error)
	ListExistingPins(pins []string) ([]string, error)
	Stats(schoolID uint) (*ScratchCardStats, error)
	WithTx(tx *gorm.DB) *GormScratchCardRepository
}

// GormScratchCardRepository GORM implementation
type GormScratchCardRepository struct {
	db *gorm.DB
}

// NewScratchCardRepository creates the card repository
func NewScratchCardRepository(db *gorm.DB) *GormScratchCardRepository {
	return &GormScratchCardRepository{db: db}
}

// WithTx binds the repository to a transaction
func (r *GormScratchCardRepository) WithTx(tx *gorm.DB) *GormScratchCardRepository {
	if tx == nil {
		return r
	}
	return &GormScratchCardRepository{db: tx}
}

// CreateBatch persists a batch record and its cards in one shot. The unique
// index on pin is the last line of defense against a generation collision;
// the caller treats a violation as retryable.
func (r *GormScratchCardRepository) CreateBatch(batch *models.ScratchCardBatch, cards []models.ScratchCard) error {
	if batch == nil {
		return errors.New("invalid scratch card batch")
	}
	if err := r.db.Create(batch).Error; err != nil {
		return err
	}
	if len(cards) == 0 {
		return nil
	}
	for idx := range cards {
		cards[idx].BatchID = &batch.ID
	}
	return r.db.Create(&cards).Error
}

// GetByID looks a card up by primary key
func (r *GormScratchCardRepository) GetByID(id uint) (*models.ScratchCard, error) {
	if id == 0 {
		return nil, nil
	}
	var card models.ScratchCard
	if err := r.db.Preload("Batch").First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// FindByPin looks a card up by its PIN
func (r *GormScratchCardRepository) FindByPin(pin string) (*models.ScratchCard, error) {
	pin = strings.TrimSpace(strings.ToUpper(pin))
	if pin == "" {
		return nil, nil
	}
	var card models.ScratchCard
	if err := r.db.Where("pin = ?", pin).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &card, nil
}

// TryConsumeOne atomically consumes one use. The decrement is a single
// conditional UPDATE guarded by uses_remaining > 0; two racing callers on a
// card with one use left cannot both see a nonzero row count. Never
// read-modify-write the counter in application memory.
func (r *GormScratchCardRepository) TryConsumeOne(cardID uint, now time.Time) (ConsumeOutcome, error) {
	if cardID == 0 {
		return ConsumeOutcome{}, errors.New("invalid card id")
	}
	if now.IsZero() {
		now = time.Now()
	}
	result := r.db.Model(&models.ScratchCard{}).
		Where("id = ? AND is_active = ? AND uses_remaining > 0", cardID, true).
		Updates(map[string]interface{}{
			"uses_remaining": gorm.Expr("uses_remaining - 1"),
			"usage_count":    gorm.Expr("usage_count + 1"),
			"last_used_at":   now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return ConsumeOutcome{}, result.Error
	}
	if result.RowsAffected == 0 {
		// Lost the race (or the card was already spent); report the
		// current remaining count as the prior state.
		var card models.ScratchCard
		if err := r.db.First(&card, cardID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ConsumeOutcome{}, nil
			}
			return ConsumeOutcome{}, err
		}
		return ConsumeOutcome{Consumed: false, PriorUsesRemaining: card.UsesRemaining}, nil
	}

	// The depleting decrement stamps deactivated_at in the same transaction,
	// exactly once.
	if err := r.db.Model(&models.ScratchCard{}).
		Where("id = ? AND uses_remaining = 0 AND deactivated_at IS NULL", cardID).
		Update("deactivated_at", now).Error; err != nil {
		return ConsumeOutcome{}, err
	}

	var card models.ScratchCard
	if err := r.db.First(&card, cardID).Error; err != nil {
		return ConsumeOutcome{}, err
	}
	return ConsumeOutcome{Consumed: true, PriorUsesRemaining: card.UsesRemaining + 1}, nil
}

// Deactivate explicit issuer action; idempotent. Remaining uses are kept as
// they were so the action is auditable and distinguishable from depletion.
func (r *GormScratchCardRepository) Deactivate(cardID uint, now time.Time) (*models.ScratchCard, error) {
	if cardID == 0 {
		return nil, errors.New("invalid card id")
	}
	if now.IsZero() {
		now = time.Now()
	}
	if err := r.db.Model(&models.ScratchCard{}).
		Where("id = ? AND is_active = ?", cardID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": now,
		}).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.ScratchCard{}).
		Where("id = ? AND deactivated_at IS NULL", cardID).
		Update("deactivated_at", now).Error; err != nil {
		return nil, err
	}
	return r.GetByID(cardID)
}

// List queries a school's cards
func (r *GormScratchCardRepository) List(filter ScratchCardListFilter) ([]models.ScratchCard, int64, error) {
	query := r.db.Model(&models.ScratchCard{}).Preload("Batch")
	if filter.SchoolID > 0 {
		query = query.Where("school_id = ?", filter.SchoolID)
	}
	if pin := strings.TrimSpace(strings.ToUpper(filter.Pin)); pin != "" {
		query = query.Where("pin LIKE ?", pin+"%")
	}
	switch strings.TrimSpace(strings.ToLower(filter.Status)) {
	case models.ScratchCardStatusActive:
		query = query.Where("is_active = ? AND uses_remaining > 0", true)
	case models.ScratchCardStatusDepleted:
		query = query.Where("is_active = ? AND uses_remaining = 0", true)
	case models.ScratchCardStatusDeactivated:
		query = query.Where("is_active = ?", false)
	}
	if batchNo := strings.TrimSpace(strings.ToUpper(filter.BatchNo)); batchNo != "" {
		query = query.Joins("LEFT JOIN scratch_card_batches ON scratch_card_batches.id = scratch_cards.batch_id").
			Where("scratch_card_batches.batch_no LIKE ?", "%"+batchNo+"%")
	}
	if filter.CreatedFrom != nil {
		query = query.Where("scratch_cards.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("scratch_cards.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var cards []models.ScratchCard
	if err := query.Order("scratch_cards.id desc").Find(&cards).Error; err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// ListUnusedBySchool returns the school's never-used, still-active cards
// for export.
func (r *GormScratchCardRepository) ListUnusedBySchool(schoolID uint) ([]models.ScratchCard, error) {
	if schoolID == 0 {
		return []models.ScratchCard{}, nil
	}
	var cards []models.ScratchCard
	if err := r.db.Preload("Batch").
		Where("school_id = ? AND is_active = ? AND usage_count = 0", schoolID, true).
		Order("id asc").
		Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// ListExistingPins returns which of the candidate pins are already issued,
// across every school and batch.
func (r *GormScratchCardRepository) ListExistingPins(pins []string) ([]string, error) {
	if len(pins) == 0 {
		return []string{}, nil
	}
	var existing []string
	if err := r.db.Model(&models.ScratchCard{}).
		Where("pin IN ?", pins).
		Pluck("pin", &existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

// Stats aggregates a school's card counters. Snapshot read; eventual
// consistency with in-flight redemptions is acceptable.
func (r *GormScratchCardRepository) Stats(schoolID uint) (*ScratchCardStats, error) {
	stats := &ScratchCardStats{}
	base := r.db.Model(&models.ScratchCard{}).Where("school_id = ?", schoolID)

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("is_active = ? AND uses_remaining > 0", true).
		Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("is_active = ? AND uses_remaining = 0", true).
		Count(&stats.Depleted).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("is_active = ?", false).
		Count(&stats.Deactivated).Error; err != nil {
		return nil, err
	}

	type sums struct {
		TotalUses         int64
		RemainingCapacity int64
	}
	var s sums
	if err := r.db.Model(&models.ScratchCard{}).
		Where("school_id = ?", schoolID).
		Select("COALESCE(SUM(usage_count),0) AS total_uses, COALESCE(SUM(uses_remaining),0) AS remaining_capacity").
		Scan(&s).Error; err != nil {
		return nil, err
	}
	stats.TotalUses = s.TotalUses
	stats.RemainingCapacity = s.RemainingCapacity
	return stats, nil
}
