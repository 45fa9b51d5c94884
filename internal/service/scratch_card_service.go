package service

import (
	crand "crypto/rand"
	"encoding/csv"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/schoolsuite/resultpin/internal/config"
	"github.com/schoolsuite/resultpin/internal/constants"
	"github.com/schoolsuite/resultpin/internal/models"
	"github.com/schoolsuite/resultpin/internal/repository"

	"gorm.io/gorm"
)

const scratchCardBatchPrefix = "SCB"

// ScratchCardService scratch card lifecycle: batch generation, listing,
// stats, deactivation and export
type ScratchCardService struct {
	repo      repository.ScratchCardRepository
	usageRepo repository.ScratchCardUsageRepository
	cards     config.CardsConfig
}

// GenerateCardsInput batch generation input
type GenerateCardsInput struct {
	SchoolID  uint
	Quantity  int
	UsesLimit int
	CreatedBy *uint
}

// ScratchCardListInput card list input
type ScratchCardListInput struct {
	SchoolID    uint
	Pin         string
	Status      string
	BatchNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// CardUsageListInput usage list input
type CardUsageListInput struct {
	SchoolID        uint
	CardID          uint
	AdmissionNumber string
	UsedFrom        *time.Time
	UsedTo          *time.Time
	Page            int
	PageSize        int
}

// NewScratchCardService creates the scratch card service
func NewScratchCardService(repo repository.ScratchCardRepository, usageRepo repository.ScratchCardUsageRepository, cards config.CardsConfig) *ScratchCardService {
	return &ScratchCardService{
		repo:      repo,
		usageRepo: usageRepo,
		cards:     cards,
	}
}

// GenerateCards creates one batch of globally unique cards for a school.
// PINs are drawn from crypto/rand; candidates colliding with already
// issued PINs (or within the batch) are redrawn, bounded at
// PinGenerationRetryFactor×quantity total draws.
func (s *ScratchCardService) GenerateCards(input GenerateCardsInput) (*models.ScratchCardBatch, []models.ScratchCard, error) {
	if s == nil || s.repo == nil {
		return nil, nil, ErrCardCreateFailed
	}
	if input.SchoolID == 0 {
		return nil, nil, ErrCardInvalid
	}
	maxBatch := s.cards.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = constants.MaxGenerateBatchSize
	}
	if input.Quantity <= 0 || input.Quantity > maxBatch {
		return nil, nil, ErrCardInvalid
	}
	usesLimit := input.UsesLimit
	if usesLimit == 0 {
		usesLimit = s.defaultUses()
	}
	if usesLimit < 0 {
		return nil, nil, ErrCardInvalid
	}

	// The pre-insert ListExistingPins check and the insert itself can race
	// with a concurrent generation call, so a unique-index violation from
	// the store is not fatal: those candidates are discarded and fresh ones
	// drawn, all within the same draw budget.
	budget := input.Quantity * constants.PinGenerationRetryFactor
	draws := 0
	seen := make(map[string]struct{}, input.Quantity)

	for {
		pins, err := s.generateUniquePins(input.Quantity, seen, &draws, budget)
		if err != nil {
			return nil, nil, err
		}

		now := time.Now()
		batch := &models.ScratchCardBatch{
			BatchNo:     generateScratchCardBatchNo(now),
			SchoolID:    input.SchoolID,
			Quantity:    input.Quantity,
			InitialUses: usesLimit,
			CreatedBy:   input.CreatedBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		cards := make([]models.ScratchCard, 0, input.Quantity)
		for _, pin := range pins {
			cards = append(cards, models.ScratchCard{
				Pin:           pin,
				SchoolID:      input.SchoolID,
				UsesRemaining: usesLimit,
				UsageCount:    0,
				IsActive:      true,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}

		txErr := models.DB.Transaction(func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).CreateBatch(batch, cards)
		})
		if txErr == nil {
			for i := range cards {
				cards[i].BatchID = &batch.ID
			}
			return batch, cards, nil
		}
		if !isUniqueViolation(txErr) {
			return nil, nil, ErrBatchCreateFailed
		}
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// ListCards gets a school's card list
func (s *ScratchCardService) ListCards(input ScratchCardListInput) ([]models.ScratchCard, int64, error) {
	if s == nil || s.repo == nil {
		return nil, 0, ErrCardFetchFailed
	}
	if input.SchoolID == 0 {
		return nil, 0, ErrCardInvalid
	}
	filter := repository.ScratchCardListFilter{
		SchoolID:    input.SchoolID,
		Pin:         strings.TrimSpace(strings.ToUpper(input.Pin)),
		Status:      strings.TrimSpace(strings.ToLower(input.Status)),
		BatchNo:     strings.TrimSpace(strings.ToUpper(input.BatchNo)),
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Page:        input.Page,
		PageSize:    input.PageSize,
	}
	switch filter.Status {
	case "", models.ScratchCardStatusActive, models.ScratchCardStatusDepleted, models.ScratchCardStatusDeactivated:
	default:
		return nil, 0, ErrCardInvalid
	}

	cards, total, err := s.repo.List(filter)
	if err != nil {
		return nil, 0, ErrCardFetchFailed
	}
	return cards, total, nil
}

// GetCard fetches one of the school's cards
func (s *ScratchCardService) GetCard(schoolID, cardID uint) (*models.ScratchCard, error) {
	if s == nil || s.repo == nil || cardID == 0 {
		return nil, ErrCardInvalid
	}
	card, err := s.repo.GetByID(cardID)
	if err != nil {
		return nil, ErrCardFetchFailed
	}
	if card == nil || card.SchoolID != schoolID {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// DeactivateCard turns a card off. Idempotent: deactivating an already
// inactive card reports the stored state unchanged. Remaining uses are
// preserved for audit.
func (s *ScratchCardService) DeactivateCard(schoolID, cardID uint) (*models.ScratchCard, error) {
	card, err := s.GetCard(schoolID, cardID)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Deactivate(card.ID, time.Now())
	if err != nil {
		return nil, ErrCardUpdateFailed
	}
	return updated, nil
}

// CardStats aggregates the school's card counters
func (s *ScratchCardService) CardStats(schoolID uint) (*repository.ScratchCardStats, error) {
	if s == nil || s.repo == nil || schoolID == 0 {
		return nil, ErrCardInvalid
	}
	stats, err := s.repo.Stats(schoolID)
	if err != nil {
		return nil, ErrCardFetchFailed
	}
	return stats, nil
}

// ListCardUsages gets the usage ledger, optionally scoped to one card
func (s *ScratchCardService) ListCardUsages(input CardUsageListInput) ([]models.ScratchCardUsage, int64, error) {
	if s == nil || s.usageRepo == nil {
		return nil, 0, ErrCardFetchFailed
	}
	if input.SchoolID == 0 {
		return nil, 0, ErrCardInvalid
	}
	if input.CardID > 0 {
		if _, err := s.GetCard(input.SchoolID, input.CardID); err != nil {
			return nil, 0, err
		}
	}
	filter := repository.ScratchCardUsageListFilter{
		SchoolID:        input.SchoolID,
		CardID:          input.CardID,
		AdmissionNumber: strings.TrimSpace(input.AdmissionNumber),
		UsedFrom:        input.UsedFrom,
		UsedTo:          input.UsedTo,
		Page:            input.Page,
		PageSize:        input.PageSize,
	}
	usages, total, err := s.usageRepo.ListBySchool(filter)
	if err != nil {
		return nil, 0, ErrCardFetchFailed
	}
	return usages, total, nil
}

// ExportUnusedCards dumps the school's never-used active cards for
// printing. Formats: csv (pin, batch, uses, created) or txt (pins only).
func (s *ScratchCardService) ExportUnusedCards(schoolID uint, format string) ([]byte, string, error) {
	if s == nil || s.repo == nil {
		return nil, "", ErrCardFetchFailed
	}
	if schoolID == 0 {
		return nil, "", ErrCardInvalid
	}
	normalizedFormat := strings.TrimSpace(strings.ToLower(format))
	if normalizedFormat == "" {
		normalizedFormat = constants.ExportFormatCSV
	}
	if normalizedFormat != constants.ExportFormatCSV && normalizedFormat != constants.ExportFormatTXT {
		return nil, "", ErrCardInvalid
	}

	cards, err := s.repo.ListUnusedBySchool(schoolID)
	if err != nil {
		return nil, "", ErrCardFetchFailed
	}
	if len(cards) == 0 {
		return nil, "", ErrCardNotFound
	}

	if normalizedFormat == constants.ExportFormatTXT {
		lines := make([]string, 0, len(cards))
		for _, card := range cards {
			lines = append(lines, strings.TrimSpace(card.Pin))
		}
		return []byte(strings.Join(lines, "\n")), "text/plain; charset=utf-8", nil
	}

	builder := &strings.Builder{}
	writer := csv.NewWriter(builder)
	if err := writer.Write([]string{
		"id",
		"pin",
		"batch_no",
		"uses_remaining",
		"created_at",
	}); err != nil {
		return nil, "", ErrCardFetchFailed
	}
	for _, card := range cards {
		batchNo := ""
		if card.Batch != nil {
			batchNo = card.Batch.BatchNo
		}
		record := []string{
			strconv.FormatUint(uint64(card.ID), 10),
			card.Pin,
			batchNo,
			strconv.Itoa(card.UsesRemaining),
			card.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, "", ErrCardFetchFailed
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", ErrCardFetchFailed
	}
	return []byte(builder.String()), "text/csv; charset=utf-8", nil
}

func (s *ScratchCardService) defaultUses() int {
	if s.cards.DefaultUses > 0 {
		return s.cards.DefaultUses
	}
	return constants.DefaultCardUses
}

func (s *ScratchCardService) pinLength() int {
	if s.cards.PinLength > 0 {
		return s.cards.PinLength
	}
	return 10
}

// generateUniquePins draws candidate pins until quantity unique, unissued
// pins are collected or the shared draw budget runs out. The seen set and
// draw counter persist across insert retries so candidates that already
// failed once are never redrawn.
func (s *ScratchCardService) generateUniquePins(quantity int, seen map[string]struct{}, draws *int, budget int) ([]string, error) {
	length := s.pinLength()
	pins := make([]string, 0, quantity)

	for len(pins) < quantity {
		want := quantity - len(pins)
		candidates := make([]string, 0, want)
		for i := 0; i < want; i++ {
			if *draws >= budget {
				return nil, ErrPinSpaceExhausted
			}
			*draws++
			pin, err := randomPin(length)
			if err != nil {
				return nil, ErrCardCreateFailed
			}
			if _, ok := seen[pin]; ok {
				continue
			}
			seen[pin] = struct{}{}
			candidates = append(candidates, pin)
		}
		if len(candidates) == 0 {
			continue
		}
		taken, err := s.repo.ListExistingPins(candidates)
		if err != nil {
			return nil, ErrCardCreateFailed
		}
		takenSet := make(map[string]struct{}, len(taken))
		for _, pin := range taken {
			takenSet[pin] = struct{}{}
		}
		for _, pin := range candidates {
			if _, ok := takenSet[pin]; ok {
				continue
			}
			pins = append(pins, pin)
		}
	}
	return pins, nil
}

// randomPin draws length characters uniformly from PinAlphabet using
// rejection sampling so no character is favored.
func randomPin(length int) (string, error) {
	alphabet := constants.PinAlphabet
	limit := 256 - 256%len(alphabet)
	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := crand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

func generateScratchCardBatchNo(now time.Time) string {
	return scratchCardBatchPrefix + now.Format("20060102150405") + randomHexSuffix(4)
}

func randomHexSuffix(n int) string {
	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}
