package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/schoolsuite/resultpin/internal/config"
	"github.com/schoolsuite/resultpin/internal/constants"
	"github.com/schoolsuite/resultpin/internal/models"
	"github.com/schoolsuite/resultpin/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupScratchCardServiceTest(t *testing.T, cards config.CardsConfig) (*ScratchCardService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:scratch_card_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.School{},
		&models.ScratchCardBatch{},
		&models.ScratchCard{},
		&models.ScratchCardUsage{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cardRepo := repository.NewScratchCardRepository(db)
	usageRepo := repository.NewScratchCardUsageRepository(db)
	return NewScratchCardService(cardRepo, usageRepo, cards), db
}

func TestGenerateCardsCreatesBatch(t *testing.T) {
	svc, db := setupScratchCardServiceTest(t, config.CardsConfig{})

	batch, cards, err := svc.GenerateCards(GenerateCardsInput{SchoolID: 1, Quantity: 20})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if batch == nil || batch.ID == 0 {
		t.Fatal("batch should be persisted")
	}
	if !strings.HasPrefix(batch.BatchNo, "SCB") {
		t.Fatalf("unexpected batch no: %s", batch.BatchNo)
	}
	if batch.Quantity != 20 || batch.InitialUses != constants.DefaultCardUses {
		t.Fatalf("unexpected batch fields: %+v", batch)
	}
	if len(cards) != 20 {
		t.Fatalf("expected 20 cards, got %d", len(cards))
	}

	seen := make(map[string]struct{}, len(cards))
	for _, card := range cards {
		if len(card.Pin) != 10 {
			t.Fatalf("expected pin length 10, got %q", card.Pin)
		}
		for _, ch := range card.Pin {
			if !strings.ContainsRune(constants.PinAlphabet, ch) {
				t.Fatalf("pin %q contains character outside alphabet", card.Pin)
			}
		}
		if _, dup := seen[card.Pin]; dup {
			t.Fatalf("duplicate pin in batch: %s", card.Pin)
		}
		seen[card.Pin] = struct{}{}
		if card.UsesRemaining != constants.DefaultCardUses {
			t.Fatalf("expected %d uses, got %d", constants.DefaultCardUses, card.UsesRemaining)
		}
		if !card.IsActive {
			t.Fatal("new card should be active")
		}
		if card.BatchID == nil || *card.BatchID != batch.ID {
			t.Fatal("card not linked to batch")
		}
	}

	var stored int64
	if err := db.Model(&models.ScratchCard{}).Where("school_id = ?", 1).Count(&stored).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if stored != 20 {
		t.Fatalf("expected 20 stored cards, got %d", stored)
	}
}

func TestGenerateCardsHonorsConfig(t *testing.T) {
	svc, _ := setupScratchCardServiceTest(t, config.CardsConfig{DefaultUses: 5, PinLength: 12})

	_, cards, err := svc.GenerateCards(GenerateCardsInput{SchoolID: 1, Quantity: 2})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	for _, card := range cards {
		if card.UsesRemaining != 5 {
			t.Fatalf("expected 5 uses, got %d", card.UsesRemaining)
		}
		if len(card.Pin) != 12 {
			t.Fatalf("expected pin length 12, got %q", card.Pin)
		}
	}
}

func TestGenerateCardsRejectsBadQuantity(t *testing.T) {
	svc, _ := setupScratchCardServiceTest(t, config.CardsConfig{})

	cases := []GenerateCardsInput{
		{SchoolID: 1, Quantity: 0},
		{SchoolID: 1, Quantity: -1},
		{SchoolID: 1, Quantity: constants.MaxGenerateBatchSize + 1},
		{SchoolID: 0, Quantity: 10},
		{SchoolID: 1, Quantity: 10, UsesLimit: -2},
	}
	for _, input := range cases {
		if _, _, err := svc.GenerateCards(input); !errors.Is(err, ErrCardInvalid) {
			t.Fatalf("input %+v: expected ErrCardInvalid, got %v", input, err)
		}
	}
}

func TestGenerateCardsPinSpaceExhausted(t *testing.T) {
	// A one-character pin has exactly 36 possible values. With all of them
	// already issued, the draw budget must run out deterministically.
	svc, db := setupScratchCardServiceTest(t, config.CardsConfig{PinLength: 1})

	issued := make([]models.ScratchCard, 0, len(constants.PinAlphabet))
	for _, ch := range constants.PinAlphabet {
		issued = append(issued, models.ScratchCard{
			Pin:           string(ch),
			SchoolID:      1,
			UsesRemaining: 1,
			IsActive:      true,
		})
	}
	if err := db.Create(&issued).Error; err != nil {
		t.Fatalf("seed pins failed: %v", err)
	}

	if _, _, err := svc.GenerateCards(GenerateCardsInput{SchoolID: 1, Quantity: 1}); !errors.Is(err, ErrPinSpaceExhausted) {
		t.Fatalf("expected ErrPinSpaceExhausted, got %v", err)
	}
}

// blindPinRepo hides already-issued pins from the pre-insert check, so
// every collision is only caught by the store's unique index. This is the
// shape of a concurrent generation call landing between check and insert.
type blindPinRepo struct {
	repository.ScratchCardRepository
}

func (r blindPinRepo) ListExistingPins(pins []string) ([]string, error) {
	return nil, nil
}

func TestGenerateCardsRetriesOnInsertCollision(t *testing.T) {
	svc, db := setupScratchCardServiceTest(t, config.CardsConfig{PinLength: 1})
	svc.repo = blindPinRepo{svc.repo}

	// Six of the 36 single-character pins are already taken.
	taken := []models.ScratchCard{}
	for _, ch := range constants.PinAlphabet[:6] {
		taken = append(taken, models.ScratchCard{
			Pin:           string(ch),
			SchoolID:      1,
			UsesRemaining: 1,
			IsActive:      true,
		})
	}
	if err := db.Create(&taken).Error; err != nil {
		t.Fatalf("seed pins failed: %v", err)
	}

	_, cards, err := svc.GenerateCards(GenerateCardsInput{SchoolID: 1, Quantity: 1})
	if err != nil {
		t.Fatalf("insert collisions must be retried, not surfaced: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d", len(cards))
	}
	if strings.Contains(string(constants.PinAlphabet[:6]), cards[0].Pin) {
		t.Fatalf("generated pin %q collides with an issued one", cards[0].Pin)
	}
}

func TestGenerateCardsInsertCollisionsExhaustBudget(t *testing.T) {
	svc, db := setupScratchCardServiceTest(t, config.CardsConfig{PinLength: 1})
	svc.repo = blindPinRepo{svc.repo}

	issued := make([]models.ScratchCard, 0, len(constants.PinAlphabet))
	for _, ch := range constants.PinAlphabet {
		issued = append(issued, models.ScratchCard{
			Pin:           string(ch),
			SchoolID:      1,
			UsesRemaining: 1,
			IsActive:      true,
		})
	}
	if err := db.Create(&issued).Error; err != nil {
		t.Fatalf("seed pins failed: %v", err)
	}

	// With the whole pin space issued and the pre-check blind, every insert
	// hits the unique index; the bounded retry must end in the exhaustion
	// error, never a bare store failure.
	if _, _, err := svc.GenerateCards(GenerateCardsInput{SchoolID: 1, Quantity: 1}); !errors.Is(err, ErrPinSpaceExhausted) {
		t.Fatalf("expected ErrPinSpaceExhausted, got %v", err)
	}
}

func TestGenerateCardsUniqueAcrossBatches(t *testing.T) {
	svc, _ := setupScratchCardServiceTest(t, config.CardsConfig{})

	_, first, err := svc.GenerateCards(GenerateCardsInput{SchoolID: 1, Quantity: constants.MaxGenerateBatchSize})
	if err != nil {
		t.Fatalf("first batch failed: %v", err)
	}
	_, second, err := svc.GenerateCards(GenerateCardsInput{SchoolID: 1, Quantity: constants.MaxGenerateBatchSize})
	if err != nil {
		t.Fatalf("second batch failed: %v", err)
	}

	seen := make(map[string]struct{}, len(first)+len(second))
	for _, card := range append(first, second...) {
		if _, dup := seen[card.Pin]; dup {
			t.Fatalf("pin %s issued twice across batches", card.Pin)
		}
		seen[card.Pin] = struct{}{}
	}
}

func TestDeactivateCardPreservesUses(t *testing.T) {
	svc, _ := setupScratchCardServiceTest(t, config.CardsConfig{})

	_, cards, err := svc.GenerateCards(GenerateCardsInput{SchoolID: 1, Quantity: 1})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	card := cards[0]

	updated, err := svc.DeactivateCard(1, card.ID)
	if err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if updated.IsActive {
		t.Fatal("card should be inactive")
	}
	if updated.UsesRemaining != constants.DefaultCardUses {
		t.Fatalf("remaining uses must survive deactivation, got %d", updated.UsesRemaining)
	}

	again, err := svc.DeactivateCard(1, card.ID)
	if err != nil {
		t.Fatalf("repeat deactivate failed: %v", err)
	}
	if !again.DeactivatedAt.Equal(*updated.DeactivatedAt) {
		t.Fatal("repeat deactivation moved the stamp")
	}
}

func TestGetCardScopedToSchool(t *testing.T) {
	svc, _ := setupScratchCardServiceTest(t, config.CardsConfig{})

	_, cards, err := svc.GenerateCards(GenerateCardsInput{SchoolID: 1, Quantity: 1})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := svc.GetCard(2, cards[0].ID); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound for foreign school, got %v", err)
	}
	if _, err := svc.DeactivateCard(2, cards[0].ID); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound on foreign deactivate, got %v", err)
	}
}

func TestListCardsStatusFilter(t *testing.T) {
	svc, db := setupScratchCardServiceTest(t, config.CardsConfig{})

	_, cards, err := svc.GenerateCards(GenerateCardsInput{SchoolID: 1, Quantity: 3})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	cardRepo := repository.NewScratchCardRepository(db)
	if _, err := cardRepo.Deactivate(cards[0].ID, time.Now()); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if err := db.Model(&models.ScratchCard{}).Where("id = ?", cards[1].ID).
		Update("uses_remaining", 0).Error; err != nil {
		t.Fatalf("deplete failed: %v", err)
	}

	active, total, err := svc.ListCards(ScratchCardListInput{SchoolID: 1, Status: models.ScratchCardStatusActive})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(active) != 1 || active[0].ID != cards[2].ID {
		t.Fatalf("unexpected active list: total=%d len=%d", total, len(active))
	}

	depleted, total, err := svc.ListCards(ScratchCardListInput{SchoolID: 1, Status: models.ScratchCardStatusDepleted})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || depleted[0].ID != cards[1].ID {
		t.Fatalf("unexpected depleted list: total=%d", total)
	}

	if _, _, err := svc.ListCards(ScratchCardListInput{SchoolID: 1, Status: "burned"}); !errors.Is(err, ErrCardInvalid) {
		t.Fatalf("expected ErrCardInvalid for unknown status, got %v", err)
	}
}

func TestCardStats(t *testing.T) {
	svc, db := setupScratchCardServiceTest(t, config.CardsConfig{})

	_, cards, err := svc.GenerateCards(GenerateCardsInput{SchoolID: 1, Quantity: 2})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	cardRepo := repository.NewScratchCardRepository(db)
	if _, err := cardRepo.TryConsumeOne(cards[0].ID, time.Now()); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	stats, err := svc.CardStats(1)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Total != 2 || stats.Active != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.TotalUses != 1 {
		t.Fatalf("expected 1 total use, got %d", stats.TotalUses)
	}
	if stats.RemainingCapacity != int64(2*constants.DefaultCardUses-1) {
		t.Fatalf("unexpected remaining capacity: %d", stats.RemainingCapacity)
	}
}

func TestExportUnusedCards(t *testing.T) {
	svc, db := setupScratchCardServiceTest(t, config.CardsConfig{})

	_, cards, err := svc.GenerateCards(GenerateCardsInput{SchoolID: 1, Quantity: 2})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	cardRepo := repository.NewScratchCardRepository(db)
	if _, err := cardRepo.TryConsumeOne(cards[0].ID, time.Now()); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	data, contentType, err := svc.ExportUnusedCards(1, "csv")
	if err != nil {
		t.Fatalf("csv export failed: %v", err)
	}
	if !strings.HasPrefix(contentType, "text/csv") {
		t.Fatalf("unexpected content type: %s", contentType)
	}
	body := string(data)
	if !strings.HasPrefix(body, "id,pin,batch_no,uses_remaining,created_at") {
		t.Fatalf("missing csv header: %q", body)
	}
	if strings.Contains(body, cards[0].Pin) {
		t.Fatal("used card must not be exported")
	}
	if !strings.Contains(body, cards[1].Pin) {
		t.Fatal("unused card missing from export")
	}

	data, contentType, err = svc.ExportUnusedCards(1, "txt")
	if err != nil {
		t.Fatalf("txt export failed: %v", err)
	}
	if !strings.HasPrefix(contentType, "text/plain") {
		t.Fatalf("unexpected content type: %s", contentType)
	}
	if strings.TrimSpace(string(data)) != cards[1].Pin {
		t.Fatalf("unexpected txt body: %q", string(data))
	}

	if _, _, err := svc.ExportUnusedCards(1, "pdf"); !errors.Is(err, ErrCardInvalid) {
		t.Fatalf("expected ErrCardInvalid for unknown format, got %v", err)
	}
}

func TestExportUnusedCardsEmpty(t *testing.T) {
	svc, _ := setupScratchCardServiceTest(t, config.CardsConfig{})

	if _, _, err := svc.ExportUnusedCards(7, "csv"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound when nothing to export, got %v", err)
	}
}
