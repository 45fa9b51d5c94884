package service

import (
	"strings"
	"time"

	"github.com/schoolsuite/resultpin/internal/logger"
	"github.com/schoolsuite/resultpin/internal/models"
	"github.com/schoolsuite/resultpin/internal/queue"
	"github.com/schoolsuite/resultpin/internal/repository"

	"gorm.io/gorm"
)

// RedemptionService the public result-check flow: validate the pin,
// resolve the student's result, then consume one card use and append the
// ledger entry in a single transaction.
type RedemptionService struct {
	cardRepo    repository.ScratchCardRepository
	usageRepo   repository.ScratchCardUsageRepository
	studentRepo repository.StudentRepository
	resultRepo  repository.StudentResultRepository
	queueClient *queue.Client
}

// RedeemInput public result-check input
type RedeemInput struct {
	Pin             string
	AdmissionNumber string
	SessionID       *uint
	TermID          *uint
	Email           string
	IPAddress       string
	RequestID       string
}

// RedemptionResult outcome of a successful result check
type RedemptionResult struct {
	Card          *models.ScratchCard
	Student       *models.Student
	Result        *models.StudentResult
	UsesRemaining int
	Depleted      bool
}

// NewRedemptionService creates the redemption service
func NewRedemptionService(
	cardRepo repository.ScratchCardRepository,
	usageRepo repository.ScratchCardUsageRepository,
	studentRepo repository.StudentRepository,
	resultRepo repository.StudentResultRepository,
	queueClient *queue.Client,
) *RedemptionService {
	return &RedemptionService{
		cardRepo:    cardRepo,
		usageRepo:   usageRepo,
		studentRepo: studentRepo,
		resultRepo:  resultRepo,
		queueClient: queueClient,
	}
}

// Redeem checks a student's result against a scratch card pin.
//
// The result is resolved BEFORE the card is touched: a bad admission
// number or an unpublished result never costs a use. Only once the
// result is in hand does the transaction consume one use and append the
// ledger entry; the conditional decrement inside TryConsumeOne is what
// keeps two concurrent calls on a one-use card from both succeeding.
func (s *RedemptionService) Redeem(input RedeemInput) (*RedemptionResult, error) {
	if s == nil || s.cardRepo == nil || s.usageRepo == nil {
		return nil, ErrRedeemFailed
	}
	pin := strings.TrimSpace(strings.ToUpper(input.Pin))
	admissionNumber := strings.TrimSpace(input.AdmissionNumber)
	if pin == "" {
		return nil, ErrInvalidPin
	}
	if admissionNumber == "" {
		return nil, ErrStudentNotFound
	}
	if (input.SessionID == nil) != (input.TermID == nil) {
		return nil, ErrCardInvalid
	}

	card, err := s.cardRepo.FindByPin(pin)
	if err != nil {
		return nil, ErrRedeemFailed
	}
	if card == nil {
		return nil, ErrInvalidPin
	}
	if !card.IsActive {
		return nil, ErrCardDeactivated
	}
	if card.UsesRemaining <= 0 {
		return nil, ErrCardExhausted
	}

	student, err := s.studentRepo.FindByAdmissionNumber(card.SchoolID, admissionNumber)
	if err != nil {
		return nil, ErrRedeemFailed
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	var result *models.StudentResult
	if input.SessionID != nil && input.TermID != nil {
		result, err = s.resultRepo.FindExact(student.ID, card.SchoolID, *input.SessionID, *input.TermID)
	} else {
		result, err = s.resultRepo.FindLatest(student.ID, card.SchoolID)
	}
	if err != nil {
		return nil, ErrRedeemFailed
	}
	if result == nil {
		return nil, ErrResultNotFound
	}

	outcome := repository.ConsumeOutcome{}
	now := time.Now()
	txErr := models.DB.Transaction(func(tx *gorm.DB) error {
		cardRepo := s.cardRepo.WithTx(tx)
		consumed, err := cardRepo.TryConsumeOne(card.ID, now)
		if err != nil {
			return ErrRedeemFailed
		}
		if !consumed.Consumed {
			// Lost a race since the pre-check. Reload to report the real state.
			current, err := cardRepo.GetByID(card.ID)
			if err != nil || current == nil {
				return ErrRedeemFailed
			}
			if !current.IsActive {
				return ErrCardDeactivated
			}
			return ErrCardExhausted
		}
		outcome = consumed

		entry := &models.ScratchCardUsage{
			CardID:                 card.ID,
			SchoolID:               card.SchoolID,
			StudentAdmissionNumber: student.AdmissionNumber,
			SessionID:              &result.SessionID,
			TermID:                 &result.TermID,
			UsedByEmail:            strings.TrimSpace(strings.ToLower(input.Email)),
			UsedByIPAddress:        strings.TrimSpace(input.IPAddress),
			RequestID:              strings.TrimSpace(input.RequestID),
			UsedAt:                 now,
		}
		if err := s.usageRepo.WithTx(tx).Create(entry); err != nil {
			return ErrRedeemFailed
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	usesRemaining := outcome.PriorUsesRemaining - 1
	depleted := usesRemaining <= 0
	if depleted {
		if err := s.queueClient.EnqueueCardDepletedEmail(queue.CardDepletedEmailPayload{CardID: card.ID}); err != nil {
			logger.Warnw("enqueue card depleted email failed", "card_id", card.ID, "error", err)
		}
	}

	refreshed, err := s.cardRepo.GetByID(card.ID)
	if err == nil && refreshed != nil {
		card = refreshed
	}

	return &RedemptionResult{
		Card:          card,
		Student:       student,
		Result:        result,
		UsesRemaining: usesRemaining,
		Depleted:      depleted,
	}, nil
}
