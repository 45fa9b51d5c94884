package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/schoolsuite/resultpin/internal/logger"
	"github.com/schoolsuite/resultpin/internal/provider"
	"github.com/schoolsuite/resultpin/internal/queue"
	"github.com/schoolsuite/resultpin/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer asynchronous task consumer
type Consumer struct {
	*provider.Container
}

// NewConsumer creates the consumer
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register registers task handlers
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCardDepletedEmail, c.handleCardDepletedEmail)
}

func (c *Consumer) handleCardDepletedEmail(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_card_depleted_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CardDepletedEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_card_depleted_email_unmarshal_failed", "error", err)
		return err
	}
	if payload.CardID == 0 {
		logger.Debugw("worker_card_depleted_email_skip_invalid_payload", "card_id", payload.CardID)
		return nil
	}
	card, err := c.ScratchCardRepo.GetByID(payload.CardID)
	if err != nil {
		logger.Warnw("worker_card_depleted_email_fetch_card_failed", "card_id", payload.CardID, "error", err)
		return err
	}
	if card == nil {
		logger.Debugw("worker_card_depleted_email_skip_card_not_found", "card_id", payload.CardID)
		return nil
	}
	school, err := c.SchoolRepo.GetByID(card.SchoolID)
	if err != nil {
		logger.Warnw("worker_card_depleted_email_fetch_school_failed", "card_id", card.ID, "school_id", card.SchoolID, "error", err)
		return err
	}
	toEmail, input, ok := service.CardDepletedNotice(card, school)
	if !ok {
		logger.Debugw("worker_card_depleted_email_skip_no_receiver", "card_id", card.ID, "school_id", card.SchoolID)
		return nil
	}
	if c.EmailService == nil {
		logger.Warnw("worker_card_depleted_email_skip_email_service_nil", "card_id", card.ID)
		return nil
	}
	if err := c.EmailService.SendCardDepletedNotice(toEmail, input); err != nil {
		if errors.Is(err, service.ErrEmailDisabled) {
			logger.Debugw("worker_card_depleted_email_skip_disabled", "card_id", card.ID)
			return nil
		}
		logger.Warnw("worker_card_depleted_email_send_failed", "card_id", card.ID, "error", err)
		return err
	}
	logger.Infow("worker_card_depleted_email_sent", "card_id", card.ID, "school_id", card.SchoolID)
	return nil
}
