package queue

import (
	"encoding/json"

	"github.com/schoolsuite/resultpin/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCardDepletedEmail depletion notice task
	TaskCardDepletedEmail = constants.TaskCardDepletedEmail
)

// CardDepletedEmailPayload depletion notice payload
type CardDepletedEmailPayload struct {
	CardID uint `json:"card_id"`
}

// NewCardDepletedEmailTask creates a depletion notice task
func NewCardDepletedEmailTask(payload CardDepletedEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCardDepletedEmail, body), nil
}
