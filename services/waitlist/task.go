package waitlist

import (
	"context"
	"encoding/json"
	"fmt"

	"influencer-connect/pkg/taskname"

	"github.com/hibiken/asynq"
)

// WelcomeEmailPayload is the asynq payload for the priority welcome email.
type WelcomeEmailPayload struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
}

// NewWelcomeEmailTask builds the asynq task that sends the welcome email.
func NewWelcomeEmailTask(email, firstName string) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomeEmailPayload{Email: email, FirstName: firstName})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskname.WaitlistWelcomeEmail, payload, asynq.Queue("low")), nil
}

// HandleWelcomeEmail processes a queued welcome email.
func (s *Service) HandleWelcomeEmail(ctx context.Context, t *asynq.Task) error {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal welcome email payload: %w", err)
	}
	return s.SendWelcomeEmail(ctx, payload.Email, payload.FirstName)
}
