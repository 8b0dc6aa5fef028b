package mailer

import (
	"context"

	"github.com/google/uuid"

	"github.com/diagnosis/pilgrim-quotes/pkg/logger"
)

// DevMailer writes messages to the log instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(ctx context.Context, toEmail, toName, subject, text, _ string) (string, error) {
	if toEmail == "" {
		return "", ErrNoRecipient
	}
	id := "dev-" + uuid.NewString()
	logger.InfoContext(ctx, "[DEV MAIL] "+subject,
		"message_id", id,
		"to", toEmail,
		"name", toName,
		"text", text,
	)
	return id, nil
}
