package notify

import (
	"context"
	"log/slog"

	"github.com/msomdec/approval-gate/internal/domain"
)

// LogNotifier writes approval requests to the log instead of sending mail.
// It is meant for local development where no SMTP server is configured.
type LogNotifier struct {
	to string
}

var _ domain.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(to string) *LogNotifier {
	return &LogNotifier{to: to}
}

func (n *LogNotifier) NotifyRegistration(ctx context.Context, reg domain.Registration) error {
	slog.InfoContext(ctx, "approval request (mail disabled)",
		"to", n.to,
		"username", reg.Username,
		"email", reg.Email,
		"phone_number", reg.PhoneNumber,
	)
	return nil
}
