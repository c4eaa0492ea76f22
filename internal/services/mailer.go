package services

import (
	"context"
	"log/slog"

	"interview-service/internal/models"
)

// Mailer delivers interview invitations. Delivery failures never fail the
// calling operation.
type Mailer interface {
	SendInvitation(ctx context.Context, to *models.User, interview *models.Interview) error
}

// LogMailer is the default Mailer: it records the invitation instead of
// delivering it.
type LogMailer struct{}

func (LogMailer) SendInvitation(ctx context.Context, to *models.User, interview *models.Interview) error {
	slog.Info("Interview invitation",
		"to", to.Email,
		"interviewID", interview.ID,
		"title", interview.Title,
		"scheduledAt", interview.ScheduledAt)
	return nil
}
