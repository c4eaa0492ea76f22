package gateway

import (
	"context"

	"interview-service/internal/models"
)

// The gateway consumes the rest of the application through these narrow
// interfaces. Production implementations live in internal/services and
// internal/repository; tests inject fakes.

// TokenVerifier validates a bearer credential from the handshake and
// returns the authenticated subject (user id).
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}

// UserDirectory resolves a verified subject to a user summary.
type UserDirectory interface {
	FindSummary(ctx context.Context, id string) (*models.UserSummary, error)
}

// InterviewStore is the durable interview record the synchronizer writes
// through. Find must preload participant rows.
type InterviewStore interface {
	Find(ctx context.Context, id string) (*models.Interview, error)
	UpdateState(ctx context.Context, id string, patch models.StatePatch) error
	MarkJoined(ctx context.Context, interviewID, userID string) error
}

// FriendDirectory lists the ids a user's presence transitions fan out to.
type FriendDirectory interface {
	FriendIDs(ctx context.Context, userID string) ([]string, error)
}

// PresenceStore records online status in a shared store. Optional: a nil
// store disables presence persistence without disabling notifications.
type PresenceStore interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

// EventSink receives gateway lifecycle events for audit. Optional.
type EventSink interface {
	Publish(ctx context.Context, event string, payload any) error
}
