package services

import (
	"context"
	"log/slog"
	"time"

	"interview-service/internal/models"
)

// SweepStore is the slice of the interview repository the sweeper reads and
// writes. Returned interviews must carry their participant rows.
type SweepStore interface {
	FindExpiredScheduled(ctx context.Context, before time.Time) ([]models.Interview, error)
	FindEndedActive(ctx context.Context) ([]models.Interview, error)
	UpdateStatus(ctx context.Context, id string, status models.InterviewStatus) error
}

// StatusSweeper periodically reconciles interview statuses: scheduled
// interviews nobody joined within the grace period are cancelled.
type StatusSweeper struct {
	repo     SweepStore
	interval time.Duration
	grace    time.Duration
}

func NewStatusSweeper(repo SweepStore, interval, grace time.Duration) *StatusSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if grace <= 0 {
		grace = 30 * time.Minute
	}
	return &StatusSweeper{repo: repo, interval: interval, grace: grace}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *StatusSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *StatusSweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.grace)
	expired, err := s.repo.FindExpiredScheduled(ctx, cutoff)
	if err != nil {
		slog.Error("Status sweep failed", "error", err)
		return
	}

	for i := range expired {
		// An interview someone entered is in progress even if it was
		// never formally started.
		if anyoneJoined(&expired[i]) {
			continue
		}
		if err := s.repo.UpdateStatus(ctx, expired[i].ID, models.InterviewCancelled); err != nil {
			slog.Error("Failed to cancel expired interview", "interviewID", expired[i].ID, "error", err)
			continue
		}
		slog.Info("Cancelled expired interview", "interviewID", expired[i].ID)
	}

	// Interviews stamped as ended but never moved off ACTIVE.
	stuck, err := s.repo.FindEndedActive(ctx)
	if err != nil {
		slog.Error("Status sweep failed", "error", err)
		return
	}
	for i := range stuck {
		if !anyoneJoined(&stuck[i]) {
			continue
		}
		if err := s.repo.UpdateStatus(ctx, stuck[i].ID, models.InterviewCompleted); err != nil {
			slog.Error("Failed to complete ended interview", "interviewID", stuck[i].ID, "error", err)
			continue
		}
		slog.Info("Completed ended interview", "interviewID", stuck[i].ID)
	}
}

func anyoneJoined(interview *models.Interview) bool {
	for i := range interview.Participants {
		if interview.Participants[i].JoinedAt != nil {
			return true
		}
	}
	return false
}
