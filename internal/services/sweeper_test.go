package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"interview-service/internal/models"
)

type fakeSweepStore struct {
	scheduled []models.Interview
	ended     []models.Interview
	statuses  map[string]models.InterviewStatus
}

func newFakeSweepStore() *fakeSweepStore {
	return &fakeSweepStore{statuses: map[string]models.InterviewStatus{}}
}

func (f *fakeSweepStore) FindExpiredScheduled(_ context.Context, _ time.Time) ([]models.Interview, error) {
	return f.scheduled, nil
}

func (f *fakeSweepStore) FindEndedActive(_ context.Context) ([]models.Interview, error) {
	return f.ended, nil
}

func (f *fakeSweepStore) UpdateStatus(_ context.Context, id string, status models.InterviewStatus) error {
	f.statuses[id] = status
	return nil
}

func sweeperInterview(id string, status models.InterviewStatus, joined *time.Time) models.Interview {
	past := time.Now().Add(-2 * time.Hour)
	iv := models.Interview{
		ID:          id,
		Title:       "Backend systems screen",
		Status:      status,
		ScheduledAt: &past,
		Participants: []models.InterviewParticipant{
			{ID: id + "-p", InterviewID: id, InterviewerID: "interviewer-1", CandidateID: "candidate-1", JoinedAt: joined},
		},
	}
	if status == models.InterviewActive {
		iv.EndedAt = &past
	}
	return iv
}

func TestSweepCancelsExpiredNobodyJoined(t *testing.T) {
	store := newFakeSweepStore()
	store.scheduled = []models.Interview{sweeperInterview("iv-1", models.InterviewScheduled, nil)}

	NewStatusSweeper(store, time.Minute, 30*time.Minute).sweep(context.Background())

	assert.Equal(t, models.InterviewCancelled, store.statuses["iv-1"])
}

func TestSweepSparesScheduledWithJoinedParticipant(t *testing.T) {
	joined := time.Now().Add(-time.Hour)
	store := newFakeSweepStore()
	store.scheduled = []models.Interview{sweeperInterview("iv-1", models.InterviewScheduled, &joined)}

	NewStatusSweeper(store, time.Minute, 30*time.Minute).sweep(context.Background())

	_, touched := store.statuses["iv-1"]
	assert.False(t, touched, "an interview a participant joined must not be cancelled")
}

func TestSweepCompletesEndedActiveWithJoiner(t *testing.T) {
	joined := time.Now().Add(-time.Hour)
	store := newFakeSweepStore()
	store.ended = []models.Interview{sweeperInterview("iv-1", models.InterviewActive, &joined)}

	NewStatusSweeper(store, time.Minute, 30*time.Minute).sweep(context.Background())

	assert.Equal(t, models.InterviewCompleted, store.statuses["iv-1"])
}

func TestSweepLeavesEndedActiveNobodyJoined(t *testing.T) {
	store := newFakeSweepStore()
	store.ended = []models.Interview{sweeperInterview("iv-1", models.InterviewActive, nil)}

	NewStatusSweeper(store, time.Minute, 30*time.Minute).sweep(context.Background())

	_, touched := store.statuses["iv-1"]
	assert.False(t, touched)
}
