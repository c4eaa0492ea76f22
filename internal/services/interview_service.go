package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"interview-service/internal/models"
	"interview-service/internal/repository"
)

var (
	ErrInterviewNotFound = errors.New("interview not found")
	ErrNotAParticipant   = errors.New("user is not a participant of this interview")
	ErrInterviewerOnly   = errors.New("only interviewers can perform this action")
	ErrInterviewFinished = errors.New("interview already finished")
)

// Archiver stores the final collaborative document of an ended interview.
// Optional: a nil archiver skips archival.
type Archiver interface {
	ArchiveInterview(ctx context.Context, interview *models.Interview) (string, error)
}

type InterviewService struct {
	repo     *repository.InterviewRepository
	users    *repository.UserRepository
	archiver Archiver
	events   EventPublisher
	mailer   Mailer
}

// EventPublisher mirrors the gateway's audit sink for service-level events.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

func NewInterviewService(repo *repository.InterviewRepository, users *repository.UserRepository, archiver Archiver, events EventPublisher, mailer Mailer) *InterviewService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &InterviewService{repo: repo, users: users, archiver: archiver, events: events, mailer: mailer}
}

// Create schedules a new interview. Only interviewers create interviews;
// every id in ParticipantIDs becomes a candidate paired with the creator.
func (s *InterviewService) Create(ctx context.Context, creatorID string, req *models.CreateInterviewRequest) (*models.InterviewResponse, error) {
	creator, err := s.users.FindByID(ctx, creatorID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if creator.Role != models.RoleInterviewer {
		return nil, ErrInterviewerOnly
	}

	interview := models.Interview{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.InterviewScheduled,
		ScheduledAt: req.ScheduledAt,
	}
	if req.StartNow {
		now := time.Now()
		interview.Status = models.InterviewActive
		interview.StartedAt = &now
	}

	candidates := make([]*models.User, 0, len(req.ParticipantIDs))
	for _, candidateID := range req.ParticipantIDs {
		candidate, err := s.users.FindByID(ctx, candidateID)
		if err != nil {
			return nil, fmt.Errorf("participant %s: %w", candidateID, ErrUserNotFound)
		}
		candidates = append(candidates, candidate)
		interview.Participants = append(interview.Participants, models.InterviewParticipant{
			InterviewerID: creatorID,
			CandidateID:   candidateID,
		})
	}

	if err := s.repo.Create(ctx, &interview); err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}

	for _, candidate := range candidates {
		if err := s.mailer.SendInvitation(ctx, candidate, &interview); err != nil {
			slog.Warn("Failed to send invitation", "to", candidate.Email, "interviewID", interview.ID, "error", err)
		}
	}

	s.publish(ctx, "interview.created", map[string]any{
		"interviewId": interview.ID,
		"creatorId":   creatorID,
	})

	// Reload with participant users for the response.
	created, err := s.repo.FindByID(ctx, interview.ID)
	if err != nil {
		return nil, err
	}
	resp := created.ToResponse()
	return &resp, nil
}

func (s *InterviewService) ListForUser(ctx context.Context, userID string) ([]models.InterviewResponse, error) {
	interviews, err := s.repo.FindForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	results := make([]models.InterviewResponse, 0, len(interviews))
	for i := range interviews {
		results = append(results, interviews[i].ToResponse())
	}
	return results, nil
}

// Get returns an interview to one of its participants.
func (s *InterviewService) Get(ctx context.Context, interviewID, userID string) (*models.Interview, error) {
	interview, err := s.repo.FindByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			return nil, ErrInterviewNotFound
		}
		return nil, err
	}
	if !interview.IsParticipant(userID) {
		return nil, ErrNotAParticipant
	}
	return interview, nil
}

// Start moves a scheduled interview to active. Only the interviewer side
// starts it.
func (s *InterviewService) Start(ctx context.Context, interviewID, userID string) (*models.InterviewResponse, error) {
	interview, err := s.Get(ctx, interviewID, userID)
	if err != nil {
		return nil, err
	}
	if !s.isInterviewerOf(interview, userID) {
		return nil, ErrInterviewerOnly
	}
	if interview.Status == models.InterviewCompleted || interview.Status == models.InterviewCancelled {
		return nil, ErrInterviewFinished
	}

	now := time.Now()
	interview.Status = models.InterviewActive
	if interview.StartedAt == nil {
		interview.StartedAt = &now
	}
	if err := s.repo.Save(ctx, interview); err != nil {
		return nil, fmt.Errorf("failed to start interview: %w", err)
	}

	s.publish(ctx, "interview.started", map[string]any{"interviewId": interview.ID})

	resp := interview.ToResponse()
	return &resp, nil
}

// End completes an active interview and archives its final code and
// whiteboard state. Archival failure is logged, not returned: the
// interview still ends.
func (s *InterviewService) End(ctx context.Context, interviewID, userID string) (*models.InterviewResponse, error) {
	interview, err := s.Get(ctx, interviewID, userID)
	if err != nil {
		return nil, err
	}
	if !s.isInterviewerOf(interview, userID) {
		return nil, ErrInterviewerOnly
	}
	if interview.Status == models.InterviewCompleted || interview.Status == models.InterviewCancelled {
		return nil, ErrInterviewFinished
	}

	now := time.Now()
	interview.Status = models.InterviewCompleted
	interview.EndedAt = &now
	if err := s.repo.Save(ctx, interview); err != nil {
		return nil, fmt.Errorf("failed to end interview: %w", err)
	}

	if s.archiver != nil {
		if url, err := s.archiver.ArchiveInterview(ctx, interview); err != nil {
			slog.Error("Failed to archive interview", "interviewID", interview.ID, "error", err)
		} else {
			slog.Info("Interview archived", "interviewID", interview.ID, "url", url)
		}
	}

	s.publish(ctx, "interview.ended", map[string]any{"interviewId": interview.ID})

	resp := interview.ToResponse()
	return &resp, nil
}

// Delete removes a scheduled interview. Only the interviewer side deletes.
func (s *InterviewService) Delete(ctx context.Context, interviewID, userID string) error {
	interview, err := s.Get(ctx, interviewID, userID)
	if err != nil {
		return err
	}
	if !s.isInterviewerOf(interview, userID) {
		return ErrInterviewerOnly
	}
	return s.repo.Delete(ctx, interviewID)
}

func (s *InterviewService) isInterviewerOf(interview *models.Interview, userID string) bool {
	for _, p := range interview.Participants {
		if p.InterviewerID == userID {
			return true
		}
	}
	return false
}

func (s *InterviewService) publish(ctx context.Context, event string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event, payload); err != nil {
		slog.Warn("Failed to publish event", "event", event, "error", err)
	}
}

/** -------------------- gateway store -------------------- */

// Find preloads the participant rows the room manager checks admission
// against.
func (s *InterviewService) Find(ctx context.Context, id string) (*models.Interview, error) {
	interview, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return interview, nil
}

func (s *InterviewService) UpdateState(ctx context.Context, id string, patch models.StatePatch) error {
	return s.repo.UpdateState(ctx, id, patch)
}

func (s *InterviewService) MarkJoined(ctx context.Context, interviewID, userID string) error {
	return s.repo.MarkParticipantJoined(ctx, interviewID, userID, time.Now())
}
