package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"interview-service/internal/models"

	"gorm.io/gorm"
)

var ErrInterviewNotFound = errors.New("interview not found")

type InterviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) *InterviewRepository {
	return &InterviewRepository{db: db}
}

func (r *InterviewRepository) Create(ctx context.Context, interview *models.Interview) error {
	if err := r.db.WithContext(ctx).Create(interview).Error; err != nil {
		return fmt.Errorf("failed to create interview: %w", err)
	}
	return nil
}

// FindByID loads an interview with its participant rows and the denormalized
// user records on each side.
func (r *InterviewRepository) FindByID(ctx context.Context, id string) (*models.Interview, error) {
	var interview models.Interview
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Preload("Participants.Interviewer").
		Preload("Participants.Candidate").
		Where("id = ?", id).
		First(&interview).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInterviewNotFound
		}
		return nil, err
	}
	return &interview, nil
}

// FindForUser lists interviews where the user appears on either side of a
// participant row, newest first.
func (r *InterviewRepository) FindForUser(ctx context.Context, userID string) ([]models.Interview, error) {
	var interviews []models.Interview
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Preload("Participants.Interviewer").
		Preload("Participants.Candidate").
		Where("id IN (?)", r.db.Model(&models.InterviewParticipant{}).
			Select("interview_id").
			Where("candidate_id = ? OR interviewer_id = ?", userID, userID)).
		Order("created_at DESC").
		Find(&interviews).Error
	return interviews, err
}

func (r *InterviewRepository) Save(ctx context.Context, interview *models.Interview) error {
	return r.db.WithContext(ctx).Save(interview).Error
}

func (r *InterviewRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("interview_id = ?", id).Delete(&models.InterviewParticipant{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Interview{}).Error
	})
}

// UpdateState applies a partial update of the collaborative document state.
// Only the fields set in the patch are written.
func (r *InterviewRepository) UpdateState(ctx context.Context, id string, patch models.StatePatch) error {
	updates := map[string]interface{}{}
	if patch.CodeContent != nil {
		updates["code_content"] = *patch.CodeContent
	}
	if patch.WhiteboardData != nil {
		updates["whiteboard_data"] = []byte(patch.WhiteboardData)
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Interview{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInterviewNotFound
	}
	return nil
}

// MarkParticipantJoined stamps JoinedAt for the user's participant rows the
// first time they enter the room.
func (r *InterviewRepository) MarkParticipantJoined(ctx context.Context, interviewID, userID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.InterviewParticipant{}).
		Where("interview_id = ? AND (candidate_id = ? OR interviewer_id = ?)", interviewID, userID, userID).
		Where("joined_at IS NULL").
		Update("joined_at", at).Error
}

// FindExpiredScheduled returns SCHEDULED interviews whose slot passed more
// than the grace window ago.
func (r *InterviewRepository) FindExpiredScheduled(ctx context.Context, before time.Time) ([]models.Interview, error) {
	var interviews []models.Interview
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", models.InterviewScheduled, before).
		Find(&interviews).Error
	return interviews, err
}

// FindEndedActive returns ACTIVE interviews that already have an end stamp.
func (r *InterviewRepository) FindEndedActive(ctx context.Context) ([]models.Interview, error) {
	var interviews []models.Interview
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("status = ? AND ended_at IS NOT NULL", models.InterviewActive).
		Find(&interviews).Error
	return interviews, err
}

func (r *InterviewRepository) UpdateStatus(ctx context.Context, id string, status models.InterviewStatus) error {
	return r.db.WithContext(ctx).Model(&models.Interview{}).
		Where("id = ?", id).
		Update("status", status).Error
}
