package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InterviewStatus follows the scheduled -> active -> completed lifecycle.
// SCHEDULED interviews nobody joined in time are swept to CANCELLED.
type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "SCHEDULED"
	InterviewActive    InterviewStatus = "ACTIVE"
	InterviewCompleted InterviewStatus = "COMPLETED"
	InterviewCancelled InterviewStatus = "CANCELLED"
)

/** --------------------ENTITIES-------------------- */

// Interview is the durable interview record. CodeContent and WhiteboardData
// are the collaborative document state owned by this record; the gateway
// only touches them through throttled writes.
type Interview struct {
	ID          string          `gorm:"primaryKey;type:uuid" json:"id"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `json:"description"`
	Status      InterviewStatus `gorm:"type:varchar(32);default:'SCHEDULED';index" json:"status"`
	ScheduledAt *time.Time      `json:"scheduledAt"`
	StartedAt   *time.Time      `json:"startedAt"`
	EndedAt     *time.Time      `json:"endedAt"`

	CodeContent    string          `json:"codeContent"`
	CodeLanguage   string          `json:"codeLanguage"`
	WhiteboardData json.RawMessage `gorm:"type:jsonb" json:"whiteboardData"`

	Participants []InterviewParticipant `gorm:"constraint:OnDelete:CASCADE" json:"participants"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (i *Interview) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// InterviewParticipant pairs one interviewer with one candidate for an
// interview. JoinedAt is stamped the first time the participant enters the
// room and drives the status sweeper.
type InterviewParticipant struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	InterviewID   string     `gorm:"type:uuid;index;not null" json:"interviewId"`
	InterviewerID string     `gorm:"type:uuid;index;not null" json:"interviewerId"`
	CandidateID   string     `gorm:"type:uuid;index;not null" json:"candidateId"`
	JoinedAt      *time.Time `json:"joinedAt"`

	Interviewer User `gorm:"foreignKey:InterviewerID;references:ID" json:"interviewer"`
	Candidate   User `gorm:"foreignKey:CandidateID;references:ID" json:"candidate"`
}

func (p *InterviewParticipant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// IsParticipant reports whether userID appears in any participant row,
// either side of the pairing.
func (i *Interview) IsParticipant(userID string) bool {
	for _, p := range i.Participants {
		if p.CandidateID == userID || p.InterviewerID == userID {
			return true
		}
	}
	return false
}

// StatePatch is a partial update of the collaborative document state.
// Nil fields are left untouched.
type StatePatch struct {
	CodeContent    *string
	WhiteboardData json.RawMessage
}

/** -------------------- DTOs -------------------- */

type CreateInterviewRequest struct {
	Title          string     `json:"title" binding:"required,max=200"`
	Description    string     `json:"description" binding:"max=2000"`
	ScheduledAt    *time.Time `json:"scheduledAt"`
	StartNow       bool       `json:"startNow"`
	ParticipantIDs []string   `json:"participantIds" binding:"required,min=1"`
}

type InterviewResponse struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Status       InterviewStatus       `json:"status"`
	ScheduledAt  *time.Time            `json:"scheduledAt"`
	StartedAt    *time.Time            `json:"startedAt"`
	EndedAt      *time.Time            `json:"endedAt"`
	Participants []ParticipantResponse `json:"participants"`
	CreatedAt    time.Time             `json:"createdAt"`
}

type ParticipantResponse struct {
	ID          string      `json:"id"`
	Interviewer UserSummary `json:"interviewer"`
	Candidate   UserSummary `json:"candidate"`
	JoinedAt    *time.Time  `json:"joinedAt"`
}

func (i *Interview) ToResponse() InterviewResponse {
	resp := InterviewResponse{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Status:      i.Status,
		ScheduledAt: i.ScheduledAt,
		StartedAt:   i.StartedAt,
		EndedAt:     i.EndedAt,
		CreatedAt:   i.CreatedAt,
	}
	for _, p := range i.Participants {
		resp.Participants = append(resp.Participants, ParticipantResponse{
			ID:          p.ID,
			Interviewer: *p.Interviewer.Summary(),
			Candidate:   *p.Candidate.Summary(),
			JoinedAt:    p.JoinedAt,
		})
	}
	return resp
}
