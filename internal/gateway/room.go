package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"interview-service/internal/repository"
)

// RoomManager decides which connection may join which interview room and
// what state is delivered on join. Room membership itself lives on the
// hub's broadcast grouping; this is the policy layer.
type RoomManager struct {
	hub             *Hub
	interviews      InterviewStore
	allowSpectators bool
}

func NewRoomManager(hub *Hub, interviews InterviewStore, allowSpectators bool) *RoomManager {
	return &RoomManager{
		hub:             hub,
		interviews:      interviews,
		allowSpectators: allowSpectators,
	}
}

// HandleJoin admits a connection to an interview room:
// fetch the interview, check the requester against its participant rows,
// add to the room grouping, unicast the current document state to the
// joiner, then announce the join to the rest of the room.
func (m *RoomManager) HandleJoin(c *Client, payload *JoinPayload) {
	if err := payload.validate(); err != nil {
		c.sendError(err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, 10*time.Second)
	defer cancel()

	interview, err := m.interviews.Find(ctx, payload.InterviewID)
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			c.Send(EventError, ErrorPayload{Message: "Interview not found"})
			return
		}
		// Transient lookup failures are logged only; the connection stays
		// intact and the client may retry the join.
		slog.Error("Failed to load interview for join", "interviewID", payload.InterviewID, "error", err)
		return
	}

	isParticipant := interview.IsParticipant(c.userID)
	if !isParticipant {
		if !m.allowSpectators {
			slog.Warn("Join denied: not a participant",
				"interviewID", payload.InterviewID, "userID", c.userID)
			c.Send(EventError, ErrorPayload{Message: "Not a participant of this interview"})
			return
		}
		slog.Info("Admitting spectator",
			"interviewID", payload.InterviewID, "userID", c.userID)
	}

	m.hub.joinRoom(c, payload.InterviewID)

	if isParticipant {
		interviews := m.interviews
		interviewID := payload.InterviewID
		userID := c.userID
		bestEffort("mark participant joined", func() error {
			return interviews.MarkJoined(context.Background(), interviewID, userID)
		})
	}

	// Initial document state goes to the joiner only.
	var whiteboard []json.RawMessage
	if len(interview.WhiteboardData) > 0 {
		if err := json.Unmarshal(interview.WhiteboardData, &whiteboard); err != nil {
			slog.Error("Corrupt whiteboard data", "interviewID", payload.InterviewID, "error", err)
		}
	}
	if whiteboard == nil {
		whiteboard = []json.RawMessage{}
	}
	c.Send(EventInterviewInitState, InitStatePayload{
		Code:       interview.CodeContent,
		Whiteboard: whiteboard,
	})

	m.hub.broadcastToRoom(payload.InterviewID, EventInterviewUserJoin, UserJoinedPayload{
		UserID: c.userID,
		User:   c.user,
	}, c)

	c.Send(EventInterviewJoined, JoinedPayload{InterviewID: payload.InterviewID})

	m.hub.audit("room.joined", map[string]any{
		"interviewId": payload.InterviewID,
		"userId":      c.userID,
		"spectator":   !isParticipant,
	})
}

// HandleLeave removes the connection from the room grouping and tells the
// remaining members. Leaving needs no admission check.
func (m *RoomManager) HandleLeave(c *Client, payload *LeavePayload) {
	if payload.InterviewID == "" {
		return
	}

	m.hub.leaveRoom(c, payload.InterviewID)
	m.hub.broadcastToRoom(payload.InterviewID, EventInterviewUserLeft, UserLeftPayload{
		UserID: c.userID,
	}, c)

	m.hub.audit("room.left", map[string]any{
		"interviewId": payload.InterviewID,
		"userId":      c.userID,
	})
}
