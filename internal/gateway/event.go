package gateway

import (
	"encoding/json"
	"fmt"

	"interview-service/internal/models"
)

// EventType identifies a gateway message using a custom enum type for
// better type safety. Names are shared with the frontend verbatim.
type EventType string

const (
	// Inbound: room membership
	EventInterviewJoin  EventType = "interview:join"
	EventInterviewLeave EventType = "interview:leave"

	// Inbound: WebRTC signaling (point-to-point relay)
	EventWebRTCOffer        EventType = "webrtc:offer"
	EventWebRTCAnswer       EventType = "webrtc:answer"
	EventWebRTCICECandidate EventType = "webrtc:ice-candidate"

	// Inbound: code editor sync
	EventCodeChange         EventType = "code:change"
	EventCodeCursor         EventType = "code:cursor"
	EventCodeLanguageChange EventType = "code:language-change"
	EventCodeOutput         EventType = "code:output"

	// Inbound: whiteboard sync
	EventWhiteboardDraw     EventType = "whiteboard:draw"
	EventWhiteboardShapeAdd EventType = "whiteboard:shape-add"
	EventWhiteboardClear    EventType = "whiteboard:clear"
	EventWhiteboardCursor   EventType = "whiteboard:cursor"

	// Inbound: diagnostics
	EventTestMessage EventType = "test:message"

	// Outbound only
	EventInterviewJoined    EventType = "interview:joined"
	EventInterviewInitState EventType = "interview:init-state"
	EventInterviewUserJoin  EventType = "interview:user-joined"
	EventInterviewUserLeft  EventType = "interview:user-left"
	EventFriendOnline       EventType = "friend:online"
	EventFriendOffline      EventType = "friend:offline"
	EventError              EventType = "error"
)

func (e EventType) String() string {
	return string(e)
}

// Envelope is the wire frame for both directions: an event name plus a
// payload decoded per event at the dispatch boundary.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// outbound is marshaled once per send; Data is the typed payload struct.
type outbound struct {
	Event EventType `json:"event"`
	Data  any       `json:"data"`
}

/** -------------------- inbound payloads -------------------- */

type JoinPayload struct {
	InterviewID string `json:"interviewId"`
}

func (p *JoinPayload) validate() error {
	if p.InterviewID == "" {
		return fmt.Errorf("interviewId is required")
	}
	return nil
}

type LeavePayload struct {
	InterviewID string `json:"interviewId"`
}

// SignalPayload carries one side of a WebRTC negotiation. Payload is opaque
// to the gateway; it is relayed as-is to the target user.
type SignalPayload struct {
	InterviewID  string          `json:"interviewId"`
	Offer        json.RawMessage `json:"offer,omitempty"`
	Answer       json.RawMessage `json:"answer,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
	TargetUserID string          `json:"targetUserId"`
}

func (p *SignalPayload) validate() error {
	if p.TargetUserID == "" {
		return fmt.Errorf("targetUserId is required")
	}
	return nil
}

type CodeChangePayload struct {
	InterviewID string          `json:"interviewId"`
	Changes     json.RawMessage `json:"changes"`
	// Code is the full buffer after the change. Persistence only happens
	// when the sender includes it; a pure delta cannot be reconstructed
	// server-side.
	Code   string `json:"code,omitempty"`
	UserID string `json:"userId,omitempty"`
}

type CodeCursorPayload struct {
	InterviewID string          `json:"interviewId"`
	Cursor      json.RawMessage `json:"cursor"`
}

type LanguageChangePayload struct {
	InterviewID string          `json:"interviewId"`
	Language    json.RawMessage `json:"language"`
	NewCode     string          `json:"newCode,omitempty"`
}

type CodeOutputPayload struct {
	InterviewID     string  `json:"interviewId"`
	Output          *string `json:"output"`
	Error           *string `json:"error"`
	IsRunning       bool    `json:"isRunning"`
	ExecutionTime   *string `json:"executionTime"`
	ExecutionMemory *int64  `json:"executionMemory"`
}

type WhiteboardDrawPayload struct {
	InterviewID string          `json:"interviewId"`
	Drawing     json.RawMessage `json:"drawing"`
	UserID      string          `json:"userId,omitempty"`
}

type WhiteboardShapePayload struct {
	InterviewID string          `json:"interviewId"`
	Object      json.RawMessage `json:"object"`
	UserID      string          `json:"userId,omitempty"`
}

type WhiteboardClearPayload struct {
	InterviewID string `json:"interviewId"`
	UserID      string `json:"userId,omitempty"`
}

type WhiteboardCursorPayload struct {
	InterviewID string          `json:"interviewId"`
	Cursor      json.RawMessage `json:"cursor"`
	UserID      string          `json:"userId,omitempty"`
	User        json.RawMessage `json:"user,omitempty"`
}

type TestMessagePayload struct {
	InterviewID string `json:"interviewId"`
	Message     string `json:"message"`
}

/** -------------------- outbound payloads -------------------- */

type InitStatePayload struct {
	Code       string            `json:"code"`
	Whiteboard []json.RawMessage `json:"whiteboard"`
}

type JoinedPayload struct {
	InterviewID string `json:"interviewId"`
}

type UserJoinedPayload struct {
	UserID string              `json:"userId"`
	User   *models.UserSummary `json:"user"`
}

type UserLeftPayload struct {
	UserID string `json:"userId"`
}

type SignalRelayPayload struct {
	Offer        json.RawMessage `json:"offer,omitempty"`
	Answer       json.RawMessage `json:"answer,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
	FromUserID   string          `json:"fromUserId"`
	TargetUserID string          `json:"targetUserId"`
}

type CodeChangeBroadcast struct {
	Changes json.RawMessage     `json:"changes"`
	UserID  string              `json:"userId"`
	User    *models.UserSummary `json:"user"`
}

type CursorBroadcast struct {
	Cursor json.RawMessage     `json:"cursor"`
	UserID string              `json:"userId"`
	User   *models.UserSummary `json:"user"`
}

type LanguageChangeBroadcast struct {
	Language json.RawMessage     `json:"language"`
	NewCode  string              `json:"newCode,omitempty"`
	UserID   string              `json:"userId"`
	User     *models.UserSummary `json:"user"`
}

type CodeOutputBroadcast struct {
	Output          *string             `json:"output"`
	Error           *string             `json:"error"`
	IsRunning       bool                `json:"isRunning"`
	ExecutionTime   *string             `json:"executionTime"`
	ExecutionMemory *int64              `json:"executionMemory"`
	UserID          string              `json:"userId"`
	User            *models.UserSummary `json:"user"`
}

type WhiteboardDrawBroadcast struct {
	Drawing json.RawMessage     `json:"drawing"`
	UserID  string              `json:"userId"`
	User    *models.UserSummary `json:"user"`
}

type WhiteboardShapeBroadcast struct {
	Object json.RawMessage `json:"object"`
	UserID string          `json:"userId"`
}

type WhiteboardClearBroadcast struct {
	UserID string              `json:"userId"`
	User   *models.UserSummary `json:"user"`
}

type WhiteboardCursorBroadcast struct {
	Cursor json.RawMessage `json:"cursor"`
	UserID string          `json:"userId"`
	User   json.RawMessage `json:"user,omitempty"`
}

type TestMessageBroadcast struct {
	Message   string `json:"message"`
	FromUser  string `json:"fromUser"`
	Timestamp string `json:"timestamp"`
}

type FriendStatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
