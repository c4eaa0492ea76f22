package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"interview-service/internal/models"
)

func statePatchCode(code *string) models.StatePatch {
	return models.StatePatch{CodeContent: code}
}

func statePatchBoard(data json.RawMessage) models.StatePatch {
	return models.StatePatch{WhiteboardData: data}
}

// StateSync fans out live code and whiteboard edits to room peers and
// performs lazy, best-effort persistence of the merged state. Broadcast is
// the latency-critical path and never waits on a durable write.
type StateSync struct {
	hub        *Hub
	interviews InterviewStore
	throttles  *throttleStore
	board      *boardWriter
}

func NewStateSync(hub *Hub, interviews InterviewStore, persistEvery, throttleTTL time.Duration) *StateSync {
	return &StateSync{
		hub:        hub,
		interviews: interviews,
		throttles:  newThrottleStore(persistEvery, throttleTTL),
		board:      newBoardWriter(interviews),
	}
}

// Close flushes pending throttled writes and drains the whiteboard queue.
func (s *StateSync) Close() {
	s.throttles.Close()
	s.board.Close()
}

/** -------------------- code editor -------------------- */

// HandleCodeChange rebroadcasts the edit immediately, then schedules a
// throttled write of the full buffer. Persistence needs the full buffer:
// the wire model is last-writer-wins on the whole document, not an
// operational diff, so an event without Code only rides the broadcast.
func (s *StateSync) HandleCodeChange(c *Client, payload *CodeChangePayload) {
	s.hub.broadcastToRoom(payload.InterviewID, EventCodeChange, CodeChangeBroadcast{
		Changes: payload.Changes,
		UserID:  c.userID,
		User:    c.user,
	}, c)

	if payload.Code == "" {
		return
	}

	interviewID := payload.InterviewID
	code := payload.Code
	s.throttles.Get(interviewID).Do(func() {
		patch := code
		err := s.interviews.UpdateState(context.Background(), interviewID, statePatchCode(&patch))
		if err != nil {
			// Swallowed: the next edit's throttle tick overwrites with
			// fresher content anyway.
			slog.Error("Failed to persist code", "interviewID", interviewID, "error", err)
		}
	})
}

// HandleCodeCursor broadcasts to the entire room, sender included, so
// every editor shows the same cursor set.
func (s *StateSync) HandleCodeCursor(c *Client, payload *CodeCursorPayload) {
	s.hub.broadcastToRoom(payload.InterviewID, EventCodeCursor, CursorBroadcast{
		Cursor: payload.Cursor,
		UserID: c.userID,
		User:   c.user,
	}, nil)
}

func (s *StateSync) HandleLanguageChange(c *Client, payload *LanguageChangePayload) {
	s.hub.broadcastToRoom(payload.InterviewID, EventCodeLanguageChange, LanguageChangeBroadcast{
		Language: payload.Language,
		NewCode:  payload.NewCode,
		UserID:   c.userID,
		User:     c.user,
	}, c)
}

// HandleCodeOutput relays execution results from the external judge so
// all participants see the same run output. Broadcast only.
func (s *StateSync) HandleCodeOutput(c *Client, payload *CodeOutputPayload) {
	s.hub.broadcastToRoom(payload.InterviewID, EventCodeOutput, CodeOutputBroadcast{
		Output:          payload.Output,
		Error:           payload.Error,
		IsRunning:       payload.IsRunning,
		ExecutionTime:   payload.ExecutionTime,
		ExecutionMemory: payload.ExecutionMemory,
		UserID:          c.userID,
		User:            c.user,
	}, c)

	s.hub.audit("code.executed", map[string]any{
		"interviewId": payload.InterviewID,
		"userId":      c.userID,
		"isRunning":   payload.IsRunning,
	})
}

/** -------------------- whiteboard -------------------- */

// HandleWhiteboardDraw broadcasts the stroke and enqueues the append for
// the single-writer persistence queue, which serializes read-modify-write
// cycles so concurrent strokes cannot lose updates.
func (s *StateSync) HandleWhiteboardDraw(c *Client, payload *WhiteboardDrawPayload) {
	s.hub.broadcastToRoom(payload.InterviewID, EventWhiteboardDraw, WhiteboardDrawBroadcast{
		Drawing: payload.Drawing,
		UserID:  c.userID,
		User:    c.user,
	}, c)

	s.board.Append(payload.InterviewID, payload.Drawing)
}

// Shapes are an ephemeral overlay: broadcast only, no durable history.
func (s *StateSync) HandleWhiteboardShape(c *Client, payload *WhiteboardShapePayload) {
	s.hub.broadcastToRoom(payload.InterviewID, EventWhiteboardShapeAdd, WhiteboardShapeBroadcast{
		Object: payload.Object,
		UserID: c.userID,
	}, c)
}

// HandleWhiteboardClear is the one fully symmetric message: everyone in
// the room, sender included, gets the clear. The persisted history is
// cleared through the same queue so a later rejoin starts blank too.
func (s *StateSync) HandleWhiteboardClear(c *Client, payload *WhiteboardClearPayload) {
	s.hub.broadcastToRoom(payload.InterviewID, EventWhiteboardClear, WhiteboardClearBroadcast{
		UserID: c.userID,
		User:   c.user,
	}, nil)

	s.board.Clear(payload.InterviewID)
}

func (s *StateSync) HandleWhiteboardCursor(c *Client, payload *WhiteboardCursorPayload) {
	s.hub.broadcastToRoom(payload.InterviewID, EventWhiteboardCursor, WhiteboardCursorBroadcast{
		Cursor: payload.Cursor,
		UserID: c.userID,
		User:   payload.User,
	}, c)
}

/** -------------------- persistence plumbing -------------------- */

type boardOp struct {
	interviewID string
	drawing     json.RawMessage
	clear       bool
}

// boardWriter serializes whiteboard persistence through one worker so the
// fetch-append-save cycle never races with itself. Ops for the same
// interview are applied in emission order.
type boardWriter struct {
	interviews InterviewStore
	ops        chan boardOp
	wg         sync.WaitGroup
	closeOnce  sync.Once
}

func newBoardWriter(interviews InterviewStore) *boardWriter {
	w := &boardWriter{
		interviews: interviews,
		ops:        make(chan boardOp, 256),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

func (w *boardWriter) Append(interviewID string, drawing json.RawMessage) {
	w.enqueue(boardOp{interviewID: interviewID, drawing: drawing})
}

func (w *boardWriter) Clear(interviewID string) {
	w.enqueue(boardOp{interviewID: interviewID, clear: true})
}

func (w *boardWriter) enqueue(op boardOp) {
	select {
	case w.ops <- op:
	default:
		// Persistence is best-effort; a saturated queue drops the op
		// rather than stalling the broadcast path.
		slog.Warn("Whiteboard persistence queue full, dropping op", "interviewID", op.interviewID)
	}
}

func (w *boardWriter) run() {
	defer w.wg.Done()
	for op := range w.ops {
		w.apply(op)
	}
}

func (w *boardWriter) apply(op boardOp) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if op.clear {
		empty := json.RawMessage("[]")
		if err := w.interviews.UpdateState(ctx, op.interviewID, statePatchBoard(empty)); err != nil {
			slog.Error("Failed to clear whiteboard", "interviewID", op.interviewID, "error", err)
		}
		return
	}

	interview, err := w.interviews.Find(ctx, op.interviewID)
	if err != nil {
		slog.Error("Failed to load whiteboard state", "interviewID", op.interviewID, "error", err)
		return
	}

	var lines []json.RawMessage
	if len(interview.WhiteboardData) > 0 {
		if err := json.Unmarshal(interview.WhiteboardData, &lines); err != nil {
			slog.Error("Corrupt whiteboard data, resetting", "interviewID", op.interviewID, "error", err)
			lines = nil
		}
	}
	lines = append(lines, op.drawing)

	merged, err := json.Marshal(lines)
	if err != nil {
		slog.Error("Failed to marshal whiteboard data", "interviewID", op.interviewID, "error", err)
		return
	}
	if err := w.interviews.UpdateState(ctx, op.interviewID, statePatchBoard(merged)); err != nil {
		slog.Error("Failed to persist drawing", "interviewID", op.interviewID, "error", err)
	}
}

// Close drains queued ops, then stops the worker.
func (w *boardWriter) Close() {
	w.closeOnce.Do(func() {
		close(w.ops)
	})
	w.wg.Wait()
}
