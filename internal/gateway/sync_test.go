package gateway

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-service/internal/models"
)

func joinBoth(t *testing.T, env *testEnv, interviewID string) (interviewer, candidate *Client) {
	t.Helper()
	interviewer = env.connect("interviewer-1", models.RoleInterviewer)
	candidate = env.connect("candidate-1", models.RoleJobSeeker)
	env.hub.dispatch(interviewer, &Envelope{Event: EventInterviewJoin, Data: mustMarshal(t, JoinPayload{InterviewID: interviewID})})
	env.hub.dispatch(candidate, &Envelope{Event: EventInterviewJoin, Data: mustMarshal(t, JoinPayload{InterviewID: interviewID})})
	drain(interviewer)
	drain(candidate)
	return interviewer, candidate
}

func TestCodeChangeBroadcastExcludesSender(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()
	env.interviews.add(testInterview("iv-1", "interviewer-1", "candidate-1"))
	interviewer, candidate := joinBoth(t, env, "iv-1")

	env.hub.dispatch(candidate, &Envelope{Event: EventCodeChange, Data: mustMarshal(t, CodeChangePayload{
		InterviewID: "iv-1",
		Changes:     json.RawMessage(`[{"rangeLength":0,"text":"x"}]`),
	})})

	got := recvEvent(t, interviewer, EventCodeChange)
	var bc CodeChangeBroadcast
	require.NoError(t, json.Unmarshal(got.Data, &bc))
	assert.Equal(t, "candidate-1", bc.UserID)
	require.NotNil(t, bc.User)

	assert.False(t, hasEvent(drain(candidate), EventCodeChange),
		"the editing client must not receive an echo")
}

func TestCodeChangePersistsThrottled(t *testing.T) {
	env := newTestEnv(Config{PersistInterval: 50 * time.Millisecond})
	defer env.close()
	env.interviews.add(testInterview("iv-1", "interviewer-1", "candidate-1"))
	_, candidate := joinBoth(t, env, "iv-1")

	for i := 0; i < 50; i++ {
		env.hub.dispatch(candidate, &Envelope{Event: EventCodeChange, Data: mustMarshal(t, CodeChangePayload{
			InterviewID: "iv-1",
			Changes:     json.RawMessage(`[]`),
			Code:        fmt.Sprintf("buffer rev %d", i),
		})})
	}

	eventually(t, 2*time.Second, func() bool {
		return env.interviews.writes() == 1
	}, "a burst within the window must collapse to exactly one write")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, env.interviews.writes(), "no trailing writes after the window")
	assert.Equal(t, "buffer rev 49", env.interviews.code("iv-1"), "the last buffer wins")
}

func TestCodeChangeWithoutBufferNotPersisted(t *testing.T) {
	env := newTestEnv(Config{PersistInterval: 20 * time.Millisecond})
	defer env.close()
	env.interviews.add(testInterview("iv-1", "interviewer-1", "candidate-1"))
	_, candidate := joinBoth(t, env, "iv-1")

	env.hub.dispatch(candidate, &Envelope{Event: EventCodeChange, Data: mustMarshal(t, CodeChangePayload{
		InterviewID: "iv-1",
		Changes:     json.RawMessage(`[{"text":"y"}]`),
	})})

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, env.interviews.writes(), "a delta without the full buffer is broadcast only")
}

func TestCodeCursorIncludesSender(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()
	env.interviews.add(testInterview("iv-1", "interviewer-1", "candidate-1"))
	interviewer, candidate := joinBoth(t, env, "iv-1")

	env.hub.dispatch(candidate, &Envelope{Event: EventCodeCursor, Data: mustMarshal(t, CodeCursorPayload{
		InterviewID: "iv-1",
		Cursor:      json.RawMessage(`{"line":7,"column":2}`),
	})})

	recvEvent(t, interviewer, EventCodeCursor)
	recvEvent(t, candidate, EventCodeCursor)
}

func TestLanguageChangeExcludesSender(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()
	env.interviews.add(testInterview("iv-1", "interviewer-1", "candidate-1"))
	interviewer, candidate := joinBoth(t, env, "iv-1")

	env.hub.dispatch(candidate, &Envelope{Event: EventCodeLanguageChange, Data: mustMarshal(t, LanguageChangePayload{
		InterviewID: "iv-1",
		Language:    json.RawMessage(`"python"`),
		NewCode:     "print('hi')",
	})})

	got := recvEvent(t, interviewer, EventCodeLanguageChange)
	var bc LanguageChangeBroadcast
	require.NoError(t, json.Unmarshal(got.Data, &bc))
	assert.Equal(t, "print('hi')", bc.NewCode)
	assert.False(t, hasEvent(drain(candidate), EventCodeLanguageChange))
}

func TestCodeOutputRelayedWithNullFields(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()
	env.interviews.add(testInterview("iv-1", "interviewer-1", "candidate-1"))
	interviewer, candidate := joinBoth(t, env, "iv-1")

	// Running state: output and error are both null.
	env.hub.dispatch(candidate, &Envelope{Event: EventCodeOutput, Data: mustMarshal(t, CodeOutputPayload{
		InterviewID: "iv-1",
		IsRunning:   true,
	})})

	got := recvEvent(t, interviewer, EventCodeOutput)
	var bc CodeOutputBroadcast
	require.NoError(t, json.Unmarshal(got.Data, &bc))
	assert.True(t, bc.IsRunning)
	assert.Nil(t, bc.Output)
	assert.Nil(t, bc.Error)
}

func TestWhiteboardDrawAppendsInOrder(t *testing.T) {
	env := newTestEnv(Config{})
	env.interviews.add(testInterview("iv-1", "interviewer-1", "candidate-1"))
	_, candidate := joinBoth(t, env, "iv-1")

	for i := 0; i < 5; i++ {
		env.hub.dispatch(candidate, &Envelope{Event: EventWhiteboardDraw, Data: mustMarshal(t, WhiteboardDrawPayload{
			InterviewID: "iv-1",
			Drawing:     json.RawMessage(fmt.Sprintf(`{"stroke":%d}`, i)),
		})})
	}

	// Close drains the persistence queue.
	env.close()

	var lines []struct {
		Stroke int `json:"stroke"`
	}
	require.NoError(t, json.Unmarshal(env.interviews.whiteboard("iv-1"), &lines))
	require.Len(t, lines, 5)
	for i, line := range lines {
		assert.Equal(t, i, line.Stroke, "strokes must persist in emission order")
	}
}

func TestWhiteboardClearIsSymmetricAndPersisted(t *testing.T) {
	env := newTestEnv(Config{})
	iv := testInterview("iv-1", "interviewer-1", "candidate-1")
	iv.WhiteboardData = json.RawMessage(`[{"stroke":0}]`)
	env.interviews.add(iv)
	interviewer, candidate := joinBoth(t, env, "iv-1")

	env.hub.dispatch(candidate, &Envelope{Event: EventWhiteboardClear, Data: mustMarshal(t, WhiteboardClearPayload{
		InterviewID: "iv-1",
	})})

	// Clear goes to everyone, sender included.
	recvEvent(t, interviewer, EventWhiteboardClear)
	recvEvent(t, candidate, EventWhiteboardClear)

	env.close()
	assert.JSONEq(t, `[]`, string(env.interviews.whiteboard("iv-1")), "the persisted history is cleared too")
}

func TestWhiteboardShapeBroadcastOnly(t *testing.T) {
	env := newTestEnv(Config{})
	env.interviews.add(testInterview("iv-1", "interviewer-1", "candidate-1"))
	interviewer, candidate := joinBoth(t, env, "iv-1")

	env.hub.dispatch(candidate, &Envelope{Event: EventWhiteboardShapeAdd, Data: mustMarshal(t, WhiteboardShapePayload{
		InterviewID: "iv-1",
		Object:      json.RawMessage(`{"kind":"rect"}`),
	})})

	recvEvent(t, interviewer, EventWhiteboardShapeAdd)

	env.close()
	assert.Empty(t, env.interviews.whiteboard("iv-1"), "shapes leave no durable history")
}
