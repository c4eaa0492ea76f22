package gateway

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-service/internal/models"
)

func TestPresenceFiresOnTransitionsOnly(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	tab1 := env.connect("seeker-1", models.RoleJobSeeker)
	eventually(t, time.Second, func() bool {
		return len(env.presence.onlineCalls()) == 1
	}, "first connection should record online")

	tab2 := env.connect("seeker-1", models.RoleJobSeeker)
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, env.presence.onlineCalls(), 1, "a second tab is not a new online transition")

	env.disconnect(tab1)
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, env.presence.offlineCalls(), "user still has an open connection")
	assert.True(t, env.hub.Sessions().IsOnline("seeker-1"))

	env.disconnect(tab2)
	eventually(t, time.Second, func() bool {
		return len(env.presence.offlineCalls()) == 1
	}, "closing the last connection should record offline")
	assert.False(t, env.hub.Sessions().IsOnline("seeker-1"))
}

func TestFriendFanOutForJobSeeker(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	friend := env.connect("friend-1", models.RoleJobSeeker)
	drain(friend)
	env.friends.ids["seeker-1"] = []string{"friend-1"}

	seeker := env.connect("seeker-1", models.RoleJobSeeker)

	got := recvEvent(t, friend, EventFriendOnline)
	var status FriendStatusPayload
	require.NoError(t, json.Unmarshal(got.Data, &status))
	assert.Equal(t, "seeker-1", status.UserID)
	assert.Equal(t, "online", status.Status)

	env.disconnect(seeker)
	got = recvEvent(t, friend, EventFriendOffline)
	require.NoError(t, json.Unmarshal(got.Data, &status))
	assert.Equal(t, "offline", status.Status)
}

func TestNoFriendFanOutForInterviewer(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	friend := env.connect("friend-1", models.RoleJobSeeker)
	drain(friend)
	env.friends.ids["interviewer-1"] = []string{"friend-1"}

	env.connect("interviewer-1", models.RoleInterviewer)

	time.Sleep(100 * time.Millisecond)
	assert.False(t, hasEvent(drain(friend), EventFriendOnline),
		"interviewer transitions stay out of the friend graph")
}

func TestDispatchUnknownEventIgnored(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	c := env.connect("seeker-1", models.RoleJobSeeker)
	env.hub.dispatch(c, &Envelope{Event: "interview:unknown", Data: json.RawMessage(`{}`)})

	assert.False(t, hasEvent(drain(c), EventError), "unknown events are dropped, not answered")
}

func TestDispatchMalformedPayload(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	c := env.connect("seeker-1", models.RoleJobSeeker)
	env.hub.dispatch(c, &Envelope{Event: EventInterviewJoin, Data: json.RawMessage(`"not an object"`)})

	got := recvEvent(t, c, EventError)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(got.Data, &payload))
	assert.Equal(t, "Invalid payload", payload.Message)
}

func TestDisconnectLeavesRooms(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	env.interviews.add(testInterview("iv-1", "interviewer-1", "candidate-1"))

	interviewer := env.connect("interviewer-1", models.RoleInterviewer)
	candidate := env.connect("candidate-1", models.RoleJobSeeker)
	env.hub.dispatch(interviewer, &Envelope{Event: EventInterviewJoin, Data: mustMarshal(t, JoinPayload{InterviewID: "iv-1"})})
	env.hub.dispatch(candidate, &Envelope{Event: EventInterviewJoin, Data: mustMarshal(t, JoinPayload{InterviewID: "iv-1"})})

	env.disconnect(candidate)

	members := env.hub.roomMembers("iv-1")
	require.Len(t, members, 1)
	assert.Equal(t, "interviewer-1", members[0].userID)
}

func TestSendAfterDisconnectFails(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	c := env.connect("seeker-1", models.RoleJobSeeker)
	c.close()

	err := c.Send(EventTestMessage, TestMessageBroadcast{Message: "hi"})
	assert.ErrorIs(t, err, ErrClientDisconnected)
}

func TestSendRacingDisconnectDoesNotPanic(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	c := env.connect("seeker-1", models.RoleJobSeeker)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Send(EventTestMessage, TestMessageBroadcast{Message: "hi"})
			}
		}()
	}
	c.closeSendChannel()
	c.close()
	wg.Wait()

	err := c.Send(EventTestMessage, TestMessageBroadcast{Message: "late"})
	assert.ErrorIs(t, err, ErrClientDisconnected)
}

func TestTestMessageRoundTrip(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	env.interviews.add(testInterview("iv-1", "interviewer-1", "candidate-1"))
	interviewer := env.connect("interviewer-1", models.RoleInterviewer)
	candidate := env.connect("candidate-1", models.RoleJobSeeker)
	env.hub.dispatch(interviewer, &Envelope{Event: EventInterviewJoin, Data: mustMarshal(t, JoinPayload{InterviewID: "iv-1"})})
	env.hub.dispatch(candidate, &Envelope{Event: EventInterviewJoin, Data: mustMarshal(t, JoinPayload{InterviewID: "iv-1"})})
	drain(interviewer)
	drain(candidate)

	env.hub.dispatch(candidate, &Envelope{Event: EventTestMessage, Data: mustMarshal(t, TestMessagePayload{
		InterviewID: "iv-1",
		Message:     "ping",
	})})

	got := recvEvent(t, interviewer, EventTestMessage)
	var bc TestMessageBroadcast
	require.NoError(t, json.Unmarshal(got.Data, &bc))
	assert.Equal(t, "ping", bc.Message)
	assert.Equal(t, "candidate-1", bc.FromUser)

	_, err := time.Parse(time.RFC3339, bc.Timestamp)
	assert.NoError(t, err, "timestamp must be RFC3339")
}
