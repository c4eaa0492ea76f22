package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-service/internal/models"
)

func TestSignalOfferDeliveredPointToPoint(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	env.interviews.add(testInterview("iv-1", "interviewer-1", "candidate-1"))

	interviewer := env.connect("interviewer-1", models.RoleInterviewer)
	candidate := env.connect("candidate-1", models.RoleJobSeeker)
	bystander := env.connect("outsider-1", models.RoleJobSeeker)

	env.hub.dispatch(interviewer, &Envelope{Event: EventInterviewJoin, Data: mustMarshal(t, JoinPayload{InterviewID: "iv-1"})})
	env.hub.dispatch(candidate, &Envelope{Event: EventInterviewJoin, Data: mustMarshal(t, JoinPayload{InterviewID: "iv-1"})})
	drain(interviewer)
	drain(candidate)

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	env.hub.dispatch(interviewer, &Envelope{Event: EventWebRTCOffer, Data: mustMarshal(t, SignalPayload{
		InterviewID:  "iv-1",
		Offer:        offer,
		TargetUserID: "candidate-1",
	})})

	got := recvEvent(t, candidate, EventWebRTCOffer)
	var relayed SignalRelayPayload
	require.NoError(t, json.Unmarshal(got.Data, &relayed))
	assert.Equal(t, "interviewer-1", relayed.FromUserID)
	assert.JSONEq(t, string(offer), string(relayed.Offer))

	// Point-to-point: neither the sender nor anyone else sees the offer.
	assert.False(t, hasEvent(drain(interviewer), EventWebRTCOffer))
	assert.False(t, hasEvent(drain(bystander), EventWebRTCOffer))
}

func TestSignalReachesEveryTargetConnection(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	sender := env.connect("interviewer-1", models.RoleInterviewer)
	tab1 := env.connect("candidate-1", models.RoleJobSeeker)
	tab2 := env.connect("candidate-1", models.RoleJobSeeker)

	env.hub.dispatch(sender, &Envelope{Event: EventWebRTCAnswer, Data: mustMarshal(t, SignalPayload{
		Answer:       json.RawMessage(`{"type":"answer"}`),
		TargetUserID: "candidate-1",
	})})

	recvEvent(t, tab1, EventWebRTCAnswer)
	recvEvent(t, tab2, EventWebRTCAnswer)
}

func TestSignalWithoutTargetDropped(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	sender := env.connect("interviewer-1", models.RoleInterviewer)
	other := env.connect("candidate-1", models.RoleJobSeeker)

	env.hub.dispatch(sender, &Envelope{Event: EventWebRTCICECandidate, Data: mustMarshal(t, SignalPayload{
		Candidate: json.RawMessage(`{"candidate":"a"}`),
	})})

	assert.False(t, hasEvent(drain(other), EventWebRTCICECandidate))
	assert.False(t, hasEvent(drain(sender), EventError),
		"a malformed signal is dropped silently, not answered with an error")
}

func TestSignalToOfflineTargetIsNoOp(t *testing.T) {
	env := newTestEnv(Config{})
	defer env.close()

	sender := env.connect("interviewer-1", models.RoleInterviewer)

	env.hub.dispatch(sender, &Envelope{Event: EventWebRTCOffer, Data: mustMarshal(t, SignalPayload{
		Offer:        json.RawMessage(`{"type":"offer"}`),
		TargetUserID: "nobody-home",
	})})

	assert.False(t, hasEvent(drain(sender), EventError))
}
