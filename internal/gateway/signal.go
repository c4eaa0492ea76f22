package gateway

import "log/slog"

// SignalRelay forwards WebRTC negotiation messages between two identified
// peers. It holds no state and does no validation beyond "sender is
// authenticated": the media negotiation itself happens peer-to-peer,
// outside this system. Delivery targets the recipient's personal channel,
// never the room.
type SignalRelay struct {
	hub *Hub
}

func NewSignalRelay(hub *Hub) *SignalRelay {
	return &SignalRelay{hub: hub}
}

func (r *SignalRelay) HandleOffer(c *Client, payload *SignalPayload) {
	r.forward(c, EventWebRTCOffer, payload)
}

func (r *SignalRelay) HandleAnswer(c *Client, payload *SignalPayload) {
	r.forward(c, EventWebRTCAnswer, payload)
}

func (r *SignalRelay) HandleICECandidate(c *Client, payload *SignalPayload) {
	r.forward(c, EventWebRTCICECandidate, payload)
}

func (r *SignalRelay) forward(c *Client, event EventType, payload *SignalPayload) {
	if err := payload.validate(); err != nil {
		slog.Debug("Dropping signal without target", "event", event, "clientID", c.id)
		return
	}

	r.hub.sendToUser(payload.TargetUserID, event, SignalRelayPayload{
		Offer:        payload.Offer,
		Answer:       payload.Answer,
		Candidate:    payload.Candidate,
		FromUserID:   c.userID,
		TargetUserID: payload.TargetUserID,
	})
}
