package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrClientDisconnected = fmt.Errorf("client disconnected")
	ErrNoCredential       = fmt.Errorf("no credential presented")
)

// Config tunes a Hub instance.
type Config struct {
	// PersistInterval is the trailing-edge throttle window for code
	// persistence. At most one durable write per interview per window.
	PersistInterval time.Duration
	// ThrottleTTL bounds the per-interview throttle map: entries idle for
	// longer are evicted.
	ThrottleTTL time.Duration
	// AllowSpectators admits authenticated non-participants to interview
	// rooms. When false (the default) admission is enforced.
	AllowSpectators bool
	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int
}

func (c Config) withDefaults() Config {
	if c.PersistInterval <= 0 {
		c.PersistInterval = 2 * time.Second
	}
	if c.ThrottleTTL <= 0 {
		c.ThrottleTTL = 10 * time.Minute
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	return c
}

// Deps are the external collaborators a Hub is wired with. Presence and
// Events are optional; a nil value disables that side effect.
type Deps struct {
	Tokens     TokenVerifier
	Users      UserDirectory
	Interviews InterviewStore
	Friends    FriendDirectory
	Presence   PresenceStore
	Events     EventSink
}

type handlerFunc func(c *Client, data json.RawMessage)

// Hub owns the connection lifecycle: it authenticates sockets via ServeWS,
// registers them in the session registry, routes inbound events to exactly
// one handler each, and tears everything down on disconnect.
type Hub struct {
	cfg  Config
	deps Deps

	sessions *SessionRegistry

	// Registered clients, personal channels and interview rooms. Guarded
	// by mu; handlers run on each connection's read pump, not a central
	// loop, so one slow external call never stalls other connections.
	mu          sync.RWMutex
	clients     map[*Client]bool
	userClients map[string]map[*Client]bool
	rooms       map[string]map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	roomMgr   *RoomManager
	relay     *SignalRelay
	stateSync *StateSync
	presence  *PresenceNotifier

	handlers map[EventType]handlerFunc

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(cfg Config, deps Deps) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		cfg:         cfg.withDefaults(),
		deps:        deps,
		sessions:    NewSessionRegistry(),
		clients:     make(map[*Client]bool),
		userClients: make(map[string]map[*Client]bool),
		rooms:       make(map[string]map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		ctx:         ctx,
		cancel:      cancel,
	}

	h.roomMgr = NewRoomManager(h, deps.Interviews, h.cfg.AllowSpectators)
	h.relay = NewSignalRelay(h)
	h.stateSync = NewStateSync(h, deps.Interviews, h.cfg.PersistInterval, h.cfg.ThrottleTTL)
	h.presence = NewPresenceNotifier(h, deps.Friends, deps.Presence)

	h.handlers = map[EventType]handlerFunc{
		EventInterviewJoin:      typed(h.roomMgr.HandleJoin),
		EventInterviewLeave:     typed(h.roomMgr.HandleLeave),
		EventWebRTCOffer:        typed(h.relay.HandleOffer),
		EventWebRTCAnswer:       typed(h.relay.HandleAnswer),
		EventWebRTCICECandidate: typed(h.relay.HandleICECandidate),
		EventCodeChange:         typed(h.stateSync.HandleCodeChange),
		EventCodeCursor:         typed(h.stateSync.HandleCodeCursor),
		EventCodeLanguageChange: typed(h.stateSync.HandleLanguageChange),
		EventCodeOutput:         typed(h.stateSync.HandleCodeOutput),
		EventWhiteboardDraw:     typed(h.stateSync.HandleWhiteboardDraw),
		EventWhiteboardShapeAdd: typed(h.stateSync.HandleWhiteboardShape),
		EventWhiteboardClear:    typed(h.stateSync.HandleWhiteboardClear),
		EventWhiteboardCursor:   typed(h.stateSync.HandleWhiteboardCursor),
		EventTestMessage:        typed(h.handleTestMessage),
	}

	return h
}

// typed decodes the raw payload into P before invoking the handler, so
// every event is validated against its own struct at the boundary.
func typed[P any](handler func(c *Client, payload *P)) handlerFunc {
	return func(c *Client, data json.RawMessage) {
		var payload P
		if len(data) > 0 {
			if err := json.Unmarshal(data, &payload); err != nil {
				slog.Error("Failed to decode event payload", "clientID", c.id, "error", err)
				c.sendError("Invalid payload")
				return
			}
		}
		handler(c, &payload)
	}
}

// Run processes register/unregister requests until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			slog.Info("Gateway hub shutting down")
			return
		}
	}
}

// Stop cancels the hub context and flushes pending persistence work.
func (h *Hub) Stop() {
	h.cancel()
	h.stateSync.Close()
}

// Sessions exposes the registry for handlers and tests.
func (h *Hub) Sessions() *SessionRegistry {
	return h.sessions
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	if h.userClients[client.userID] == nil {
		h.userClients[client.userID] = make(map[*Client]bool)
	}
	h.userClients[client.userID][client] = true
	h.mu.Unlock()

	first := h.sessions.Add(client.userID, client.id)

	slog.Info("Client registered", "clientID", client.id, "userID", client.userID, "firstConnection", first)

	if first {
		h.presence.UserOnline(client.user)
	}
	h.audit("gateway.connected", map[string]any{"userId": client.userID, "connId": client.id})
}

func (h *Hub) unregisterClient(client *Client) {
	joined := client.Rooms()

	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	if set := h.userClients[client.userID]; set != nil {
		delete(set, client)
		if len(set) == 0 {
			delete(h.userClients, client.userID)
		}
	}
	for _, interviewID := range joined {
		if room := h.rooms[interviewID]; room != nil {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, interviewID)
			}
		}
	}
	h.mu.Unlock()

	client.closeSendChannel()

	last := h.sessions.Remove(client.userID, client.id)

	slog.Info("Client unregistered", "clientID", client.id, "userID", client.userID, "lastConnection", last)

	if last {
		h.presence.UserOffline(client.user)
	}
	h.audit("gateway.disconnected", map[string]any{"userId": client.userID, "connId": client.id})
}

// dispatch routes one inbound event to exactly one handler. Handler
// panics are caught here; a failing handler never crashes the connection.
func (h *Hub) dispatch(c *Client, env *Envelope) {
	handler, ok := h.handlers[env.Event]
	if !ok {
		slog.Warn("Unknown event", "event", env.Event, "clientID", c.id)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Handler panicked", "event", env.Event, "clientID", c.id, "panic", r)
		}
	}()

	handler(c, env.Data)
}

/** -------------------- room and channel plumbing -------------------- */

func (h *Hub) joinRoom(c *Client, interviewID string) {
	h.mu.Lock()
	if h.rooms[interviewID] == nil {
		h.rooms[interviewID] = make(map[*Client]bool)
	}
	h.rooms[interviewID][c] = true
	h.mu.Unlock()

	c.addRoom(interviewID)
}

func (h *Hub) leaveRoom(c *Client, interviewID string) {
	h.mu.Lock()
	if room := h.rooms[interviewID]; room != nil {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, interviewID)
		}
	}
	h.mu.Unlock()

	c.removeRoom(interviewID)
}

func (h *Hub) roomMembers(interviewID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]*Client, 0, len(h.rooms[interviewID]))
	for c := range h.rooms[interviewID] {
		members = append(members, c)
	}
	return members
}

// broadcastToRoom delivers an event to every connection joined to the
// interview room, optionally excluding one (usually the sender).
func (h *Hub) broadcastToRoom(interviewID string, event EventType, data any, except *Client) {
	for _, member := range h.roomMembers(interviewID) {
		if member == except {
			continue
		}
		if err := member.Send(event, data); err != nil {
			slog.Debug("Room broadcast dropped", "event", event, "clientID", member.id, "error", err)
		}
	}
}

// sendToUser delivers an event to every connection in the user's personal
// channel, regardless of room membership.
func (h *Hub) sendToUser(userID string, event EventType, data any) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.userClients[userID]))
	for c := range h.userClients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.Send(event, data); err != nil {
			slog.Debug("Personal delivery dropped", "event", event, "clientID", c.id, "error", err)
		}
	}
}

func (h *Hub) handleTestMessage(c *Client, payload *TestMessagePayload) {
	h.broadcastToRoom(payload.InterviewID, EventTestMessage, TestMessageBroadcast{
		Message:   payload.Message,
		FromUser:  c.userID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil)
}

// audit publishes a lifecycle event to the configured sink, if any.
func (h *Hub) audit(event string, payload map[string]any) {
	if h.deps.Events == nil {
		return
	}
	sink := h.deps.Events
	bestEffort("audit publish", func() error {
		return sink.Publish(context.Background(), event, payload)
	})
}
