package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"interview-service/internal/models"
	"interview-service/internal/repository"
)

// Shared fakes and helpers for the gateway tests. Clients are built
// without a network connection; outbound frames are read straight from
// the send buffer.

type fakeTokens struct {
	subjects map[string]string
}

func (f *fakeTokens) Verify(token string) (string, error) {
	subject, ok := f.subjects[token]
	if !ok {
		return "", fmt.Errorf("bad token")
	}
	return subject, nil
}

type fakeUsers struct {
	users map[string]*models.UserSummary
}

func (f *fakeUsers) FindSummary(ctx context.Context, id string) (*models.UserSummary, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

type fakeInterviews struct {
	mu          sync.Mutex
	interviews  map[string]*models.Interview
	stateWrites int
	lastCode    string
	joined      []string
	findErr     error
}

func newFakeInterviews() *fakeInterviews {
	return &fakeInterviews{interviews: make(map[string]*models.Interview)}
}

func (f *fakeInterviews) add(iv *models.Interview) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interviews[iv.ID] = iv
}

func (f *fakeInterviews) Find(ctx context.Context, id string) (*models.Interview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	iv, ok := f.interviews[id]
	if !ok {
		return nil, repository.ErrInterviewNotFound
	}
	copied := *iv
	copied.WhiteboardData = append(json.RawMessage(nil), iv.WhiteboardData...)
	return &copied, nil
}

func (f *fakeInterviews) UpdateState(ctx context.Context, id string, patch models.StatePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv, ok := f.interviews[id]
	if !ok {
		return repository.ErrInterviewNotFound
	}
	f.stateWrites++
	if patch.CodeContent != nil {
		iv.CodeContent = *patch.CodeContent
		f.lastCode = *patch.CodeContent
	}
	if patch.WhiteboardData != nil {
		iv.WhiteboardData = append(json.RawMessage(nil), patch.WhiteboardData...)
	}
	return nil
}

func (f *fakeInterviews) MarkJoined(ctx context.Context, interviewID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, interviewID+"/"+userID)
	return nil
}

func (f *fakeInterviews) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateWrites
}

func (f *fakeInterviews) code(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interviews[id].CodeContent
}

func (f *fakeInterviews) whiteboard(id string) json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(json.RawMessage(nil), f.interviews[id].WhiteboardData...)
}

func (f *fakeInterviews) joinedMarks() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.joined...)
}

type fakeFriends struct {
	mu  sync.Mutex
	ids map[string][]string
}

func (f *fakeFriends) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[userID], nil
}

type fakePresence struct {
	mu      sync.Mutex
	online  []string
	offline []string
}

func (f *fakePresence) SetOnline(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = append(f.online, userID)
	return nil
}

func (f *fakePresence) SetOffline(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = append(f.offline, userID)
	return nil
}

func (f *fakePresence) onlineCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.online...)
}

func (f *fakePresence) offlineCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.offline...)
}

type testEnv struct {
	hub        *Hub
	interviews *fakeInterviews
	friends    *fakeFriends
	presence   *fakePresence
}

func newTestEnv(cfg Config) *testEnv {
	interviews := newFakeInterviews()
	friends := &fakeFriends{ids: make(map[string][]string)}
	presence := &fakePresence{}

	hub := NewHub(cfg, Deps{
		Tokens:     &fakeTokens{subjects: map[string]string{}},
		Users:      &fakeUsers{users: map[string]*models.UserSummary{}},
		Interviews: interviews,
		Friends:    friends,
		Presence:   presence,
	})

	return &testEnv{hub: hub, interviews: interviews, friends: friends, presence: presence}
}

func (e *testEnv) close() {
	e.hub.Stop()
}

// connect builds a registered client without a network connection.
func (e *testEnv) connect(userID string, role models.UserRole) *Client {
	user := &models.UserSummary{
		ID:        userID,
		Email:     userID + "@example.com",
		FirstName: "Test",
		LastName:  userID,
		Role:      role,
	}
	client := NewClient(e.hub, nil, user)
	e.hub.registerClient(client)
	return client
}

func (e *testEnv) disconnect(client *Client) {
	e.hub.unregisterClient(client)
}

// recvEvent pops frames off the client's send buffer until one matches
// the wanted event, failing the test on timeout.
func recvEvent(t *testing.T, c *Client, event EventType) Envelope {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				t.Fatalf("send channel closed while waiting for %s", event)
			}
			var env Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			if env.Event == event {
				return env
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", event)
		}
	}
}

// drain returns every frame currently buffered for the client.
func drain(c *Client) []Envelope {
	var envs []Envelope
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return envs
			}
			var env Envelope
			if err := json.Unmarshal(raw, &env); err == nil {
				envs = append(envs, env)
			}
		default:
			return envs
		}
	}
}

func hasEvent(envs []Envelope, event EventType) bool {
	for _, env := range envs {
		if env.Event == event {
			return true
		}
	}
	return false
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func testInterview(id string, interviewerID, candidateID string) *models.Interview {
	return &models.Interview{
		ID:     id,
		Title:  "Systems screen",
		Status: models.InterviewActive,
		Participants: []models.InterviewParticipant{{
			ID:            id + "-p1",
			InterviewID:   id,
			InterviewerID: interviewerID,
			CandidateID:   candidateID,
		}},
	}
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
