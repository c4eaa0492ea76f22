package gateway

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"interview-service/internal/models"
)

func newHandshakeEnv() *testEnv {
	env := newTestEnv(Config{})
	env.hub.deps.Tokens = &fakeTokens{subjects: map[string]string{"good-token": "user-1"}}
	env.hub.deps.Users = &fakeUsers{users: map[string]*models.UserSummary{
		"user-1": {ID: "user-1", Email: "u1@example.com", Role: models.RoleJobSeeker},
	}}
	return env
}

func TestServeWSRejectsMissingToken(t *testing.T) {
	env := newHandshakeEnv()
	defer env.close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
	env.hub.ServeWS(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeWSRejectsInvalidToken(t *testing.T) {
	env := newHandshakeEnv()
	defer env.close()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=wrong", nil)
	env.hub.ServeWS(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeWSRejectsUnknownUser(t *testing.T) {
	env := newHandshakeEnv()
	defer env.close()
	env.hub.deps.Tokens = &fakeTokens{subjects: map[string]string{"orphan-token": "deleted-user"}}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=orphan-token", nil)
	env.hub.ServeWS(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServeWSAcceptsAuthorizationHeader(t *testing.T) {
	env := newHandshakeEnv()
	defer env.close()
	go env.hub.Run()

	server := httptest.NewServer(http.HandlerFunc(env.hub.ServeWS))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{"Authorization": []string{"Bearer good-token"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	eventually(t, time.Second, func() bool {
		return env.hub.Sessions().IsOnline("user-1")
	}, "an accepted handshake should register the session")
}

func TestServeWSAcceptsQueryToken(t *testing.T) {
	env := newHandshakeEnv()
	defer env.close()
	go env.hub.Run()

	server := httptest.NewServer(http.HandlerFunc(env.hub.ServeWS))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=good-token"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	eventually(t, time.Second, func() bool {
		return env.hub.Sessions().IsOnline("user-1")
	}, "an accepted handshake should register the session")
}
