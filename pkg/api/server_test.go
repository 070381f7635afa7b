package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallchat/smallchat-node/pkg/network"
	"github.com/smallchat/smallchat-node/pkg/storage"
)

type fakeSession struct {
	mu    sync.Mutex
	calls []string
	peers []network.PeerInfo
}

func (f *fakeSession) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSession) Self() network.PeerInfo {
	return network.PeerInfo{
		Addr:     netip.MustParseAddr("127.0.0.1"),
		Port:     4412,
		Nickname: "alice",
		ChatID:   "room",
	}
}

func (f *fakeSession) Peers() []network.PeerInfo { return f.peers }
func (f *fakeSession) Hello()                     { f.record("hello") }
func (f *fakeSession) HelloTo(addr netip.Addr)    { f.record("hello " + addr.String()) }
func (f *fakeSession) Send(text string)           { f.record("send " + text) }
func (f *fakeSession) SendTo(addr netip.Addr, text string) {
	f.record("sendto " + addr.String() + " " + text)
}
func (f *fakeSession) BroadcastSend(text string) { f.record("broadcast " + text) }

func newTestServer(t *testing.T, withHistory bool) (*Server, *fakeSession, *storage.HistoryDB) {
	t.Helper()

	session := &fakeSession{
		peers: []network.PeerInfo{
			{Addr: netip.MustParseAddr("10.0.0.2"), Port: 4412, Nickname: "bob", ChatID: "room"},
		},
	}

	var (
		history  *storage.HistoryDB
		recorder *storage.Recorder
	)
	if withHistory {
		var err error
		history, err = storage.NewHistoryDB(filepath.Join(t.TempDir(), "history.db"), "pass")
		require.NoError(t, err)
		t.Cleanup(func() { history.Close() })

		clk := clock.NewMock()
		clk.Set(time.Unix(1000, 0))
		recorder = storage.NewRecorder(history, clk)
	}

	server := NewServer(session, history, recorder, DefaultConfig())
	t.Cleanup(func() { server.Stop() })
	return server, session, history
}

func doRequest(server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	server, _, _ := newTestServer(t, false)

	w := doRequest(server, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.EqualValues(t, 1, response["peers"])
}

func TestSessionAndPeers(t *testing.T) {
	server, _, _ := newTestServer(t, false)

	t.Run("Session", func(t *testing.T) {
		w := doRequest(server, "GET", "/api/v1/session", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Success bool        `json:"success"`
			Data    SessionView `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Success)
		assert.Equal(t, "alice", response.Data.Nickname)
		assert.Equal(t, "room", response.Data.ChatID)
		assert.Equal(t, 1, response.Data.PeerCount)
		assert.False(t, response.Data.History)
	})

	t.Run("Peers", func(t *testing.T) {
		w := doRequest(server, "GET", "/api/v1/peers", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data []PeerView `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, "bob", response.Data[0].Nickname)
		assert.Equal(t, "10.0.0.2", response.Data[0].Address)
		assert.Equal(t, "/ip4/10.0.0.2/udp/4412", response.Data[0].Multiaddr)
	})
}

func TestSendOperations(t *testing.T) {
	server, session, _ := newTestServer(t, false)

	w := doRequest(server, "POST", "/api/v1/hello", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(server, "POST", "/api/v1/hello/10.0.0.3", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(server, "POST", "/api/v1/messages", SendRequest{Text: "hi all"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(server, "POST", "/api/v1/messages", SendRequest{Text: "hi bob", To: "10.0.0.2"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(server, "POST", "/api/v1/broadcast", SendRequest{Text: "anyone?"})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{
		"hello",
		"hello 10.0.0.3",
		"send hi all",
		"sendto 10.0.0.2 hi bob",
		"broadcast anyone?",
	}, session.calls)
}

func TestSendInvalidRequests(t *testing.T) {
	server, session, _ := newTestServer(t, false)

	tests := []struct {
		name string
		path string
		body interface{}
	}{
		{"MissingText", "/api/v1/messages", map[string]string{}},
		{"BadAddress", "/api/v1/messages", SendRequest{Text: "hi", To: "not-an-ip"}},
		{"BroadcastMissingText", "/api/v1/broadcast", map[string]string{"text": ""}},
		{"HelloBadAddress", "/api/v1/hello/nowhere", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(server, "POST", tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.NotEmpty(t, response.Error)
		})
	}

	assert.Empty(t, session.calls)
}

func TestHistoryDisabled(t *testing.T) {
	server, _, _ := newTestServer(t, false)

	w := doRequest(server, "GET", "/api/v1/history/messages", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doRequest(server, "GET", "/api/v1/history/events", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHistory(t *testing.T) {
	server, _, history := newTestServer(t, true)

	w := doRequest(server, "POST", "/api/v1/messages", SendRequest{Text: "hi bob", To: "10.0.0.2"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(server, "POST", "/api/v1/broadcast", SendRequest{Text: "anyone?"})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, history.RecordEvent(&storage.StoredEvent{
		Kind:        storage.EventJoined,
		PeerAddress: "10.0.0.2",
		Detail:      "bob",
		Timestamp:   1000,
	}))

	t.Run("Messages", func(t *testing.T) {
		w := doRequest(server, "GET", "/api/v1/history/messages?limit=10", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data []storage.StoredMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 2)
		assert.Equal(t, "10.0.0.2", response.Data[0].PeerAddress)
		assert.Equal(t, "hi bob", response.Data[0].Content)
		assert.Equal(t, storage.DirectionOutgoing, response.Data[0].Direction)
		assert.Equal(t, "alice", response.Data[0].Nickname)
		assert.Equal(t, "*", response.Data[1].PeerAddress)
	})

	t.Run("Events", func(t *testing.T) {
		w := doRequest(server, "GET", "/api/v1/history/events", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data []storage.StoredEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Data, 1)
		assert.Equal(t, storage.EventJoined, response.Data[0].Kind)
	})

	t.Run("BadLimit", func(t *testing.T) {
		w := doRequest(server, "GET", "/api/v1/history/messages?limit=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doRequest(server, "GET", "/api/v1/history/events?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCORSPreflight(t *testing.T) {
	server, _, _ := newTestServer(t, false)

	w := doRequest(server, "OPTIONS", "/api/v1/messages", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	config := DefaultConfig()
	config.RateLimit = 2

	server := NewServer(&fakeSession{}, nil, nil, config)
	defer server.Stop()

	for i := 0; i < 2; i++ {
		w := doRequest(server, "GET", "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(server, "GET", "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimiterWindow(t *testing.T) {
	limiter := NewRateLimiter(1)
	defer limiter.Stop()

	assert.True(t, limiter.Allow("10.0.0.2"))
	assert.False(t, limiter.Allow("10.0.0.2"))
	assert.True(t, limiter.Allow("10.0.0.3"))

	limiter.mu.Lock()
	limiter.requests["10.0.0.2"].resetTime = time.Now().Add(-time.Second)
	limiter.mu.Unlock()

	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestServerTimeouts(t *testing.T) {
	config := DefaultConfig()
	config.Port = 9191
	config.ReadTimeout = 5 * time.Second
	config.WriteTimeout = 7 * time.Second

	server := NewServer(&fakeSession{}, nil, nil, config)
	defer server.Stop()

	assert.Equal(t, ":9191", server.httpServer.Addr)
	assert.Equal(t, 5*time.Second, server.httpServer.ReadTimeout)
	assert.Equal(t, 7*time.Second, server.httpServer.WriteTimeout)
}
