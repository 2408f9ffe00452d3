package signal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/interviewd/internal/config"
)

type fakeHandler struct {
	mu         sync.Mutex
	utterances []string
	audio      [][]byte
	notify     chan struct{}
}

func newFakeHandler() *fakeHandler {
	return &fakeHandler{notify: make(chan struct{}, 8)}
}

func (f *fakeHandler) HandleUtterance(ctx context.Context, sessionID, text string) error {
	f.mu.Lock()
	f.utterances = append(f.utterances, text)
	f.mu.Unlock()
	f.notify <- struct{}{}
	return nil
}

func (f *fakeHandler) HandleAudio(ctx context.Context, sessionID string, audio []byte, sampleRate int) error {
	f.mu.Lock()
	f.audio = append(f.audio, audio)
	f.mu.Unlock()
	f.notify <- struct{}{}
	return nil
}

func (f *fakeHandler) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}
}

func testSignalServer(t *testing.T, handler Handler, resolve SessionResolver) (*Server, *httptest.Server) {
	t.Helper()
	hub := NewHub(silentLog())
	srv := NewServer(config.SignalConfig{}, hub, handler, resolve, silentLog())

	mux := http.NewServeMux()
	mux.HandleFunc("/session/", srv.handleSession)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return srv, ts
}

func dialSession(t *testing.T, ts *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/session/" + sessionID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSessionIDFromPath(t *testing.T) {
	tests := []struct {
		path string
		id   string
		ok   bool
	}{
		{"/session/sess-1/ws", "sess-1", true},
		{"/session/abc-def-123/ws", "abc-def-123", true},
		{"/session//ws", "", false},
		{"/session/sess-1", "", false},
		{"/session/", "", false},
		{"/other/sess-1/ws", "", false},
	}
	for _, tt := range tests {
		id, ok := sessionIDFromPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.id, id, tt.path)
	}
}

func TestUtteranceFrameDispatched(t *testing.T) {
	handler := newFakeHandler()
	_, ts := testSignalServer(t, handler, nil)

	conn := dialSession(t, ts, "sess-1")
	require.NoError(t, conn.WriteJSON(InboundFrame{Type: TypeUtterance, Text: "hello there"}))

	handler.wait(t)
	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, []string{"hello there"}, handler.utterances)
}

func TestAudioFrameDispatched(t *testing.T) {
	handler := newFakeHandler()
	_, ts := testSignalServer(t, handler, nil)

	conn := dialSession(t, ts, "sess-1")
	require.NoError(t, conn.WriteJSON(InboundFrame{Type: TypeAudio, Audio: []byte("pcm-data"), SampleRate: 16000}))

	handler.wait(t)
	handler.mu.Lock()
	defer handler.mu.Unlock()
	require.Len(t, handler.audio, 1)
	assert.Equal(t, []byte("pcm-data"), handler.audio[0])
}

func TestUnknownFrameTypeIgnored(t *testing.T) {
	handler := newFakeHandler()
	_, ts := testSignalServer(t, handler, nil)

	conn := dialSession(t, ts, "sess-1")
	require.NoError(t, conn.WriteJSON(InboundFrame{Type: "mystery"}))
	require.NoError(t, conn.WriteJSON(InboundFrame{Type: TypeUtterance, Text: "after"}))

	handler.wait(t)
	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, []string{"after"}, handler.utterances)
}

func TestUnknownSessionRejected(t *testing.T) {
	handler := newFakeHandler()
	_, ts := testSignalServer(t, handler, func(sessionID string) bool {
		return sessionID == "live-session"
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/session/dead-session/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The live session still connects.
	dialSession(t, ts, "live-session")
}

func TestConnectedClientReceivesBroadcasts(t *testing.T) {
	hub := NewHub(silentLog())
	srv := NewServer(config.SignalConfig{}, hub, nil, nil, silentLog())

	mux := http.NewServeMux()
	mux.HandleFunc("/session/", srv.handleSession)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	conn := dialSession(t, ts, "sess-1")

	require.Eventually(t, func() bool {
		return hub.SessionClientCount("sess-1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.EmitWarning("sess-1", "two minutes left")

	msg := readMessage(t, conn)
	assert.Equal(t, TypeWarning, msg["type"])
}
