package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jacl-coder/BrawlLadder-Server/internal/match"
	"github.com/jacl-coder/BrawlLadder-Server/internal/models"
	"github.com/jacl-coder/BrawlLadder-Server/internal/platform"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inFrame struct {
	Type    string          `json:"type"`
	OK      *bool           `json:"ok"`
	Payload json.RawMessage `json:"payload"`
}

func readFrame(t *testing.T, conn *websocket.Conn) inFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f inFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func newTestHub(t *testing.T) (*Hub, *AuthHandler, *httptest.Server) {
	t.Helper()
	auth := testAuth()
	d, _ := testDispatcher(t, nil, nil)
	hub := NewHub(auth, d, nil, quietLog())
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, auth, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHubRejectsMissingToken(t *testing.T) {
	_, _, srv := newTestHub(t)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHubCommandsAndBroadcast(t *testing.T) {
	g := NewWithT(t)
	hub, auth, srv := newTestHub(t)

	token, err := auth.Issue(Actor{ID: "42", DisplayName: "Alice"})
	require.NoError(t, err)
	conn := dial(t, srv, token)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"enqueue","payload":{"queue":"ranked"}}`)))
	f := readFrame(t, conn)
	assert.Equal(t, FrameReply, f.Type)
	require.NotNil(t, f.OK)
	assert.True(t, *f.OK)
	assert.Contains(t, string(f.Payload), "You joined the **ranked** queue")

	offline, known := hub.IsOffline("42")
	assert.False(t, offline)
	assert.True(t, known)
	_, known = hub.IsOffline("43")
	assert.False(t, known)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`nonsense`)))
	f = readFrame(t, conn)
	require.NotNil(t, f.OK)
	assert.False(t, *f.OK)
	assert.Contains(t, string(f.Payload), "Malformed message")

	hub.MatchUpdated(models.Match{ID: "m-1", State: models.StateRoomPending})
	f = readFrame(t, conn)
	assert.Equal(t, FrameMatchUpdate, f.Type)
	assert.Contains(t, string(f.Payload), `"id":"m-1"`)

	notifier := NewBroadcastNotifier(platform.NewLogNotifier(quietLog()), hub)
	_, err = notifier.PostMessage(context.Background(), "matches", "hello")
	require.NoError(t, err)
	f = readFrame(t, conn)
	assert.Equal(t, FrameMessage, f.Type)
	assert.Contains(t, string(f.Payload), `"content":"hello"`)

	require.NoError(t, conn.Close())
	g.Eventually(hub.Connections, 2*time.Second, 10*time.Millisecond).Should(Equal(0))
	_, known = hub.IsOffline("42")
	assert.False(t, known)
}

type fixedPresence struct {
	offline, known bool
}

func (p fixedPresence) IsOffline(string) (bool, bool) {
	return p.offline, p.known
}

func TestPresences(t *testing.T) {
	online := fixedPresence{offline: false, known: true}
	offline := fixedPresence{offline: true, known: true}
	unknown := fixedPresence{}

	tests := []struct {
		name    string
		sources Presences
		offline bool
		known   bool
	}{
		{"no sources", nil, false, false},
		{"all unknown", Presences{unknown, unknown}, false, false},
		{"offline only", Presences{unknown, offline}, true, true},
		{"online wins", Presences{offline, online}, false, true},
		{"nil source skipped", Presences{nil, online}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, known := tt.sources.IsOffline("p1")
			assert.Equal(t, tt.offline, off)
			assert.Equal(t, tt.known, known)
		})
	}

	var _ match.Presence = Presences{}
}
