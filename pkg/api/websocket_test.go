package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
)

func dialHub(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(h)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	return ev
}

func TestHubBroadcast(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := NewHub(nil, nil)
	go h.Run()
	defer h.Stop()

	conn, closeConn := dialHub(t, h)
	defer closeConn()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.Publish(EventFormChanged, map[string]string{"kind": "question"})
	ev := readEvent(t, conn)
	assert.Equal(t, EventFormChanged, ev.Type)
	assert.False(t, ev.Timestamp.IsZero())

	h.Notify(NotifySuccess, "saved")
	ev = readEvent(t, conn)
	assert.Equal(t, EventNotification, ev.Type)
	data, ok := ev.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, NotifySuccess, data["type"])
	assert.Equal(t, "saved", data["message"])
}

func TestHubSubscriptionsAndPing(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := NewHub(nil, nil)
	go h.Run()
	defer h.Stop()

	conn, closeConn := dialHub(t, h)
	defer closeConn()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(Event{Type: "ping"}))
	assert.Equal(t, EventPong, readEvent(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Event{Type: "subscribe", Channels: []string{"bogus"}}))
	assert.Equal(t, EventError, readEvent(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Event{Type: "subscribe", Channels: []string{ChannelExport}}))
	// Ping round-trip orders the subscribe before the publishes below.
	require.NoError(t, conn.WriteJSON(Event{Type: "ping"}))
	require.Equal(t, EventPong, readEvent(t, conn).Type)

	h.Publish(EventFormChanged, nil)
	h.Publish(EventExportCompleted, ExportSummary{Format: "pdf"})
	assert.Equal(t, EventExportCompleted, readEvent(t, conn).Type)
}

func TestHubStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := NewHub(nil, nil)
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	conn, closeConn := dialHub(t, h)
	defer closeConn()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
	<-done
	assert.Equal(t, 0, h.ClientCount())

	// The server side closes the connection.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// Publishing after Stop is a no-op.
	h.Publish(EventFormSaved, nil)
}

func TestHubRejectsOrigin(t *testing.T) {
	h := NewHub(nil, makeOriginChecker([]string{"http://localhost:5173"}))
	go h.Run()
	defer h.Stop()

	srv := httptest.NewServer(h)
	defer srv.Close()

	header := map[string][]string{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestForwardEvents(t *testing.T) {
	s := newTestServer(t)
	go s.hub.Run()
	defer s.hub.Stop()

	unsubscribe := s.forwardEvents()
	defer unsubscribe()

	conn, closeConn := dialHub(t, s.hub)
	defer closeConn()
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.deps.Store.SetCompliance("1a", audit.StatusCompliant))
	ev := readEvent(t, conn)
	assert.Equal(t, EventFormChanged, ev.Type)
	data, ok := ev.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "question", data["kind"])
	assert.Equal(t, "1a", data["id"])
}
