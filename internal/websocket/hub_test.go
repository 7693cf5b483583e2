package websocket

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func dialHub(t *testing.T, hub *Hub) *gws.Conn {
	t.Helper()
	handler := NewHandler(hub, testLogger(), nil)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gws.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestClientReceivesConnectionMessage(t *testing.T) {
	hub := startHub(t)
	conn := dialHub(t, hub)

	msg := readMessage(t, conn)
	assert.Equal(t, TypeConnection, msg.Type)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)
}

func TestBroadcastRefreshReachesClients(t *testing.T) {
	hub := startHub(t)
	conn := dialHub(t, hub)
	readMessage(t, conn) // connection greeting

	at := time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)
	hub.BroadcastRefresh(42, at)

	msg := readMessage(t, conn)
	assert.Equal(t, TypeDataRefresh, msg.Type)
	assert.EqualValues(t, 42, msg.Data["lead_count"])
	assert.Equal(t, "2024-03-20T10:00:00Z", msg.Data["refreshed_at"])
}

func TestBroadcastExportReachesClients(t *testing.T) {
	hub := startHub(t)
	conn := dialHub(t, hub)
	readMessage(t, conn)

	hub.BroadcastExport("csv", "leads.csv")

	msg := readMessage(t, conn)
	assert.Equal(t, TypeExport, msg.Type)
	assert.Equal(t, "csv", msg.Data["format"])
	assert.Equal(t, "leads.csv", msg.Data["filename"])
}

func TestClientDisconnectLowersCount(t *testing.T) {
	hub := startHub(t)
	conn := dialHub(t, hub)
	readMessage(t, conn)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestBroadcastWriteFailureDropsClientAndHubKeepsRunning(t *testing.T) {
	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx) }()

	// Register a server-side connection directly, with no read loop attached,
	// so only the broadcast path can remove it.
	serverConns := make(chan *gws.Conn, 1)
	upgrader := gws.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
		serverConns <- conn
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	clientConn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { clientConn.Close() })

	var serverConn *gws.Conn
	select {
	case serverConn = <-serverConns:
	case <-time.After(2 * time.Second):
		t.Fatal("server connection never registered")
	}
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	// Make the next write fail outright.
	serverConn.Close()
	hub.BroadcastRefresh(1, time.Now())

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond,
		"failed client should be dropped by the broadcast loop")

	// A wedged hub would ignore cancellation here.
	cancel()
	select {
	case runErr := <-done:
		assert.ErrorIs(t, runErr, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop after context cancellation")
	}
}

func TestOriginCheck(t *testing.T) {
	handler := NewHandler(NewHub(testLogger()), testLogger(), []string{"https://dash.example.com"})

	allowed := httptest.NewRequest(http.MethodGet, "/ws", nil)
	allowed.Header.Set("Origin", "https://dash.example.com")
	assert.True(t, handler.checkOrigin(allowed))

	rejected := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rejected.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, handler.checkOrigin(rejected))

	noOrigin := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, handler.checkOrigin(noOrigin), "no origin header means same-origin or local file")
}
