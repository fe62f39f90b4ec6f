package fubon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// streamServer upgrades one connection, reads the auth message, and hands
// the connection to the test.
func streamServer(t *testing.T) (*httptest.Server, chan *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Errorf("read auth: %v", err)
			return
		}
		conns <- conn
	}))
	t.Cleanup(srv.Close)
	return srv, conns
}

func realtimeFor(srv *httptest.Server) *RealtimeClient {
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewClient(Config{RealtimeURL: wsURL})
	return c.Realtime()
}

func TestRealtime_DoneSignalsLostConnection(t *testing.T) {
	srv, conns := streamServer(t)
	rt := realtimeFor(srv)

	if err := rt.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer rt.Close()

	serverConn := <-conns
	serverConn.Close()

	select {
	case <-rt.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done not closed after the server dropped the connection")
	}
}

func TestRealtime_CloseDoesNotSignalLost(t *testing.T) {
	srv, conns := streamServer(t)
	rt := realtimeFor(srv)

	if err := rt.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	done := rt.Done()
	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	defer (<-conns).Close()

	select {
	case <-done:
		t.Fatal("deliberate Close must not look like a lost connection")
	case <-time.After(200 * time.Millisecond):
	}
}
