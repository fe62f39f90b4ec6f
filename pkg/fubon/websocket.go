package fubon

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	heartbeatInterval = 30 * time.Second
	writeDeadline     = 5 * time.Second
)

// RealtimeClient holds the streaming market-data connection. The engine
// polls REST for candles; the realtime channel only has to stay healthy so
// the session does not expire mid-day.
type RealtimeClient struct {
	url   string
	token string

	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
	lost chan struct{}
}

// Realtime creates the streaming client bound to the REST session token.
// Call after Login.
func (c *Client) Realtime() *RealtimeClient {
	return &RealtimeClient{
		url:    c.realtimeURL,
		token:  c.token,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Connect dials the streaming endpoint, authenticates, and starts the
// heartbeat and read loops. It returns once the handshake completes.
func (r *RealtimeClient) Connect(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+r.token)

	conn, _, err := r.dialer.DialContext(ctx, r.url, header)
	if err != nil {
		return fmt.Errorf("realtime dial: %w", err)
	}

	auth, _ := json.Marshal(map[string]any{
		"event": "auth",
		"data":  map[string]string{"token": r.token},
	})
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err := conn.WriteMessage(websocket.TextMessage, auth); err != nil {
		conn.Close()
		return fmt.Errorf("realtime auth: %w", err)
	}

	r.mu.Lock()
	r.conn = conn
	r.done = make(chan struct{})
	r.lost = make(chan struct{})
	done, lost := r.done, r.lost
	r.mu.Unlock()

	// Both loops hold the channels of their own connection so a stale
	// goroutine can never signal loss of a newer one.
	var lostOnce sync.Once
	markLost := func() { lostOnce.Do(func() { close(lost) }) }

	go r.heartbeatLoop(conn, done, markLost)
	go r.readLoop(conn, done, markLost)

	log.Println("[fubon] realtime channel connected")
	return nil
}

// Done is closed when the current connection is lost. Close does not
// trigger it. Returns nil before the first Connect.
func (r *RealtimeClient) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lost
}

// heartbeatLoop pings the server until the connection closes.
func (r *RealtimeClient) heartbeatLoop(conn *websocket.Conn, done chan struct{}, markLost func()) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[fubon] realtime heartbeat failed: %v", err)
				markLost()
				return
			}
		}
	}
}

// readLoop drains server messages so control frames are processed. Data
// frames are discarded; candle data arrives via REST polling.
func (r *RealtimeClient) readLoop(conn *websocket.Conn, done chan struct{}, markLost func()) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			select {
			case <-done:
			default:
				log.Printf("[fubon] realtime read closed: %v", err)
				markLost()
			}
			return
		}
	}
}

// Close shuts the streaming connection down.
func (r *RealtimeClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return nil
	}
	close(r.done)
	err := r.conn.Close()
	r.conn = nil
	return err
}
