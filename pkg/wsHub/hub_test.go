package ws

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kompa2go/kommute-fare/pkg/logger"
)

func newTestServer(t *testing.T, hub *ConnectionHub) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewConn(context.Background(), r.URL.Query().Get("room"), wsConn)
		_ = hub.Add(c)
		defer hub.Delete(c)

		_ = c.Listen(func(msg []byte) error { return nil })
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, room string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?room=" + room
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_BroadcastToRoom(t *testing.T) {
	hub := NewConnHub(logger.New(io.Discard, "test", logger.LevelError))
	srv := newTestServer(t, hub)

	a := dial(t, srv, "quote-1")
	b := dial(t, srv, "quote-1")
	other := dial(t, srv, "quote-2")

	waitFor(t, func() bool { return hub.Count() == 3 })

	if sent := hub.Broadcast("quote-1", map[string]string{"fare": "1600"}); sent != 2 {
		t.Fatalf("expected 2 recipients, got %d", sent)
	}

	for _, c := range []*websocket.Conn{a, b} {
		var msg map[string]string
		_ = c.SetReadDeadline(time.Now().Add(time.Second))
		if err := c.ReadJSON(&msg); err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if msg["fare"] != "1600" {
			t.Fatalf("unexpected message %v", msg)
		}
	}

	_ = other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Fatalf("connection in another room must not receive the broadcast")
	}
}

func TestHub_DeleteOnDisconnect(t *testing.T) {
	var (
		mu     sync.Mutex
		counts []int
	)
	hub := NewConnHub(logger.New(io.Discard, "test", logger.LevelError))
	hub.OnChange = func(total int) {
		mu.Lock()
		counts = append(counts, total)
		mu.Unlock()
	}
	srv := newTestServer(t, hub)

	c := dial(t, srv, "quote-1")
	waitFor(t, func() bool { return hub.Count() == 1 })

	c.Close()
	waitFor(t, func() bool { return hub.Count() == 0 })

	if len(hub.Room("quote-1")) != 0 {
		t.Fatalf("room must be empty after disconnect")
	}
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(counts) == 2 && counts[1] == 0
	})
}

func TestHub_Errors(t *testing.T) {
	hub := NewConnHub(logger.New(io.Discard, "test", logger.LevelError))

	if err := hub.Add(nil); err != ErrEmptyConn {
		t.Fatalf("expected ErrEmptyConn, got %v", err)
	}
	c := NewConn(context.Background(), "room", nil)
	if err := hub.Delete(c); err != ErrConnIsNotFound {
		t.Fatalf("expected ErrConnIsNotFound, got %v", err)
	}
	if err := c.Send("x"); err == nil {
		t.Fatalf("send on nil connection must fail")
	}
	if hub.Broadcast("nobody", "x") != 0 {
		t.Fatalf("broadcast to empty room must reach nobody")
	}
}
