package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
)

var (
	ErrEmptyConn      = errors.New("connection is empty")
	ErrConnIsNotFound = errors.New("connection not found")
)

// ConnectionHub хранит активные WebSocket соединения, сгруппированные по комнатам
type ConnectionHub struct {
	rooms map[string]map[uuid.UUID]*Conn
	l     logger.Logger
	mu    sync.RWMutex
	wg    sync.WaitGroup

	// OnChange is called with the current number of connections.
	OnChange func(total int)
}

func NewConnHub(l logger.Logger) *ConnectionHub {
	return &ConnectionHub{
		rooms: make(map[string]map[uuid.UUID]*Conn),
		l:     l,
	}
}

// Add joins the connection to its room.
func (h *ConnectionHub) Add(c *Conn) error {
	if c == nil {
		return ErrEmptyConn
	}

	h.mu.Lock()
	room, ok := h.rooms[c.room]
	if !ok {
		room = make(map[uuid.UUID]*Conn)
		h.rooms[c.room] = room
	}
	room[c.id] = c
	h.wg.Add(1)
	total := h.countLocked()
	h.mu.Unlock()

	h.notify(total)
	return nil
}

// Delete удаляет и закрывает соединение
func (h *ConnectionHub) Delete(c *Conn) error {
	if c == nil {
		return ErrEmptyConn
	}

	h.mu.Lock()
	room, ok := h.rooms[c.room]
	if _, found := room[c.id]; !ok || !found {
		h.mu.Unlock()
		return ErrConnIsNotFound
	}
	delete(room, c.id)
	if len(room) == 0 {
		delete(h.rooms, c.room)
	}
	h.wg.Done()
	total := h.countLocked()
	h.mu.Unlock()

	if err := c.Close(); err != nil {
		h.l.Debug(wrap.WithAction(context.Background(), "ws_connection_delete"),
			"failed to close conn",
			"conn_id", c.id,
			"err", err.Error(),
		)
	}

	h.notify(total)
	return nil
}

// Broadcast sends msg to every connection of the room and returns how many
// received it. Failed connections are dropped from the hub.
func (h *ConnectionHub) Broadcast(room string, msg any) int {
	conns := h.Room(room)

	sent := 0
	for _, c := range conns {
		if err := c.Send(msg); err != nil {
			h.l.Warn(wrap.WithAction(context.Background(), "ws_broadcast"),
				"dropping unhealthy connection",
				"conn_id", c.id,
				"room", room,
				"err", err.Error(),
			)
			_ = h.Delete(c)
			continue
		}
		sent++
	}
	return sent
}

// Room возвращает копию соединений комнаты
func (h *ConnectionHub) Room(room string) []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := make([]*Conn, 0, len(h.rooms[room]))
	for _, c := range h.rooms[room] {
		conns = append(conns, c)
	}
	return conns
}

// Count returns the number of open connections.
func (h *ConnectionHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked()
}

func (h *ConnectionHub) countLocked() int {
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

func (h *ConnectionHub) notify(total int) {
	if h.OnChange != nil {
		h.OnChange(total)
	}
}

// Close закрывает каждое websocket соединение
func (h *ConnectionHub) Close() {
	h.mu.RLock()
	var all []*Conn
	for _, room := range h.rooms {
		for _, c := range room {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	// закрываем вне локов
	for _, c := range all {
		_ = h.Delete(c)
	}
	h.wg.Wait()

	h.l.Info(wrap.WithAction(context.Background(), "hub_close"), "all websocket connections closed gracefully")
}
