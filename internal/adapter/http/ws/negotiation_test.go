package wshandler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	"github.com/kompa2go/kommute-fare/internal/service/fare"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	ws "github.com/kompa2go/kommute-fare/pkg/wsHub"
)

type fakeFares struct {
	mu      sync.Mutex
	current models.TripQuote
	adjusts int
}

func (f *fakeFares) Get(ctx context.Context, id uuid.UUID) (models.TripQuote, error) {
	return f.Latest(ctx, id)
}

func (f *fakeFares) Latest(ctx context.Context, id uuid.UUID) (models.TripQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.current.RootID && id != f.current.ID {
		return models.TripQuote{}, types.ErrQuoteNotFound
	}
	return f.current, nil
}

func (f *fakeFares) Adjust(ctx context.Context, user *models.User, id uuid.UUID, dir types.Direction) (fare.AdjustResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.current.ID {
		return fare.AdjustResult{}, types.ErrQuoteStale
	}

	prev := f.current
	next := prev
	next.ID = uuid.New()
	next.ParentID = &prev.ID
	next.Version = prev.Version + 1
	next.Fare = prev.Fare.Add(decimal.NewFromInt(100))
	f.current = next
	f.adjusts++

	return fare.AdjustResult{Quote: next, Previous: prev, Direction: dir}, nil
}

func newQuote() models.TripQuote {
	id := uuid.New()
	return models.TripQuote{
		ID:       id,
		RootID:   id,
		Version:  1,
		RiderID:  "rider-1",
		Fare:     decimal.NewFromInt(1500),
		Currency: "CRC",
	}
}

func newServer(t *testing.T, svc FareService, user *models.User) *httptest.Server {
	t.Helper()

	l := logger.New(io.Discard, "test", logger.LevelError)
	hub := ws.NewConnHub(l)
	h := NewNegotiationHandler(svc, hub, l)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/fares/{quote_id}", h.HandleWS)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(models.WithUser(r.Context(), user)))
	}))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return srv
}

func wsURL(srv *httptest.Server, quoteID string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/fares/" + quoteID
}

type frame struct {
	Type      string           `json:"type"`
	Quote     models.TripQuote `json:"quote"`
	Direction types.Direction  `json:"direction"`
	Code      int              `json:"code"`
	Error     any              `json:"error"`
}

func readFrame(t *testing.T, c *websocket.Conn) frame {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return f
}

func TestNegotiation_AdjustBroadcast(t *testing.T) {
	svc := &fakeFares{current: newQuote()}
	root := svc.current.RootID
	srv := newServer(t, svc, &models.User{ID: "rider-1", Role: types.RolePassenger})

	rider, _, err := websocket.DefaultDialer.Dial(wsURL(srv, root.String()), nil)
	if err != nil {
		t.Fatalf("dial rider: %v", err)
	}
	defer rider.Close()

	driver, _, err := websocket.DefaultDialer.Dial(wsURL(srv, root.String()), nil)
	if err != nil {
		t.Fatalf("dial driver: %v", err)
	}
	defer driver.Close()

	if f := readFrame(t, rider); f.Type != "fare_state" || !f.Quote.Fare.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected initial frame %+v", f)
	}
	readFrame(t, driver)

	if err := rider.WriteJSON(map[string]string{"direction": "UP"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	for name, c := range map[string]*websocket.Conn{"rider": rider, "driver": driver} {
		f := readFrame(t, c)
		if f.Type != "fare_update" {
			t.Fatalf("%s: expected fare_update, got %+v", name, f)
		}
		if !f.Quote.Fare.Equal(decimal.NewFromInt(1600)) || f.Quote.Version != 2 {
			t.Errorf("%s: unexpected quote %+v", name, f.Quote)
		}
		if f.Direction != types.DirectionUp {
			t.Errorf("%s: direction = %q", name, f.Direction)
		}
	}
}

func TestNegotiation_StepErrors(t *testing.T) {
	svc := &fakeFares{current: newQuote()}
	first := svc.current.ID
	srv := newServer(t, svc, &models.User{ID: "driver-1", Role: types.RoleDriver})

	c, _, err := websocket.DefaultDialer.Dial(wsURL(srv, first.String()), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	readFrame(t, c)

	_ = c.WriteMessage(websocket.TextMessage, []byte("not json"))
	if f := readFrame(t, c); f.Type != "error" {
		t.Fatalf("expected error frame, got %+v", f)
	}

	_ = c.WriteJSON(map[string]string{"direction": "sideways"})
	if f := readFrame(t, c); f.Type != "error" {
		t.Fatalf("expected validation error, got %+v", f)
	}

	// move once so the first quote becomes stale
	_ = c.WriteJSON(map[string]string{"direction": "down"})
	if f := readFrame(t, c); f.Type != "fare_update" {
		t.Fatalf("expected fare_update, got %+v", f)
	}

	_ = c.WriteJSON(map[string]any{"direction": "up", "quote_id": first})
	f := readFrame(t, c)
	if f.Type != "error" || f.Code != http.StatusConflict {
		t.Fatalf("expected stale conflict, got %+v", f)
	}
}

func TestNegotiation_Handshake(t *testing.T) {
	svc := &fakeFares{current: newQuote()}

	tests := []struct {
		name   string
		user   *models.User
		id     string
		status int
	}{
		{"anonymous", models.AnonymousUser(), svc.current.ID.String(), http.StatusUnauthorized},
		{"bad id", &models.User{ID: "u", Role: types.RolePassenger}, "nope", http.StatusBadRequest},
		{"unknown quote", &models.User{ID: "u", Role: types.RolePassenger}, uuid.NewString(), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, svc, tt.user)
			_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, tt.id), nil)
			if err == nil {
				t.Fatal("expected handshake to fail")
			}
			if resp == nil || resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %+v", tt.status, resp)
			}
		})
	}
}
