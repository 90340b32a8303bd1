package wshandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	"github.com/kompa2go/kommute-fare/internal/service/fare"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
	"github.com/kompa2go/kommute-fare/pkg/validator"
	ws "github.com/kompa2go/kommute-fare/pkg/wsHub"
)

const pingPeriod = 30 * time.Second

type FareService interface {
	Get(ctx context.Context, id uuid.UUID) (models.TripQuote, error)
	Latest(ctx context.Context, id uuid.UUID) (models.TripQuote, error)
	Adjust(ctx context.Context, user *models.User, id uuid.UUID, direction types.Direction) (fare.AdjustResult, error)
}

// NegotiationMsg is sent by a client to move the fare. Without quote_id the
// newest quote of the negotiation is adjusted.
type NegotiationMsg struct {
	Direction string     `json:"direction"`
	QuoteID   *uuid.UUID `json:"quote_id,omitempty"`
}

func (m *NegotiationMsg) Validate(v *validator.Validator) {
	m.Direction = strings.ToLower(strings.TrimSpace(m.Direction))
	v.Check(types.Direction(m.Direction).Valid(), "direction", "must be up or down")
}

// NegotiationHandler runs fare negotiation over websocket. Every session on
// the same negotiation shares a hub room keyed by the root quote id.
type NegotiationHandler struct {
	service  FareService
	hub      *ws.ConnectionHub
	upgrader websocket.Upgrader
	l        logger.Logger
}

func NewNegotiationHandler(service FareService, hub *ws.ConnectionHub, l logger.Logger) *NegotiationHandler {
	return &NegotiationHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		l: l,
	}
}

// HandleWS godoc
// @Summary      Fare negotiation websocket
// @Description  Send {"direction":"up"} or {"direction":"down"}; every session on the quote receives {"type":"fare_update"}
// @Tags         fares
// @Param        quote_id path  string true  "Quote ID"
// @Param        token    query string false "Access token when the Authorization header cannot be set"
// @Success      101
// @Router       /ws/fares/{quote_id} [get]
func (h *NegotiationHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ws_negotiation")
	user := models.UserFromContext(ctx)

	if user.IsAnonymous() {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	quoteID, err := uuid.Parse(r.PathValue("quote_id"))
	if err != nil {
		http.Error(w, "invalid quote uuid format", http.StatusBadRequest)
		return
	}
	ctx = wrap.WithQuoteID(ctx, quoteID.String())

	quote, err := h.service.Latest(ctx, quoteID)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "negotiation rejected", "error", err.Error())
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, types.ErrQuoteNotFound):
			status = http.StatusNotFound
		case errors.Is(err, types.ErrQuoteExpired):
			status = http.StatusGone
		}
		http.Error(w, err.Error(), status)
		return
	}

	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		h.l.Warn(ctx, "websocket upgrade failed", "error", err.Error())
		return
	}

	// the request context is cancelled when the handler returns
	conn := ws.NewConn(context.WithoutCancel(ctx), quote.RootID.String(), c)
	if err := h.hub.Add(conn); err != nil {
		h.l.Error(ctx, "failed to register websocket connection", err)
		_ = conn.Close()
		return
	}
	defer func() { _ = h.hub.Delete(conn) }()

	h.l.Info(ctx, "negotiation session opened", "conn_id", conn.ID().String(), "room", conn.Room())

	if err := conn.Send(models.NegotiationUpdate{Type: "fare_state", Quote: quote}); err != nil {
		return
	}

	go h.keepAlive(ctx, conn)

	err = conn.Listen(func(raw []byte) error {
		h.handleMessage(ctx, user, conn, quote.RootID, raw)
		// ошибки шага уходят клиенту, сессия продолжается
		return nil
	})
	if err != nil && !errors.Is(err, ws.ErrConnClosed) && !isNormalClose(err) {
		h.l.Warn(ctx, "negotiation session ended", "error", err.Error())
	}
}

func (h *NegotiationHandler) handleMessage(ctx context.Context, user *models.User, conn *ws.Conn, root uuid.UUID, raw []byte) {
	var msg NegotiationMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		_ = errorResponse(conn, "message must be a JSON object")
		return
	}

	v := validator.New()
	msg.Validate(v)
	if !v.Valid() {
		_ = failedValidationResponse(conn, v.Errors)
		return
	}

	target := root
	if msg.QuoteID != nil {
		target = *msg.QuoteID
	} else {
		latest, err := h.service.Latest(ctx, root)
		if err != nil {
			_ = serviceErrorResponse(conn, err)
			return
		}
		target = latest.ID
	}

	res, err := h.service.Adjust(ctx, user, target, types.Direction(msg.Direction))
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "negotiation step rejected", "error", err.Error())
		_ = serviceErrorResponse(conn, err)
		return
	}

	h.hub.Broadcast(res.Quote.RootID.String(), models.NegotiationUpdate{
		Type:      "fare_update",
		Quote:     res.Quote,
		Direction: res.Direction,
		Saturated: res.Saturated,
	})
}

func (h *NegotiationHandler) keepAlive(ctx context.Context, conn *ws.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-conn.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(); err != nil {
				h.l.Debug(ctx, "ping failed, closing session", "conn_id", conn.ID().String())
				_ = h.hub.Delete(conn)
				return
			}
		}
	}
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(errors.Unwrap(err), websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
