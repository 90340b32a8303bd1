package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/kompa2go/kommute-fare/internal/adapter/http/handler/dto"
	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	"github.com/kompa2go/kommute-fare/internal/service/fare"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
	"github.com/kompa2go/kommute-fare/pkg/validator"
)

type FareService interface {
	Quote(ctx context.Context, req fare.QuoteRequest) (models.TripQuote, error)
	Get(ctx context.Context, id uuid.UUID) (models.TripQuote, error)
	Latest(ctx context.Context, id uuid.UUID) (models.TripQuote, error)
	Adjust(ctx context.Context, user *models.User, id uuid.UUID, direction types.Direction) (fare.AdjustResult, error)
}

// Broadcaster fans negotiation updates out to the websocket sessions of a quote.
type Broadcaster interface {
	Broadcast(room string, msg any) int
}

type Fare struct {
	service FareService
	rooms   Broadcaster
	l       logger.Logger
}

func NewFare(service FareService, rooms Broadcaster, l logger.Logger) *Fare {
	return &Fare{
		service: service,
		rooms:   rooms,
		l:       l,
	}
}

// QuoteFare godoc
// @Summary      Quote a trip
// @Description  Prices a trip from coordinates, addresses or an explicit distance
// @Tags         fares
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.QuoteReq true "Trip parameters"
// @Success      201 {object} models.TripQuote
// @Failure      400 {object} map[string]interface{}
// @Failure      422 {object} map[string]interface{}
// @Router       /fares/quote [post]
func (h *Fare) QuoteFare(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "quote_fare")
	user := models.UserFromContext(ctx)

	var req dto.QuoteReq
	if err := readJSON(w, r, &req); err != nil {
		h.l.Warn(ctx, "failed to read request JSON data", "error", err.Error())
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data", "errors", v.Errors)
		failedValidationResponse(w, v.Errors)
		return
	}

	quote, err := h.service.Quote(ctx, req.ToRequest(user.ID))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to quote fare", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, quote, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// GetQuote godoc
// @Summary      Get a quote
// @Tags         fares
// @Produce      json
// @Security     BearerAuth
// @Param        quote_id path string true "Quote ID"
// @Success      200 {object} models.TripQuote
// @Failure      404 {object} map[string]interface{}
// @Failure      410 {object} map[string]interface{}
// @Router       /fares/{quote_id} [get]
func (h *Fare) GetQuote(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_quote")

	quoteID, err := uuid.Parse(r.PathValue("quote_id"))
	if err != nil {
		badRequestResponse(w, "invalid quote uuid format")
		return
	}

	quote, err := h.service.Get(ctx, quoteID)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to get quote", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, quote, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// AdjustFare godoc
// @Summary      Adjust a quoted fare
// @Description  Moves the fare one adjustment step up or down. The result is a new quote.
// @Tags         fares
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        quote_id path string true "Quote ID"
// @Param        request body dto.AdjustReq true "Direction"
// @Success      200 {object} dto.AdjustResp
// @Failure      409 {object} map[string]interface{} "Quote was already adjusted"
// @Failure      410 {object} map[string]interface{} "Quote expired"
// @Router       /fares/{quote_id}/adjust [post]
func (h *Fare) AdjustFare(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "adjust_fare")

	quoteID, err := uuid.Parse(r.PathValue("quote_id"))
	if err != nil {
		badRequestResponse(w, "invalid quote uuid format")
		return
	}
	ctx = wrap.WithQuoteID(ctx, quoteID.String())

	var req dto.AdjustReq
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	res, err := h.service.Adjust(ctx, models.UserFromContext(ctx), quoteID, types.Direction(req.Direction))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to adjust fare", err)
		serviceErrorResponse(w, err)
		return
	}

	h.notify(ctx, res)

	if err := writeJSON(w, http.StatusOK, dto.NewAdjustResp(res), nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// notify pushes the adjusted quote to everyone negotiating it.
func (h *Fare) notify(ctx context.Context, res fare.AdjustResult) {
	if h.rooms == nil {
		return
	}

	n := h.rooms.Broadcast(res.Quote.RootID.String(), models.NegotiationUpdate{
		Type:      "fare_update",
		Quote:     res.Quote,
		Direction: res.Direction,
		Saturated: res.Saturated,
	})
	h.l.Debug(ctx, "negotiation update sent", "sessions", n)
}
