package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	"github.com/kompa2go/kommute-fare/internal/service/fare"
	"github.com/kompa2go/kommute-fare/pkg/logger"
)

/*=================mocks======================*/

type mockFareService struct {
	quoteFn  func(ctx context.Context, req fare.QuoteRequest) (models.TripQuote, error)
	getFn    func(ctx context.Context, id uuid.UUID) (models.TripQuote, error)
	adjustFn func(ctx context.Context, user *models.User, id uuid.UUID, dir types.Direction) (fare.AdjustResult, error)
}

func (m *mockFareService) Quote(ctx context.Context, req fare.QuoteRequest) (models.TripQuote, error) {
	return m.quoteFn(ctx, req)
}

func (m *mockFareService) Get(ctx context.Context, id uuid.UUID) (models.TripQuote, error) {
	return m.getFn(ctx, id)
}

func (m *mockFareService) Latest(ctx context.Context, id uuid.UUID) (models.TripQuote, error) {
	return m.getFn(ctx, id)
}

func (m *mockFareService) Adjust(ctx context.Context, user *models.User, id uuid.UUID, dir types.Direction) (fare.AdjustResult, error) {
	return m.adjustFn(ctx, user, id, dir)
}

type mockRooms struct {
	room string
	msgs []any
}

func (m *mockRooms) Broadcast(room string, msg any) int {
	m.room = room
	m.msgs = append(m.msgs, msg)
	return 1
}

type splitterFunc func(ctx context.Context, j string, gross decimal.Decimal) (models.FareSplit, models.Tariff, error)

func (f splitterFunc) Split(ctx context.Context, j string, gross decimal.Decimal) (models.FareSplit, models.Tariff, error) {
	return f(ctx, j, gross)
}

/*=================helpers======================*/

func testLogger() logger.Logger {
	return logger.New(io.Discard, "test", logger.LevelError)
}

var rider = &models.User{ID: "rider-1", Role: types.RolePassenger}

func do(t *testing.T, h http.HandlerFunc, method, target, body string, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(models.WithUser(req.Context(), rider))
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}

	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func sampleQuote() models.TripQuote {
	id := uuid.New()
	now := time.Now()
	return models.TripQuote{
		ID:           id,
		RootID:       id,
		Version:      1,
		RiderID:      rider.ID,
		Jurisdiction: "CR",
		VehicleClass: types.CompactClass,
		BaseFare:     decimal.RequireFromString("1487.5"),
		Fare:         decimal.RequireFromString("1487.5"),
		Currency:     "CRC",
		CreatedAt:    now,
		ExpiresAt:    now.Add(10 * time.Minute),
	}
}

/*=================tests======================*/

func TestGetCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: distance", types.ErrInvalidInput), http.StatusUnprocessableEntity},
		{types.ErrUnknownVehicleClass, http.StatusUnprocessableEntity},
		{types.ErrQuoteNotFound, http.StatusNotFound},
		{types.ErrTariffNotFound, http.StatusNotFound},
		{types.ErrQuoteExpired, http.StatusGone},
		{types.ErrQuoteStale, http.StatusConflict},
		{types.ErrForbidden, http.StatusForbidden},
		{types.ErrDatabaseFailed, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := GetCode(tt.err); got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, got)
		}
	}

	if msg := ErrorMessage(types.ErrDatabaseFailed); strings.Contains(msg, "database") {
		t.Errorf("internal errors must not leak, got %q", msg)
	}
}

func TestQuoteFare(t *testing.T) {
	var got fare.QuoteRequest
	svc := &mockFareService{quoteFn: func(ctx context.Context, req fare.QuoteRequest) (models.TripQuote, error) {
		got = req
		return sampleQuote(), nil
	}}
	h := NewFare(svc, nil, testLogger())

	body := `{"vehicle_class":"compact","jurisdiction":"cr","distance_meters":2500,"duration_seconds":600}`
	rec := do(t, h.QuoteFare, http.MethodPost, "/fares/quote", body, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if got.RiderID != rider.ID || got.VehicleClass != types.CompactClass || got.Jurisdiction != "CR" {
		t.Errorf("unexpected request %+v", got)
	}
	if got.DistanceMeters == nil || *got.DistanceMeters != 2500 {
		t.Errorf("distance not passed through")
	}

	q := decode[models.TripQuote](t, rec)
	if !q.Fare.Equal(decimal.RequireFromString("1487.5")) {
		t.Errorf("unexpected fare %s", q.Fare)
	}
}

func TestQuoteFare_Rejected(t *testing.T) {
	svc := &mockFareService{quoteFn: func(ctx context.Context, req fare.QuoteRequest) (models.TripQuote, error) {
		return models.TripQuote{}, types.ErrGeocoderDisabled
	}}
	h := NewFare(svc, nil, testLogger())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"vehicle_class":`, http.StatusBadRequest},
		{"unknown field", `{"vehicle_class":"XL","speed":3}`, http.StatusBadRequest},
		{"bad class", `{"vehicle_class":"LIMO","distance_meters":10}`, http.StatusUnprocessableEntity},
		{"no route", `{"vehicle_class":"XL"}`, http.StatusUnprocessableEntity},
		{"negative distance", `{"vehicle_class":"XL","distance_meters":-1}`, http.StatusUnprocessableEntity},
		{"half coordinates", `{"vehicle_class":"XL","pickup":{"latitude":9.9},"destination":{"address":"x"}}`, http.StatusUnprocessableEntity},
		{"service error", `{"vehicle_class":"XL","pickup":{"address":"a"},"destination":{"address":"b"}}`, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h.QuoteFare, http.MethodPost, "/fares/quote", tt.body, nil)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetQuote(t *testing.T) {
	q := sampleQuote()
	svc := &mockFareService{getFn: func(ctx context.Context, id uuid.UUID) (models.TripQuote, error) {
		if id == q.ID {
			return q, nil
		}
		return models.TripQuote{}, types.ErrQuoteExpired
	}}
	h := NewFare(svc, nil, testLogger())

	rec := do(t, h.GetQuote, http.MethodGet, "/fares/"+q.ID.String(), "", map[string]string{"quote_id": q.ID.String()})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	other := uuid.NewString()
	rec = do(t, h.GetQuote, http.MethodGet, "/fares/"+other, "", map[string]string{"quote_id": other})
	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410, got %d", rec.Code)
	}

	rec = do(t, h.GetQuote, http.MethodGet, "/fares/nope", "", map[string]string{"quote_id": "nope"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdjustFare(t *testing.T) {
	q := sampleQuote()
	next := q.WithFare(uuid.New(), decimal.RequireFromString("1587.5"), time.Now(), 10*time.Minute)

	var gotDir types.Direction
	svc := &mockFareService{adjustFn: func(ctx context.Context, user *models.User, id uuid.UUID, dir types.Direction) (fare.AdjustResult, error) {
		gotDir = dir
		if id != q.ID {
			return fare.AdjustResult{}, types.ErrQuoteStale
		}
		return fare.AdjustResult{Quote: next, Previous: q, Direction: dir}, nil
	}}
	rooms := &mockRooms{}
	h := NewFare(svc, rooms, testLogger())

	rec := do(t, h.AdjustFare, http.MethodPost, "/fares/x/adjust", `{"direction":"UP"}`, map[string]string{"quote_id": q.ID.String()})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotDir != types.DirectionUp {
		t.Errorf("expected normalized direction, got %q", gotDir)
	}

	var resp struct {
		Quote    models.TripQuote `json:"quote"`
		Previous uuid.UUID        `json:"previous_quote_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Previous != q.ID || resp.Quote.ID != next.ID {
		t.Errorf("unexpected response %+v", resp)
	}

	if rooms.room != q.RootID.String() || len(rooms.msgs) != 1 {
		t.Errorf("expected broadcast to the negotiation room, got %q %d", rooms.room, len(rooms.msgs))
	}

	rec = do(t, h.AdjustFare, http.MethodPost, "/fares/x/adjust", `{"direction":"left"}`, map[string]string{"quote_id": q.ID.String()})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	stale := uuid.NewString()
	rec = do(t, h.AdjustFare, http.MethodPost, "/fares/x/adjust", `{"direction":"down"}`, map[string]string{"quote_id": stale})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestSplitFare(t *testing.T) {
	h := NewSplit(splitterFunc(func(ctx context.Context, j string, gross decimal.Decimal) (models.FareSplit, models.Tariff, error) {
		if !gross.Equal(decimal.NewFromInt(1000)) {
			return models.FareSplit{}, models.Tariff{}, types.ErrInvalidInput
		}
		return models.FareSplit{
			GrossFare:          gross,
			TaxAmount:          decimal.RequireFromString("115.04"),
			NetFare:            decimal.RequireFromString("884.96"),
			PlatformCommission: decimal.RequireFromString("132.74"),
			DriverEarnings:     decimal.RequireFromString("752.22"),
		}, models.Tariff{Jurisdiction: "CR", Currency: "CRC"}, nil
	}), testLogger())

	rec := do(t, h.SplitFare, http.MethodPost, "/fares/split", `{"gross_fare":"1000"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decode[map[string]any](t, rec)
	if resp["currency"] != "CRC" || resp["driver_earnings"] != "752.22" {
		t.Errorf("unexpected response %v", resp)
	}

	rec = do(t, h.SplitFare, http.MethodPost, "/fares/split", `{}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a missing fare, got %d", rec.Code)
	}

	rec = do(t, h.SplitFare, http.MethodPost, "/fares/split", `{"gross_fare":"-3"}`, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a negative fare, got %d", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := NewHealth("fare-service", map[string]Pinger{
		"redis": func(ctx context.Context) error { return nil },
	}, testLogger())

	rec := do(t, healthy.HealthCheck, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	degraded := NewHealth("fare-service", map[string]Pinger{
		"postgres": func(ctx context.Context) error { return errors.New("dial tcp: refused") },
	}, testLogger())

	rec = do(t, degraded.HealthCheck, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body := decode[map[string]any](t, rec); body["status"] != "degraded" {
		t.Errorf("unexpected body %v", body)
	}
}
