package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/types"
)

/* ======================= rabbitmq ======================= */

type FareQuotedMessage struct {
	QuoteID       uuid.UUID          `json:"quote_id"`
	RiderID       string             `json:"rider_id"`
	Jurisdiction  string             `json:"jurisdiction"`
	VehicleClass  types.VehicleClass `json:"vehicle_class"`
	Fare          decimal.Decimal    `json:"fare"`
	Currency      string             `json:"currency"`
	ExpiresAt     time.Time          `json:"expires_at"`
	CorrelationID string             `json:"correlation_id"`
}

type FareAdjustedMessage struct {
	QuoteID       uuid.UUID       `json:"quote_id"`
	ParentID      uuid.UUID       `json:"parent_id"`
	Direction     types.Direction `json:"direction"`
	PreviousFare  decimal.Decimal `json:"previous_fare"`
	Fare          decimal.Decimal `json:"fare"`
	Saturated     bool            `json:"saturated"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id"`
}

// TripCompletedMessage arrives from the trip service once a ride ends.
type TripCompletedMessage struct {
	TripID        string          `json:"trip_id"`
	QuoteID       *uuid.UUID      `json:"quote_id,omitempty"`
	DriverID      string          `json:"driver_id"`
	Jurisdiction  string          `json:"jurisdiction"`
	FinalFare     decimal.Decimal `json:"final_fare"`
	CompletedAt   time.Time       `json:"completed_at"`
	CorrelationID string          `json:"correlation_id"`
}

type FareSettledMessage struct {
	SettlementID  uuid.UUID `json:"settlement_id"`
	TripID        string    `json:"trip_id"`
	DriverID      string    `json:"driver_id"`
	Jurisdiction  string    `json:"jurisdiction"`
	Currency      string    `json:"currency"`
	Split         FareSplit `json:"split"`
	SettledAt     time.Time `json:"settled_at"`
	CorrelationID string    `json:"correlation_id"`
}

/* ======================= websocket ======================= */

type NegotiationUpdate struct {
	Type      string          `json:"type"` // "fare_update"
	Quote     TripQuote       `json:"quote"`
	Direction types.Direction `json:"direction"`
	Saturated bool            `json:"saturated"`
}
