package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/types"
)

// TripQuote is an immutable price offer for one trip. Every negotiation step
// produces a new quote that points to its predecessor.
type TripQuote struct {
	ID       uuid.UUID  `json:"quote_id"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	// RootID is the first quote of the negotiation chain.
	RootID  uuid.UUID `json:"root_id"`
	Version int       `json:"version"`

	RiderID      string             `json:"rider_id"`
	Jurisdiction string             `json:"jurisdiction"`
	VehicleClass types.VehicleClass `json:"vehicle_class"`
	Pickup       *Location          `json:"pickup,omitempty"`
	Destination  *Location          `json:"destination,omitempty"`

	DistanceMeters    float64         `json:"distance_meters"`
	DurationSeconds   float64         `json:"duration_seconds"`
	VehicleCostFactor decimal.Decimal `json:"vehicle_cost_factor"`

	// BaseFare is the calculated price, Fare the currently negotiated one.
	BaseFare decimal.Decimal `json:"base_fare"`
	Fare     decimal.Decimal `json:"fare"`
	Currency string          `json:"currency"`

	// Fingerprint identifies the rider + route + class combination for idempotent re-quotes.
	Fingerprint string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the quote is no longer valid at now.
func (q TripQuote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// WithFare derives the next negotiation step. The receiver is left untouched.
func (q TripQuote) WithFare(id uuid.UUID, fare decimal.Decimal, now time.Time, ttl time.Duration) TripQuote {
	parent := q.ID
	next := q
	next.ID = id
	next.ParentID = &parent
	next.Version = q.Version + 1
	next.Fare = fare
	next.CreatedAt = now
	next.ExpiresAt = now.Add(ttl)
	return next
}
