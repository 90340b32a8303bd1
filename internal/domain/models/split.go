package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FareSplit partitions a tax-inclusive fare. It is always recomputed from the fare.
type FareSplit struct {
	GrossFare          decimal.Decimal `json:"gross_fare"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	NetFare            decimal.Decimal `json:"net_fare"`
	PlatformCommission decimal.Decimal `json:"platform_commission"`
	DriverEarnings     decimal.Decimal `json:"driver_earnings"`
}

// Settlement is the persisted split of a completed trip.
type Settlement struct {
	ID           uuid.UUID  `json:"settlement_id"`
	TripID       string     `json:"trip_id"`
	QuoteID      *uuid.UUID `json:"quote_id,omitempty"`
	DriverID     string     `json:"driver_id"`
	Jurisdiction string     `json:"jurisdiction"`
	Currency     string     `json:"currency"`

	FareSplit

	CompletedAt time.Time `json:"completed_at"`
	SettledAt   time.Time `json:"settled_at"`
}
