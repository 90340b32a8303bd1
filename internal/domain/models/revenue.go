package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/types"
)

// RevenueProjection aggregates per-trip splits over one reporting period.
// Revenue is the platform commission total.
type RevenueProjection struct {
	Period         types.Period    `json:"period"`
	Trips          int64           `json:"trips"`
	Revenue        decimal.Decimal `json:"revenue"`
	DriverEarnings decimal.Decimal `json:"driver_earnings"`
	IVACollected   decimal.Decimal `json:"iva_collected"`
	GrossBookings  decimal.Decimal `json:"gross_bookings"`
}

type RevenueEstimate struct {
	Jurisdiction   string          `json:"jurisdiction"`
	Currency       string          `json:"currency"`
	TripsPerDay    int64           `json:"trips_per_day"`
	AvgFareExclTax decimal.Decimal `json:"avg_fare_excl_tax"`
	PerTrip        FareSplit       `json:"per_trip"`

	Daily   RevenueProjection `json:"daily"`
	Weekly  RevenueProjection `json:"weekly"`
	Monthly RevenueProjection `json:"monthly"`
	Annual  RevenueProjection `json:"annual"`
}

// Projections returns the four periods in reporting order.
func (e RevenueEstimate) Projections() []RevenueProjection {
	return []RevenueProjection{e.Daily, e.Weekly, e.Monthly, e.Annual}
}

// SettledRevenue sums persisted settlements of a jurisdiction inside [From, To).
type SettledRevenue struct {
	Jurisdiction string    `json:"jurisdiction"`
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`

	RevenueProjection
}
