package farecalc

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
)

// MaxTripsPerDay keeps the annual trip count within int64.
const MaxTripsPerDay = math.MaxInt64 / 365

// EstimateRevenue projects one average trip over daily, weekly, monthly and
// annual volumes. avgFareExclTax is the average net price of a trip.
func EstimateRevenue(tripsPerDay int64, avgFareExclTax decimal.Decimal, t models.Tariff) (models.RevenueEstimate, error) {
	if tripsPerDay < 0 {
		return models.RevenueEstimate{}, fmt.Errorf("%w: trips per day must be >= 0", types.ErrInvalidInput)
	}
	if tripsPerDay > MaxTripsPerDay {
		return models.RevenueEstimate{}, fmt.Errorf("%w: trips per day must be <= %d", types.ErrInvalidInput, int64(MaxTripsPerDay))
	}
	if avgFareExclTax.IsNegative() {
		return models.RevenueEstimate{}, fmt.Errorf("%w: average fare must be >= 0", types.ErrInvalidInput)
	}

	gross := avgFareExclTax.Mul(one.Add(t.TaxRate))
	split, err := SplitFare(gross, t)
	if err != nil {
		return models.RevenueEstimate{}, err
	}

	return models.RevenueEstimate{
		Jurisdiction:   t.Jurisdiction,
		Currency:       t.Currency,
		TripsPerDay:    tripsPerDay,
		AvgFareExclTax: avgFareExclTax,
		PerTrip:        split,
		Daily:          Project(types.Daily, tripsPerDay, split),
		Weekly:         Project(types.Weekly, tripsPerDay, split),
		Monthly:        Project(types.Monthly, tripsPerDay, split),
		Annual:         Project(types.Annual, tripsPerDay, split),
	}, nil
}

// Project multiplies a per-trip split by the trip count of the period.
func Project(period types.Period, tripsPerDay int64, perTrip models.FareSplit) models.RevenueProjection {
	trips := tripsPerDay * int64(period.Days())
	n := decimal.NewFromInt(trips)

	return models.RevenueProjection{
		Period:         period,
		Trips:          trips,
		Revenue:        perTrip.PlatformCommission.Mul(n),
		DriverEarnings: perTrip.DriverEarnings.Mul(n),
		IVACollected:   perTrip.TaxAmount.Mul(n),
		GrossBookings:  perTrip.GrossFare.Mul(n),
	}
}
