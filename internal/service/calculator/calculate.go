// Package farecalc holds the pure fare engine: trip pricing, bounded
// negotiation, fare splitting and revenue projection. Every function is
// deterministic and safe for concurrent use.
package farecalc

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
)

var (
	one      = decimal.NewFromInt(1)
	sixty    = decimal.NewFromInt(60)
	thousand = decimal.NewFromInt(1000)
)

// CalculateTripPrice prices a trip:
// (base + km*perKm + min*perMinute) * costFactor, rounded to the tariff
// precision and clamped to [MinFare, MaxFare].
func CalculateTripPrice(distanceMeters, durationSeconds float64, costFactor decimal.Decimal, t models.Tariff) (decimal.Decimal, error) {
	if !finite(distanceMeters) || distanceMeters < 0 {
		return decimal.Zero, fmt.Errorf("%w: distance must be >= 0", types.ErrInvalidInput)
	}
	if !finite(durationSeconds) || durationSeconds < 0 {
		return decimal.Zero, fmt.Errorf("%w: duration must be >= 0", types.ErrInvalidInput)
	}
	if !costFactor.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: vehicle cost factor must be > 0", types.ErrInvalidInput)
	}

	distance := decimal.NewFromFloat(distanceMeters).Mul(t.PerKmRate).Div(thousand)
	duration := decimal.NewFromFloat(durationSeconds).Mul(t.PerMinuteRate).Div(sixty)

	raw := t.BaseFare.Add(distance).Add(duration)
	adjusted := raw.Mul(costFactor).Round(t.Precision)

	return clamp(adjusted, t.MinFare, t.MaxFare), nil
}

// AdjustPrice moves a fare one adjustment step in the given direction.
// At a bound the fare stays where it is.
func AdjustPrice(current decimal.Decimal, direction types.Direction, t models.Tariff) (decimal.Decimal, error) {
	if current.LessThan(t.MinFare) || current.GreaterThan(t.MaxFare) {
		return decimal.Zero, fmt.Errorf("%w: fare %s is outside [%s, %s]", types.ErrInvalidInput, current, t.MinFare, t.MaxFare)
	}

	switch direction {
	case types.DirectionUp:
		return decimal.Min(current.Add(t.AdjustmentStep), t.MaxFare), nil
	case types.DirectionDown:
		return decimal.Max(current.Sub(t.AdjustmentStep), t.MinFare), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown direction %q", types.ErrInvalidInput, direction)
	}
}

// Saturated reports whether a fare cannot move further in the direction.
func Saturated(fare decimal.Decimal, direction types.Direction, t models.Tariff) bool {
	if direction == types.DirectionUp {
		return fare.GreaterThanOrEqual(t.MaxFare)
	}
	return fare.LessThanOrEqual(t.MinFare)
}

// ClampFare brings a fare into the tariff's [MinFare, MaxFare] range.
func ClampFare(fare decimal.Decimal, t models.Tariff) decimal.Decimal {
	return clamp(fare, t.MinFare, t.MaxFare)
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Max(lo, decimal.Min(v, hi))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
