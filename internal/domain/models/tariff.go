package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/types"
)

// rateSumTolerance bounds |commission + driver share - 1|.
var rateSumTolerance = decimal.RequireFromString("0.0001")

// Tariff is the pricing table of a single jurisdiction.
type Tariff struct {
	Jurisdiction    string          `json:"jurisdiction"`
	Currency        string          `json:"currency"`
	BaseFare        decimal.Decimal `json:"base_fare"`
	PerKmRate       decimal.Decimal `json:"per_km_rate"`
	PerMinuteRate   decimal.Decimal `json:"per_minute_rate"`
	CommissionRate  decimal.Decimal `json:"commission_rate"`
	DriverShareRate decimal.Decimal `json:"driver_share_rate"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	MinFare         decimal.Decimal `json:"min_fare"`
	MaxFare         decimal.Decimal `json:"max_fare"`
	AdjustmentStep  decimal.Decimal `json:"adjustment_step"`

	// Precision is the number of minor-unit places fares are rounded to (0 for CRC).
	Precision int32     `json:"precision"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Validate checks the internal consistency of the tariff table.
func (t Tariff) Validate() error {
	if t.Jurisdiction == "" {
		return fmt.Errorf("%w: jurisdiction must be provided", types.ErrInvalidTariff)
	}
	if t.Currency == "" {
		return fmt.Errorf("%w: currency must be provided", types.ErrInvalidTariff)
	}

	for name, v := range map[string]decimal.Decimal{
		"base_fare":       t.BaseFare,
		"per_km_rate":     t.PerKmRate,
		"per_minute_rate": t.PerMinuteRate,
		"min_fare":        t.MinFare,
		"max_fare":        t.MaxFare,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", types.ErrInvalidTariff, name)
		}
	}

	for name, v := range map[string]decimal.Decimal{
		"commission_rate":   t.CommissionRate,
		"driver_share_rate": t.DriverShareRate,
		"tax_rate":          t.TaxRate,
	} {
		if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: %s must be between 0 and 1", types.ErrInvalidTariff, name)
		}
	}

	if t.CommissionRate.Add(t.DriverShareRate).Sub(decimal.NewFromInt(1)).Abs().GreaterThan(rateSumTolerance) {
		return fmt.Errorf("%w: commission_rate and driver_share_rate must add up to 1", types.ErrInvalidTariff)
	}
	if t.MinFare.GreaterThan(t.MaxFare) {
		return fmt.Errorf("%w: min_fare must not exceed max_fare", types.ErrInvalidTariff)
	}
	if !t.AdjustmentStep.IsPositive() {
		return fmt.Errorf("%w: adjustment_step must be positive", types.ErrInvalidTariff)
	}
	if t.Precision < 0 || t.Precision > 4 {
		return fmt.Errorf("%w: precision must be between 0 and 4", types.ErrInvalidTariff)
	}

	return nil
}
