package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/pkg/validator"
)

type TariffReq struct {
	Currency        string           `json:"currency"`
	BaseFare        *decimal.Decimal `json:"base_fare"`
	PerKmRate       *decimal.Decimal `json:"per_km_rate"`
	PerMinuteRate   *decimal.Decimal `json:"per_minute_rate"`
	CommissionRate  *decimal.Decimal `json:"commission_rate"`
	DriverShareRate *decimal.Decimal `json:"driver_share_rate"`
	TaxRate         *decimal.Decimal `json:"tax_rate"`
	MinFare         *decimal.Decimal `json:"min_fare"`
	MaxFare         *decimal.Decimal `json:"max_fare"`
	AdjustmentStep  *decimal.Decimal `json:"adjustment_step"`
	Precision       int32            `json:"precision"`
}

func (r *TariffReq) Validate(v *validator.Validator, jurisdiction string) {
	v.Check(validator.Matches(strings.ToUpper(jurisdiction), validator.JurisdictionRX), "jurisdiction", "must be an ISO 3166 code")

	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	v.Check(len(r.Currency) == 3, "currency", "must be an ISO 4217 code")

	for name, d := range map[string]*decimal.Decimal{
		"base_fare":         r.BaseFare,
		"per_km_rate":       r.PerKmRate,
		"per_minute_rate":   r.PerMinuteRate,
		"commission_rate":   r.CommissionRate,
		"driver_share_rate": r.DriverShareRate,
		"tax_rate":          r.TaxRate,
		"min_fare":          r.MinFare,
		"max_fare":          r.MaxFare,
		"adjustment_step":   r.AdjustmentStep,
	} {
		v.Check(d != nil, name, "must be provided")
	}
	v.Check(validator.Between(r.Precision, 0, 4), "precision", "must be between 0 and 4")
}

// ToModel must be called after Validate.
func (r *TariffReq) ToModel(jurisdiction string) models.Tariff {
	return models.Tariff{
		Jurisdiction:    strings.ToUpper(jurisdiction),
		Currency:        r.Currency,
		BaseFare:        *r.BaseFare,
		PerKmRate:       *r.PerKmRate,
		PerMinuteRate:   *r.PerMinuteRate,
		CommissionRate:  *r.CommissionRate,
		DriverShareRate: *r.DriverShareRate,
		TaxRate:         *r.TaxRate,
		MinFare:         *r.MinFare,
		MaxFare:         *r.MaxFare,
		AdjustmentStep:  *r.AdjustmentStep,
		Precision:       r.Precision,
	}
}
