package farecalc

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
)

// splitPlaces is the accounting precision of every split amount.
const splitPlaces = 2

// SplitFare partitions a tax-inclusive fare. The driver gets the remainder of
// the net fare, so commission + driver + tax always adds up to the gross fare.
func SplitFare(gross decimal.Decimal, t models.Tariff) (models.FareSplit, error) {
	if gross.IsNegative() {
		return models.FareSplit{}, fmt.Errorf("%w: gross fare must be >= 0", types.ErrInvalidInput)
	}

	net := gross.Div(one.Add(t.TaxRate)).Round(splitPlaces)
	commission := net.Mul(t.CommissionRate).Round(splitPlaces)

	return models.FareSplit{
		GrossFare:          gross,
		TaxAmount:          gross.Sub(net),
		NetFare:            net,
		PlatformCommission: commission,
		DriverEarnings:     net.Sub(commission),
	}, nil
}
