package admin

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
)

type SettlementRepository interface {
	GetByTrip(ctx context.Context, tripID string) (models.Settlement, error)
	Totals(ctx context.Context, jurisdiction string, from, to time.Time) (models.RevenueProjection, error)
}

type TariffService interface {
	Tariff(ctx context.Context, jurisdiction string) (models.Tariff, error)
	List(ctx context.Context) ([]models.Tariff, error)
	Put(ctx context.Context, t models.Tariff) (models.Tariff, error)
	Split(ctx context.Context, jurisdiction string, gross decimal.Decimal) (models.FareSplit, models.Tariff, error)
}
