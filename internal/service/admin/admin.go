package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	farecalc "github.com/kompa2go/kommute-fare/internal/service/calculator"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
)

type AdminService struct {
	settlements SettlementRepository
	tariffs     TariffService
	now         func() time.Time
	l           logger.Logger
}

func NewAdminService(settlements SettlementRepository, tariffs TariffService, l logger.Logger) *AdminService {
	return &AdminService{
		settlements: settlements,
		tariffs:     tariffs,
		now:         time.Now,
		l:           l,
	}
}

// EstimateRevenue projects the platform revenue of a jurisdiction for a
// given trip volume and average fare before tax.
func (s *AdminService) EstimateRevenue(ctx context.Context, jurisdiction string, tripsPerDay int64, avgFareExclTax decimal.Decimal) (models.RevenueEstimate, error) {
	ctx = wrap.WithAction(ctx, "estimate_revenue")

	tariff, err := s.tariffs.Tariff(ctx, jurisdiction)
	if err != nil {
		return models.RevenueEstimate{}, wrap.Error(ctx, err)
	}

	estimate, err := farecalc.EstimateRevenue(tripsPerDay, avgFareExclTax, tariff)
	if err != nil {
		return models.RevenueEstimate{}, wrap.Error(ctx, err)
	}
	return estimate, nil
}

// SettledRevenue sums the trips settled during the period that ends now.
func (s *AdminService) SettledRevenue(ctx context.Context, jurisdiction string, period types.Period) (models.SettledRevenue, error) {
	ctx = wrap.WithAction(ctx, "settled_revenue")

	days := period.Days()
	if days == 0 {
		return models.SettledRevenue{}, wrap.Error(ctx, fmt.Errorf("%w: unknown period %q", types.ErrInvalidInput, period))
	}

	tariff, err := s.tariffs.Tariff(ctx, jurisdiction)
	if err != nil {
		return models.SettledRevenue{}, wrap.Error(ctx, err)
	}

	to := s.now().UTC()
	from := to.AddDate(0, 0, -days)

	totals, err := s.settlements.Totals(ctx, tariff.Jurisdiction, from, to)
	if err != nil {
		return models.SettledRevenue{}, wrap.Error(ctx, err)
	}
	totals.Period = period

	return models.SettledRevenue{
		Jurisdiction:      tariff.Jurisdiction,
		From:              from,
		To:                to,
		RevenueProjection: totals,
	}, nil
}

func (s *AdminService) GetSettlement(ctx context.Context, tripID string) (models.Settlement, error) {
	ctx = wrap.WithTripID(wrap.WithAction(ctx, "get_settlement"), tripID)

	settlement, err := s.settlements.GetByTrip(ctx, tripID)
	if err != nil {
		return models.Settlement{}, wrap.Error(ctx, err)
	}
	return settlement, nil
}

func (s *AdminService) Split(ctx context.Context, jurisdiction string, gross decimal.Decimal) (models.FareSplit, models.Tariff, error) {
	return s.tariffs.Split(ctx, jurisdiction, gross)
}

func (s *AdminService) ListTariffs(ctx context.Context) ([]models.Tariff, error) {
	return s.tariffs.List(ctx)
}

func (s *AdminService) GetTariff(ctx context.Context, jurisdiction string) (models.Tariff, error) {
	return s.tariffs.Tariff(ctx, jurisdiction)
}

func (s *AdminService) PutTariff(ctx context.Context, t models.Tariff) (models.Tariff, error) {
	return s.tariffs.Put(ctx, t)
}
