package settlement

import (
	"context"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
)

type SettlementRepo interface {
	Create(ctx context.Context, s models.Settlement) error
	GetByTrip(ctx context.Context, tripID string) (models.Settlement, error)
}

type TariffProvider interface {
	Tariff(ctx context.Context, jurisdiction string) (models.Tariff, error)
}

type Publisher interface {
	PublishFareSettled(ctx context.Context, msg models.FareSettledMessage) error
}
