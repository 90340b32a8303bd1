package fare

import (
	"context"

	"github.com/google/uuid"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
)

/*=================Quote Repository======================*/

type QuoteRepo interface {
	Save(ctx context.Context, q models.TripQuote) error
	Get(ctx context.Context, id uuid.UUID) (models.TripQuote, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (models.TripQuote, error)
	Supersede(ctx context.Context, next models.TripQuote) error
	Next(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error)
}

/*=================Tariff Provider=======================*/

type TariffProvider interface {
	Tariff(ctx context.Context, jurisdiction string) (models.Tariff, error)
}

/*=================Event Publisher=======================*/

type Publisher interface {
	PublishFareQuoted(ctx context.Context, msg models.FareQuotedMessage) error
	PublishFareAdjusted(ctx context.Context, msg models.FareAdjustedMessage) error
}

/*===================== Address Geo Coder ========================*/

type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Location, error)
}
