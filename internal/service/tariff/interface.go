package tariff

import (
	"context"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
)

type Repo interface {
	Get(ctx context.Context, jurisdiction string) (models.Tariff, error)
	List(ctx context.Context) ([]models.Tariff, error)
	Upsert(ctx context.Context, t models.Tariff) (models.Tariff, error)
}
