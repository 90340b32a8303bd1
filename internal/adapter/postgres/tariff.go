package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
)

type TariffRepo struct {
	db *pgxpool.Pool
}

func NewTariffRepo(db *pgxpool.Pool) *TariffRepo {
	return &TariffRepo{
		db: db,
	}
}

const tariffColumns = `
	jurisdiction, currency, base_fare, per_km_rate, per_minute_rate,
	commission_rate, driver_share_rate, tax_rate, min_fare, max_fare,
	adjustment_step, fare_precision, updated_at`

func scanTariff(row pgx.Row) (models.Tariff, error) {
	var t models.Tariff
	err := row.Scan(
		&t.Jurisdiction,
		&t.Currency,
		&t.BaseFare,
		&t.PerKmRate,
		&t.PerMinuteRate,
		&t.CommissionRate,
		&t.DriverShareRate,
		&t.TaxRate,
		&t.MinFare,
		&t.MaxFare,
		&t.AdjustmentStep,
		&t.Precision,
		&t.UpdatedAt,
	)
	return t, err
}

func (r *TariffRepo) Get(ctx context.Context, jurisdiction string) (_ models.Tariff, err error) {
	defer observe("tariff_get", time.Now(), &err)

	t, err := scanTariff(TxorDB(ctx, r.db).QueryRow(ctx,
		`SELECT `+tariffColumns+` FROM tariffs WHERE jurisdiction = $1`, jurisdiction))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tariff{}, types.ErrTariffNotFound
		}
		return models.Tariff{}, fmt.Errorf("%w: get tariff: %v", types.ErrDatabaseFailed, err)
	}
	return t, nil
}

func (r *TariffRepo) List(ctx context.Context) (_ []models.Tariff, err error) {
	defer observe("tariff_list", time.Now(), &err)

	rows, err := TxorDB(ctx, r.db).Query(ctx, `SELECT `+tariffColumns+` FROM tariffs ORDER BY jurisdiction`)
	if err != nil {
		return nil, fmt.Errorf("%w: list tariffs: %v", types.ErrDatabaseFailed, err)
	}
	defer rows.Close()

	tariffs := make([]models.Tariff, 0)
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan tariff: %v", types.ErrDatabaseFailed, err)
		}
		tariffs = append(tariffs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list tariffs: %v", types.ErrDatabaseFailed, err)
	}

	return tariffs, nil
}

// Upsert creates or replaces the tariff of a jurisdiction.
func (r *TariffRepo) Upsert(ctx context.Context, t models.Tariff) (_ models.Tariff, err error) {
	defer observe("tariff_upsert", time.Now(), &err)

	const q = `
INSERT INTO tariffs (` + tariffColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
ON CONFLICT (jurisdiction) DO UPDATE SET
	currency          = EXCLUDED.currency,
	base_fare         = EXCLUDED.base_fare,
	per_km_rate       = EXCLUDED.per_km_rate,
	per_minute_rate   = EXCLUDED.per_minute_rate,
	commission_rate   = EXCLUDED.commission_rate,
	driver_share_rate = EXCLUDED.driver_share_rate,
	tax_rate          = EXCLUDED.tax_rate,
	min_fare          = EXCLUDED.min_fare,
	max_fare          = EXCLUDED.max_fare,
	adjustment_step   = EXCLUDED.adjustment_step,
	fare_precision    = EXCLUDED.fare_precision,
	updated_at        = now()
RETURNING ` + tariffColumns

	saved, err := scanTariff(TxorDB(ctx, r.db).QueryRow(ctx, q,
		t.Jurisdiction,
		t.Currency,
		t.BaseFare,
		t.PerKmRate,
		t.PerMinuteRate,
		t.CommissionRate,
		t.DriverShareRate,
		t.TaxRate,
		t.MinFare,
		t.MaxFare,
		t.AdjustmentStep,
		t.Precision,
	))
	if err != nil {
		return models.Tariff{}, fmt.Errorf("%w: upsert tariff: %v", types.ErrDatabaseFailed, err)
	}
	return saved, nil
}

// InsertIfMissing seeds a tariff without touching an existing row.
func (r *TariffRepo) InsertIfMissing(ctx context.Context, t models.Tariff) (inserted bool, err error) {
	defer observe("tariff_seed", time.Now(), &err)

	tag, err := TxorDB(ctx, r.db).Exec(ctx, `
INSERT INTO tariffs (`+tariffColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
ON CONFLICT (jurisdiction) DO NOTHING`,
		t.Jurisdiction, t.Currency, t.BaseFare, t.PerKmRate, t.PerMinuteRate,
		t.CommissionRate, t.DriverShareRate, t.TaxRate, t.MinFare, t.MaxFare,
		t.AdjustmentStep, t.Precision,
	)
	if err != nil {
		return false, fmt.Errorf("%w: seed tariff: %v", types.ErrDatabaseFailed, err)
	}
	return tag.RowsAffected() == 1, nil
}
