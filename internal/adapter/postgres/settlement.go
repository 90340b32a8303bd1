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
	pg "github.com/kompa2go/kommute-fare/pkg/postgres"
)

type SettlementRepo struct {
	db *pgxpool.Pool
}

func NewSettlementRepo(db *pgxpool.Pool) *SettlementRepo {
	return &SettlementRepo{
		db: db,
	}
}

// Create inserts a settlement. A second settlement of the same trip returns ErrSettlementExists.
func (r *SettlementRepo) Create(ctx context.Context, s models.Settlement) (err error) {
	defer observe("settlement_create", time.Now(), &err)

	const q = `
INSERT INTO settlements (
	id, trip_id, quote_id, driver_id, jurisdiction, currency,
	gross_fare, tax_amount, net_fare, platform_commission, driver_earnings,
	completed_at, settled_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = TxorDB(ctx, r.db).Exec(ctx, q,
		s.ID,
		s.TripID,
		s.QuoteID,
		s.DriverID,
		s.Jurisdiction,
		s.Currency,
		s.GrossFare,
		s.TaxAmount,
		s.NetFare,
		s.PlatformCommission,
		s.DriverEarnings,
		s.CompletedAt,
		s.SettledAt,
	)
	if err != nil {
		if pg.IsUniqueViolation(err) {
			return types.ErrSettlementExists
		}
		return fmt.Errorf("%w: create settlement: %v", types.ErrDatabaseFailed, err)
	}
	return nil
}

func (r *SettlementRepo) GetByTrip(ctx context.Context, tripID string) (_ models.Settlement, err error) {
	defer observe("settlement_get", time.Now(), &err)

	var s models.Settlement
	err = TxorDB(ctx, r.db).QueryRow(ctx, `
SELECT id, trip_id, quote_id, driver_id, jurisdiction, currency,
	gross_fare, tax_amount, net_fare, platform_commission, driver_earnings,
	completed_at, settled_at
FROM settlements WHERE trip_id = $1`, tripID).Scan(
		&s.ID,
		&s.TripID,
		&s.QuoteID,
		&s.DriverID,
		&s.Jurisdiction,
		&s.Currency,
		&s.GrossFare,
		&s.TaxAmount,
		&s.NetFare,
		&s.PlatformCommission,
		&s.DriverEarnings,
		&s.CompletedAt,
		&s.SettledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Settlement{}, types.ErrNotFound
		}
		return models.Settlement{}, fmt.Errorf("%w: get settlement: %v", types.ErrDatabaseFailed, err)
	}
	return s, nil
}

// Totals sums the settlements of a jurisdiction completed in [from, to).
func (r *SettlementRepo) Totals(ctx context.Context, jurisdiction string, from, to time.Time) (_ models.RevenueProjection, err error) {
	defer observe("settlement_totals", time.Now(), &err)

	var p models.RevenueProjection
	err = TxorDB(ctx, r.db).QueryRow(ctx, `
SELECT
	COUNT(*),
	COALESCE(SUM(platform_commission), 0),
	COALESCE(SUM(driver_earnings), 0),
	COALESCE(SUM(tax_amount), 0),
	COALESCE(SUM(gross_fare), 0)
FROM settlements
WHERE jurisdiction = $1 AND completed_at >= $2 AND completed_at < $3`,
		jurisdiction, from, to,
	).Scan(
		&p.Trips,
		&p.Revenue,
		&p.DriverEarnings,
		&p.IVACollected,
		&p.GrossBookings,
	)
	if err != nil {
		return models.RevenueProjection{}, fmt.Errorf("%w: settlement totals: %v", types.ErrDatabaseFailed, err)
	}
	return p, nil
}
