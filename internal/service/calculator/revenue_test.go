package farecalc

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/types"
)

func TestEstimateRevenue_Scaling(t *testing.T) {
	est, err := EstimateRevenue(120, d("884.96"), testTariff())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !est.PerTrip.NetFare.Equal(d("884.96")) {
		t.Fatalf("per-trip net fare must equal the average, got %s", est.PerTrip.NetFare)
	}

	for _, p := range est.Projections() {
		days := int64(p.Period.Days())
		if p.Trips != est.Daily.Trips*days {
			t.Errorf("%s: expected %d trips, got %d", p.Period, est.Daily.Trips*days, p.Trips)
		}

		n := decimal.NewFromInt(days)
		if !p.Revenue.Equal(est.Daily.Revenue.Mul(n)) {
			t.Errorf("%s: revenue %s is not %d x daily %s", p.Period, p.Revenue, days, est.Daily.Revenue)
		}
		if !p.DriverEarnings.Equal(est.Daily.DriverEarnings.Mul(n)) {
			t.Errorf("%s: driver earnings do not scale linearly", p.Period)
		}
		if !p.IVACollected.Equal(est.Daily.IVACollected.Mul(n)) {
			t.Errorf("%s: IVA does not scale linearly", p.Period)
		}
	}

	if est.Weekly.Trips != 7*est.Daily.Trips {
		t.Fatalf("weekly trips must be 7x daily")
	}
	if !est.Daily.Revenue.Equal(d("132.74").Mul(decimal.NewFromInt(120))) {
		t.Fatalf("unexpected daily revenue %s", est.Daily.Revenue)
	}
}

func TestEstimateRevenue_ZeroTrips(t *testing.T) {
	est, err := EstimateRevenue(0, d("1500"), testTariff())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range est.Projections() {
		if p.Trips != 0 || !p.Revenue.IsZero() || !p.GrossBookings.IsZero() {
			t.Fatalf("%s: expected empty projection, got %+v", p.Period, p)
		}
	}
}

func TestEstimateRevenue_InvalidInput(t *testing.T) {
	if _, err := EstimateRevenue(-1, d("1000"), testTariff()); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative trips, got %v", err)
	}
	if _, err := EstimateRevenue(10, d("-1"), testTariff()); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative fare, got %v", err)
	}
}

func TestEstimateRevenue_TripVolumeLimit(t *testing.T) {
	if _, err := EstimateRevenue(100_000_000_000_000_000, d("1000"), testTariff()); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for trips beyond the limit, got %v", err)
	}

	est, err := EstimateRevenue(MaxTripsPerDay, d("1000"), testTariff())
	if err != nil {
		t.Fatalf("unexpected error at the limit: %v", err)
	}
	if est.Annual.Trips != MaxTripsPerDay*365 || est.Annual.Trips < 0 {
		t.Fatalf("annual trips overflowed: %d", est.Annual.Trips)
	}
	if est.Annual.Revenue.IsNegative() || est.Weekly.Trips != 7*est.Daily.Trips {
		t.Fatalf("unexpected projection %+v", est.Annual)
	}
}
