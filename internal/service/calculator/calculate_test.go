package farecalc

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testTariff() models.Tariff {
	return models.Tariff{
		Jurisdiction:    "CR",
		Currency:        "CRC",
		BaseFare:        d("500"),
		PerKmRate:       d("300"),
		PerMinuteRate:   d("50"),
		CommissionRate:  d("0.15"),
		DriverShareRate: d("0.85"),
		TaxRate:         d("0.13"),
		MinFare:         d("1000"),
		MaxFare:         d("50000"),
		AdjustmentStep:  d("100"),
		Precision:       2,
	}
}

func TestCalculateTripPrice_Scenario(t *testing.T) {
	got, err := CalculateTripPrice(2500, 600, d("0.85"), testTariff())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(d("1487.5")) {
		t.Fatalf("expected 1487.5, got %s", got)
	}
}

func TestCalculateTripPrice_WholeUnitRounding(t *testing.T) {
	tariff := testTariff()
	tariff.Precision = 0

	got, err := CalculateTripPrice(2500, 600, d("0.85"), tariff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(d("1488")) {
		t.Fatalf("expected 1488, got %s", got)
	}
}

func TestCalculateTripPrice_Clamping(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		duration float64
		factor   string
		want     string
	}{
		{name: "zero trip hits floor", distance: 0, duration: 0, factor: "1", want: "1000"},
		{name: "short compact trip hits floor", distance: 500, duration: 60, factor: "0.85", want: "1000"},
		{name: "long trip hits ceiling", distance: 500_000, duration: 30_000, factor: "1.25", want: "50000"},
		{name: "inside bounds", distance: 10_000, duration: 1200, factor: "1", want: "4500"},
		{name: "xl inside bounds", distance: 10_000, duration: 1200, factor: "1.25", want: "5625"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CalculateTripPrice(tt.distance, tt.duration, d(tt.factor), testTariff())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(d(tt.want)) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCalculateTripPrice_AlwaysWithinBounds(t *testing.T) {
	tariff := testTariff()
	rnd := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 1000; i++ {
		distance := rnd.Float64() * 200_000
		duration := rnd.Float64() * 10_000
		factor := decimal.NewFromFloat(0.01 + rnd.Float64()*3).Round(2)

		got, err := CalculateTripPrice(distance, duration, factor, tariff)
		if err != nil {
			t.Fatalf("unexpected error for %v/%v/%s: %v", distance, duration, factor, err)
		}
		if got.LessThan(tariff.MinFare) || got.GreaterThan(tariff.MaxFare) {
			t.Fatalf("fare %s outside bounds for %v/%v/%s", got, distance, duration, factor)
		}
	}
}

func TestCalculateTripPrice_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		duration float64
		factor   string
	}{
		{name: "negative distance", distance: -1, duration: 10, factor: "1"},
		{name: "negative duration", distance: 10, duration: -1, factor: "1"},
		{name: "zero factor", distance: 10, duration: 10, factor: "0"},
		{name: "negative factor", distance: 10, duration: 10, factor: "-0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CalculateTripPrice(tt.distance, tt.duration, d(tt.factor), testTariff())
			if !errors.Is(err, types.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if _, err := CalculateTripPrice(math.NaN(), 10, d("1"), testTariff()); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for NaN distance, got %v", err)
	}
	if _, err := CalculateTripPrice(10, math.Inf(1), d("1"), testTariff()); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for infinite duration, got %v", err)
	}
}

func TestAdjustPrice(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		direction types.Direction
		want      string
	}{
		{name: "up", current: "1500", direction: types.DirectionUp, want: "1600"},
		{name: "down", current: "1500", direction: types.DirectionDown, want: "1400"},
		{name: "up saturates at max", current: "50000", direction: types.DirectionUp, want: "50000"},
		{name: "down saturates at min", current: "1000", direction: types.DirectionDown, want: "1000"},
		{name: "up stops at max", current: "49950", direction: types.DirectionUp, want: "50000"},
		{name: "down stops at min", current: "1050", direction: types.DirectionDown, want: "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AdjustPrice(d(tt.current), tt.direction, testTariff())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(d(tt.want)) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAdjustPrice_Monotonic(t *testing.T) {
	tariff := testTariff()

	for f := tariff.MinFare; f.LessThanOrEqual(tariff.MaxFare); f = f.Add(d("337.5")) {
		up, err := AdjustPrice(f, types.DirectionUp, tariff)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		down, err := AdjustPrice(f, types.DirectionDown, tariff)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if up.LessThan(f) || down.GreaterThan(f) {
			t.Fatalf("adjustment of %s went the wrong way: up=%s down=%s", f, up, down)
		}
		for _, v := range []decimal.Decimal{up, down} {
			if v.LessThan(tariff.MinFare) || v.GreaterThan(tariff.MaxFare) {
				t.Fatalf("adjusted fare %s outside bounds", v)
			}
		}
	}
}

func TestAdjustPrice_InvalidInput(t *testing.T) {
	tariff := testTariff()

	if _, err := AdjustPrice(d("1500"), types.Direction("sideways"), tariff); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown direction, got %v", err)
	}
	if _, err := AdjustPrice(d("999"), types.DirectionUp, tariff); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput below min, got %v", err)
	}
	if _, err := AdjustPrice(d("50001"), types.DirectionDown, tariff); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput above max, got %v", err)
	}
}

func TestSaturated(t *testing.T) {
	tariff := testTariff()

	if !Saturated(tariff.MaxFare, types.DirectionUp, tariff) {
		t.Fatalf("max fare must be saturated upwards")
	}
	if !Saturated(tariff.MinFare, types.DirectionDown, tariff) {
		t.Fatalf("min fare must be saturated downwards")
	}
	if Saturated(d("1500"), types.DirectionUp, tariff) || Saturated(d("1500"), types.DirectionDown, tariff) {
		t.Fatalf("fare inside bounds must not be saturated")
	}
}

func TestClampFare(t *testing.T) {
	tariff := testTariff()

	tests := []struct {
		fare, want string
	}{
		{"500", "1000"},
		{"1000", "1000"},
		{"1487.5", "1487.5"},
		{"50000", "50000"},
		{"60000", "50000"},
	}
	for _, tt := range tests {
		if got := ClampFare(d(tt.fare), tariff); !got.Equal(d(tt.want)) {
			t.Errorf("ClampFare(%s) = %s, want %s", tt.fare, got, tt.want)
		}
	}
}
