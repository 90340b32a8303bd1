package farecalc

import (
	"math"
	"testing"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
)

func TestDistance(t *testing.T) {
	// San José → Alajuela, ~17 km по прямой
	sanJose := models.Location{Latitude: 9.9281, Longitude: -84.0907}
	alajuela := models.Location{Latitude: 10.0163, Longitude: -84.2116}

	got := Distance(sanJose, alajuela)
	if got < 16_000 || got > 17_000 {
		t.Fatalf("unexpected distance %.0f m", got)
	}

	if Distance(sanJose, sanJose) != 0 {
		t.Fatalf("distance to self must be zero")
	}
	if math.Abs(Distance(sanJose, alajuela)-Distance(alajuela, sanJose)) > 1e-6 {
		t.Fatalf("distance must be symmetric")
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{distance: 0, want: 0},
		{distance: -10, want: 0},
		{distance: 5000, want: 600}, // 10 min
		{distance: 5100, want: 660}, // 10.2 min → 11
		{distance: 30000, want: 3600},
	}

	for _, tt := range tests {
		if got := Duration(tt.distance); got != tt.want {
			t.Errorf("Duration(%v): expected %v, got %v", tt.distance, tt.want, got)
		}
	}
}
