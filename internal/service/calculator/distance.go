package farecalc

import (
	"math"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
)

const (
	averageSpeedKmh = 30 // средняя скорость в городе
	earthRadiusM    = 6371000.0
)

// Distance returns the great-circle distance between two points in meters (haversine).
func Distance(p1, p2 models.Location) float64 {
	lat1Rad := p1.Latitude * math.Pi / 180
	lat2Rad := p2.Latitude * math.Pi / 180

	diffLat := lat2Rad - lat1Rad
	diffLon := (p2.Longitude - p1.Longitude) * math.Pi / 180

	a := math.Pow(math.Sin(diffLat/2), 2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Pow(math.Sin(diffLon/2), 2)
	angle := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * angle
}

// Duration estimates the trip time in seconds, rounded up to a whole minute.
func Duration(distanceMeters float64) float64 {
	if distanceMeters <= 0 {
		return 0
	}
	// Время (в минутах) = (Расстояние / Скорость) * 60
	minutes := distanceMeters * 60 / (1000 * averageSpeedKmh)
	return math.Ceil(minutes) * 60
}
