package types

type FareEvent string

func (s FareEvent) String() string {
	return string(s)
}

const (
	EventFareQuoted   FareEvent = "FARE_QUOTED"
	EventFareAdjusted FareEvent = "FARE_ADJUSTED"
	EventFareSettled  FareEvent = "FARE_SETTLED"
	EventTripComplete FareEvent = "TRIP_COMPLETED"
)
