package types

import "errors"

var (
	// ErrInvalidInput is returned by the fare engine when an argument violates its precondition.
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidTariff  = errors.New("invalid tariff")
	ErrTariffNotFound = errors.New("tariff not found")

	ErrQuoteNotFound = errors.New("quote not found")
	ErrQuoteExpired  = errors.New("quote expired")
	ErrQuoteStale    = errors.New("quote was already adjusted")

	ErrSettlementExists = errors.New("trip already settled")

	ErrUnknownVehicleClass = errors.New("unknown vehicle class")
	ErrLocationNotFound    = errors.New("location not found")
	ErrGeocoderDisabled    = errors.New("address geocoding is not configured")

	ErrDatabaseFailed = errors.New("database operation failed")
	ErrPublishFailed  = errors.New("failed to publish message")

	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("action forbidden")
	ErrNotFound     = errors.New("requested item not found")
)
