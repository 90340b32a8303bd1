package dto

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	"github.com/kompa2go/kommute-fare/internal/service/fare"
	"github.com/kompa2go/kommute-fare/pkg/validator"
)

// maxTripMeters caps a single quoted trip at 1000 km.
const maxTripMeters = 1_000_000

type LocationReq struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   string   `json:"address,omitempty"`
}

func (l *LocationReq) validate(v *validator.Validator, prefix string) {
	switch {
	case l.Latitude != nil && l.Longitude != nil:
		v.Check(validator.Between(*l.Latitude, -90, 90), prefix+".latitude", "must be between -90 and 90")
		v.Check(validator.Between(*l.Longitude, -180, 180), prefix+".longitude", "must be between -180 and 180")
	case l.Latitude != nil || l.Longitude != nil:
		v.AddError(prefix, "latitude and longitude must be provided together")
	default:
		v.Check(strings.TrimSpace(l.Address) != "", prefix, "coordinates or address must be provided")
		v.Check(len(l.Address) <= 500, prefix+".address", "must not be more than 500 characters")
	}
}

func (l *LocationReq) toModel() *models.Location {
	if l == nil {
		return nil
	}
	loc := &models.Location{Address: strings.TrimSpace(l.Address)}
	if l.Latitude != nil && l.Longitude != nil {
		loc.Latitude, loc.Longitude = *l.Latitude, *l.Longitude
	}
	return loc
}

type QuoteReq struct {
	Jurisdiction    string       `json:"jurisdiction,omitempty"`
	VehicleClass    string       `json:"vehicle_class"`
	Pickup          *LocationReq `json:"pickup,omitempty"`
	Destination     *LocationReq `json:"destination,omitempty"`
	DistanceMeters  *float64     `json:"distance_meters,omitempty"`
	DurationSeconds *float64     `json:"duration_seconds,omitempty"`
}

func (r *QuoteReq) Validate(v *validator.Validator) {
	r.Jurisdiction = strings.ToUpper(strings.TrimSpace(r.Jurisdiction))
	r.VehicleClass = strings.ToUpper(strings.TrimSpace(r.VehicleClass))

	if r.Jurisdiction != "" {
		v.Check(validator.Matches(r.Jurisdiction, validator.JurisdictionRX), "jurisdiction", "must be an ISO 3166 code")
	}
	v.Check(validator.PermittedValue(r.VehicleClass, types.VehicleClasses()...), "vehicle_class",
		"must be one of "+strings.Join(types.VehicleClasses(), ", "))

	if r.DistanceMeters != nil {
		v.Check(validator.Between(*r.DistanceMeters, 0, maxTripMeters), "distance_meters", "must be between 0 and 1000000")
	} else {
		v.Check(r.Pickup != nil, "pickup", "must be provided when distance_meters is not")
		v.Check(r.Destination != nil, "destination", "must be provided when distance_meters is not")
	}
	if r.DurationSeconds != nil {
		v.Check(*r.DurationSeconds >= 0, "duration_seconds", "must not be negative")
	}

	if r.Pickup != nil {
		r.Pickup.validate(v, "pickup")
	}
	if r.Destination != nil {
		r.Destination.validate(v, "destination")
	}
}

func (r *QuoteReq) ToRequest(riderID string) fare.QuoteRequest {
	return fare.QuoteRequest{
		RiderID:         riderID,
		Jurisdiction:    r.Jurisdiction,
		VehicleClass:    types.VehicleClass(r.VehicleClass),
		Pickup:          r.Pickup.toModel(),
		Destination:     r.Destination.toModel(),
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: r.DurationSeconds,
	}
}

type AdjustReq struct {
	Direction string `json:"direction"`
}

func (r *AdjustReq) Validate(v *validator.Validator) {
	r.Direction = strings.ToLower(strings.TrimSpace(r.Direction))
	v.Check(types.Direction(r.Direction).Valid(), "direction", "must be up or down")
}

type AdjustResp struct {
	Quote     models.TripQuote `json:"quote"`
	Previous  uuid.UUID        `json:"previous_quote_id"`
	Direction types.Direction  `json:"direction"`
	Saturated bool             `json:"saturated"`
}

func NewAdjustResp(res fare.AdjustResult) AdjustResp {
	return AdjustResp{
		Quote:     res.Quote,
		Previous:  res.Previous.ID,
		Direction: res.Direction,
		Saturated: res.Saturated,
	}
}

type SplitReq struct {
	Jurisdiction string           `json:"jurisdiction,omitempty"`
	GrossFare    *decimal.Decimal `json:"gross_fare"`
}

func (r *SplitReq) Validate(v *validator.Validator) {
	r.Jurisdiction = strings.ToUpper(strings.TrimSpace(r.Jurisdiction))
	if r.Jurisdiction != "" {
		v.Check(validator.Matches(r.Jurisdiction, validator.JurisdictionRX), "jurisdiction", "must be an ISO 3166 code")
	}
	if r.GrossFare == nil {
		v.AddError("gross_fare", "must be provided")
		return
	}
	v.Check(!r.GrossFare.IsNegative(), "gross_fare", "must not be negative")
}

type SplitResp struct {
	Jurisdiction string `json:"jurisdiction"`
	Currency     string `json:"currency"`
	models.FareSplit
}
