package fare

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	farecalc "github.com/kompa2go/kommute-fare/internal/service/calculator"
	"github.com/kompa2go/kommute-fare/pkg/hasher"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
	"github.com/kompa2go/kommute-fare/pkg/metrics"
)

/*
Service prices trips and runs the manual fare negotiation.
Quotes live in the quote store for quoteTTL; every adjustment
stores a new quote that points to the previous one.
*/
type Service struct {
	quotes    QuoteRepo
	tariffs   TariffProvider
	publisher Publisher
	geocoder  Geocoder
	quoteTTL  time.Duration
	now       func() time.Time
	l         logger.Logger
}

// New returns the fare service. geocoder may be nil, then address-only
// locations are rejected.
func New(quotes QuoteRepo, tariffs TariffProvider, publisher Publisher, geocoder Geocoder, quoteTTL time.Duration, l logger.Logger) *Service {
	return &Service{
		quotes:    quotes,
		tariffs:   tariffs,
		publisher: publisher,
		geocoder:  geocoder,
		quoteTTL:  quoteTTL,
		now:       time.Now,
		l:         l,
	}
}

// QuoteRequest describes a trip to price. Either both locations or an
// explicit distance must be given; a missing duration is estimated from
// the distance.
type QuoteRequest struct {
	RiderID         string
	Jurisdiction    string
	VehicleClass    types.VehicleClass
	Pickup          *models.Location
	Destination     *models.Location
	DistanceMeters  *float64
	DurationSeconds *float64
}

// AdjustResult is the outcome of one negotiation step.
type AdjustResult struct {
	Quote     models.TripQuote
	Previous  models.TripQuote
	Direction types.Direction
	// Saturated is set once the fare sits on the bound in Direction.
	// A quote that was already there is returned unchanged.
	Saturated bool
}

// Quote prices a trip. A live quote for the same rider, route and class is
// returned as is.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (q models.TripQuote, err error) {
	ctx = wrap.WithAction(ctx, "quote_fare")
	defer func() {
		metrics.RecordQuote(req.Jurisdiction, req.VehicleClass.String(), q.Fare.InexactFloat64(), err)
	}()

	costFactor, ok := req.VehicleClass.CostFactor()
	if !ok {
		return models.TripQuote{}, wrap.Error(ctx, fmt.Errorf("%w: %q", types.ErrUnknownVehicleClass, req.VehicleClass))
	}

	tariff, err := s.tariffs.Tariff(ctx, req.Jurisdiction)
	if err != nil {
		return models.TripQuote{}, wrap.Error(ctx, err)
	}
	req.Jurisdiction = tariff.Jurisdiction

	if err := s.resolveLocations(ctx, &req); err != nil {
		return models.TripQuote{}, wrap.Error(ctx, err)
	}

	distance, duration, err := tripMeasures(req)
	if err != nil {
		return models.TripQuote{}, wrap.Error(ctx, err)
	}

	fingerprint := quoteFingerprint(req, distance, duration)
	existing, err := s.quotes.FindByFingerprint(ctx, fingerprint)
	switch {
	case err == nil && !existing.Expired(s.now()):
		s.l.Debug(wrap.WithQuoteID(ctx, existing.ID.String()), "returning live quote for the same trip")
		return existing, nil
	case err != nil && !errors.Is(err, types.ErrQuoteNotFound):
		s.l.Warn(ctx, "failed to look up quote by fingerprint", "error", err.Error())
	}

	fare, err := farecalc.CalculateTripPrice(distance, duration, costFactor, tariff)
	if err != nil {
		return models.TripQuote{}, wrap.Error(ctx, err)
	}

	now := s.now()
	id := uuid.New()
	q = models.TripQuote{
		ID:                id,
		RootID:            id,
		Version:           1,
		RiderID:           req.RiderID,
		Jurisdiction:      tariff.Jurisdiction,
		VehicleClass:      req.VehicleClass,
		Pickup:            req.Pickup,
		Destination:       req.Destination,
		DistanceMeters:    distance,
		DurationSeconds:   duration,
		VehicleCostFactor: costFactor,
		BaseFare:          fare,
		Fare:              fare,
		Currency:          tariff.Currency,
		Fingerprint:       fingerprint,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.quoteTTL),
	}
	ctx = wrap.WithQuoteID(ctx, id.String())

	if err := s.quotes.Save(ctx, q); err != nil {
		return models.TripQuote{}, wrap.Error(ctx, fmt.Errorf("could not save quote: %w", err))
	}

	// quote is already stored, a lost event must not fail the request
	if err := s.publisher.PublishFareQuoted(ctx, models.FareQuotedMessage{
		QuoteID:       q.ID,
		RiderID:       q.RiderID,
		Jurisdiction:  q.Jurisdiction,
		VehicleClass:  q.VehicleClass,
		Fare:          q.Fare,
		Currency:      q.Currency,
		ExpiresAt:     q.ExpiresAt,
		CorrelationID: wrap.RequestID(ctx),
	}); err != nil {
		s.l.Error(wrap.ErrorCtx(ctx, err), "failed to publish fare quoted event", err)
	}

	s.l.Info(ctx, "fare quoted",
		"fare", q.Fare.String(),
		"currency", q.Currency,
		"vehicle_class", q.VehicleClass,
		"distance_m", distance,
		"duration_s", duration,
	)
	return q, nil
}

// Get returns a live quote.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.TripQuote, error) {
	ctx = wrap.WithQuoteID(wrap.WithAction(ctx, "get_quote"), id.String())

	q, err := s.quotes.Get(ctx, id)
	if err != nil {
		return models.TripQuote{}, wrap.Error(ctx, err)
	}
	if q.Expired(s.now()) {
		return models.TripQuote{}, wrap.Error(ctx, types.ErrQuoteExpired)
	}
	return q, nil
}

// maxChain bounds how many negotiation steps Latest follows.
const maxChain = 1000

// Latest follows the negotiation chain from id to its newest live quote.
func (s *Service) Latest(ctx context.Context, id uuid.UUID) (models.TripQuote, error) {
	ctx = wrap.WithAction(ctx, "latest_quote")

	for range maxChain {
		next, ok, err := s.quotes.Next(ctx, id)
		if err != nil {
			return models.TripQuote{}, wrap.Error(ctx, err)
		}
		if !ok {
			return s.Get(ctx, id)
		}
		id = next
	}
	return models.TripQuote{}, wrap.Error(ctx, fmt.Errorf("negotiation chain of %s is too long", id))
}

// Adjust moves the fare of a live quote one step up or down and stores the
// result as a new quote. Only the latest quote of a negotiation can be
// adjusted; adjusting an older one returns ErrQuoteStale.
func (s *Service) Adjust(ctx context.Context, user *models.User, id uuid.UUID, direction types.Direction) (res AdjustResult, err error) {
	ctx = wrap.WithQuoteID(wrap.WithAction(ctx, "adjust_fare"), id.String())

	if !direction.Valid() {
		return AdjustResult{}, wrap.Error(ctx, fmt.Errorf("%w: unknown direction %q", types.ErrInvalidInput, direction))
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return AdjustResult{}, err
	}

	if !canNegotiate(user, current) {
		return AdjustResult{}, wrap.Error(ctx, types.ErrForbidden)
	}

	if _, superseded, err := s.quotes.Next(ctx, id); err != nil {
		return AdjustResult{}, wrap.Error(ctx, err)
	} else if superseded {
		return AdjustResult{}, wrap.Error(ctx, types.ErrQuoteStale)
	}

	tariff, err := s.tariffs.Tariff(ctx, current.Jurisdiction)
	if err != nil {
		return AdjustResult{}, wrap.Error(ctx, err)
	}

	// тариф мог измениться после выдачи котировки
	base := current.Fare
	if base.LessThan(tariff.MinFare) || base.GreaterThan(tariff.MaxFare) {
		base = farecalc.ClampFare(base, tariff)
		s.l.Warn(ctx, "quoted fare is outside the current tariff bounds, clamped",
			"fare", current.Fare.String(),
			"clamped", base.String(),
		)
	}

	fare, err := farecalc.AdjustPrice(base, direction, tariff)
	if err != nil {
		return AdjustResult{}, wrap.Error(ctx, err)
	}

	res = AdjustResult{
		Quote:     current,
		Previous:  current,
		Direction: direction,
		Saturated: farecalc.Saturated(fare, direction, tariff),
	}
	defer func() {
		if err == nil {
			metrics.RecordAdjustment(string(direction), res.Saturated)
		}
	}()

	// на границе цена не меняется, новую версию не создаём
	if fare.Equal(current.Fare) {
		s.l.Debug(ctx, "fare is already at the bound", "fare", fare.String(), "direction", direction)
		return res, nil
	}

	next := current.WithFare(uuid.New(), fare, s.now(), s.quoteTTL)
	if err := s.quotes.Supersede(ctx, next); err != nil {
		return AdjustResult{}, wrap.Error(ctx, err)
	}
	res.Quote = next

	if err := s.publisher.PublishFareAdjusted(ctx, models.FareAdjustedMessage{
		QuoteID:       next.ID,
		ParentID:      current.ID,
		Direction:     direction,
		PreviousFare:  current.Fare,
		Fare:          next.Fare,
		Saturated:     res.Saturated,
		Version:       next.Version,
		CorrelationID: wrap.RequestID(ctx),
	}); err != nil {
		s.l.Error(wrap.ErrorCtx(ctx, err), "failed to publish fare adjusted event", err)
	}

	s.l.Info(ctx, "fare adjusted",
		"previous_fare", current.Fare.String(),
		"fare", next.Fare.String(),
		"direction", direction,
		"version", next.Version,
	)
	return res, nil
}

// canNegotiate allows the rider who requested the quote and any driver.
func canNegotiate(user *models.User, q models.TripQuote) bool {
	if user.IsAnonymous() {
		return false
	}
	switch user.Role {
	case types.RoleAdmin, types.RoleDriver:
		return true
	case types.RolePassenger:
		return q.RiderID == "" || q.RiderID == user.ID
	}
	return false
}

func (s *Service) resolveLocations(ctx context.Context, req *QuoteRequest) error {
	for _, loc := range []*models.Location{req.Pickup, req.Destination} {
		if loc == nil || hasCoordinates(*loc) {
			continue
		}
		if strings.TrimSpace(loc.Address) == "" {
			return fmt.Errorf("%w: location needs coordinates or an address", types.ErrInvalidInput)
		}
		if s.geocoder == nil {
			return types.ErrGeocoderDisabled
		}

		found, err := s.geocoder.Geocode(ctx, loc.Address)
		if err != nil {
			return fmt.Errorf("geocode %q: %w", loc.Address, err)
		}
		loc.Latitude, loc.Longitude = found.Latitude, found.Longitude
	}
	return nil
}

func hasCoordinates(l models.Location) bool {
	return l.Latitude != 0 || l.Longitude != 0
}

func tripMeasures(req QuoteRequest) (distance, duration float64, err error) {
	switch {
	case req.DistanceMeters != nil:
		distance = *req.DistanceMeters
	case req.Pickup != nil && req.Destination != nil:
		if err := validCoordinates(*req.Pickup); err != nil {
			return 0, 0, err
		}
		if err := validCoordinates(*req.Destination); err != nil {
			return 0, 0, err
		}
		distance = farecalc.Distance(*req.Pickup, *req.Destination)
	default:
		return 0, 0, fmt.Errorf("%w: pickup and destination or distance_meters must be provided", types.ErrInvalidInput)
	}

	if req.DurationSeconds != nil {
		duration = *req.DurationSeconds
	} else {
		duration = farecalc.Duration(distance)
	}
	return distance, duration, nil
}

func validCoordinates(l models.Location) error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", types.ErrInvalidInput)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", types.ErrInvalidInput)
	}
	return nil
}

func quoteFingerprint(req QuoteRequest, distance, duration float64) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
	return hasher.Fingerprint(
		req.RiderID,
		req.Jurisdiction,
		req.VehicleClass.String(),
		f(distance),
		f(duration),
	)
}
