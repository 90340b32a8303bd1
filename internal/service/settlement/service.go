package settlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	farecalc "github.com/kompa2go/kommute-fare/internal/service/calculator"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
	"github.com/kompa2go/kommute-fare/pkg/metrics"
	"github.com/kompa2go/kommute-fare/pkg/trm"
)

// Service splits the final fare of completed trips and stores the result.
// Each trip is settled once.
type Service struct {
	repo      SettlementRepo
	tariffs   TariffProvider
	publisher Publisher
	trm       trm.TxManager
	now       func() time.Time
	l         logger.Logger
}

func New(repo SettlementRepo, tariffs TariffProvider, publisher Publisher, trm trm.TxManager, l logger.Logger) *Service {
	return &Service{
		repo:      repo,
		tariffs:   tariffs,
		publisher: publisher,
		trm:       trm,
		now:       time.Now,
		l:         l,
	}
}

// HandleTripCompleted adapts Settle to the trip completed consumer.
func (s *Service) HandleTripCompleted(ctx context.Context, msg models.TripCompletedMessage) error {
	_, err := s.Settle(ctx, msg)
	return err
}

// Settle splits and stores the fare of a completed trip, then announces it.
// A trip that was already settled returns the stored settlement together
// with ErrSettlementExists; its event is published again.
func (s *Service) Settle(ctx context.Context, msg models.TripCompletedMessage) (res models.Settlement, err error) {
	ctx = wrap.WithTripID(wrap.WithAction(ctx, "settle_trip"), msg.TripID)

	// gross is counted once, when the settlement is first stored
	outcome := types.SettlementRejected
	var storedGross float64
	defer func() {
		metrics.RecordSettlement(res.Jurisdiction, res.Currency, string(outcome), storedGross)
	}()

	if err := validateMessage(msg); err != nil {
		return models.Settlement{}, wrap.Error(ctx, err)
	}

	tariff, err := s.tariffs.Tariff(ctx, msg.Jurisdiction)
	if err != nil {
		return models.Settlement{}, wrap.Error(ctx, err)
	}

	split, err := farecalc.SplitFare(msg.FinalFare, tariff)
	if err != nil {
		return models.Settlement{}, wrap.Error(ctx, err)
	}

	completedAt := msg.CompletedAt
	if completedAt.IsZero() {
		completedAt = s.now()
	}

	settlement := models.Settlement{
		ID:           uuid.New(),
		TripID:       msg.TripID,
		QuoteID:      msg.QuoteID,
		DriverID:     msg.DriverID,
		Jurisdiction: tariff.Jurisdiction,
		Currency:     tariff.Currency,
		FareSplit:    split,
		CompletedAt:  completedAt.UTC(),
		SettledAt:    s.now().UTC(),
	}

	err = s.trm.Do(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, settlement)
	})

	switch {
	case err == nil:
		outcome = types.SettlementCompleted
		storedGross = split.GrossFare.InexactFloat64()
	case errors.Is(err, types.ErrSettlementExists):
		// транзакция откатилась, читаем уже сохранённую запись
		settlement, err = s.repo.GetByTrip(ctx, msg.TripID)
		if err != nil {
			return models.Settlement{}, wrap.Error(ctx, fmt.Errorf("could not load existing settlement: %w", err))
		}
		outcome = types.SettlementDuplicate
		s.l.Info(ctx, "trip already settled", "settlement_id", settlement.ID.String())
	default:
		return models.Settlement{}, wrap.Error(ctx, fmt.Errorf("could not store settlement: %w", err))
	}
	res = settlement

	if err := s.publisher.PublishFareSettled(ctx, models.FareSettledMessage{
		SettlementID:  settlement.ID,
		TripID:        settlement.TripID,
		DriverID:      settlement.DriverID,
		Jurisdiction:  settlement.Jurisdiction,
		Currency:      settlement.Currency,
		Split:         settlement.FareSplit,
		SettledAt:     settlement.SettledAt,
		CorrelationID: msg.CorrelationID,
	}); err != nil {
		outcome = types.SettlementPublishFailed
		return settlement, wrap.Error(ctx, fmt.Errorf("%w: fare settled: %v", types.ErrPublishFailed, err))
	}

	if outcome == types.SettlementDuplicate {
		return settlement, wrap.Error(ctx, types.ErrSettlementExists)
	}

	s.l.Info(ctx, "trip settled",
		"settlement_id", settlement.ID.String(),
		"gross", split.GrossFare.String(),
		"commission", split.PlatformCommission.String(),
		"driver_earnings", split.DriverEarnings.String(),
		"tax", split.TaxAmount.String(),
	)
	return settlement, nil
}

func validateMessage(msg models.TripCompletedMessage) error {
	if strings.TrimSpace(msg.TripID) == "" {
		return fmt.Errorf("%w: trip_id must be provided", types.ErrInvalidInput)
	}
	if strings.TrimSpace(msg.DriverID) == "" {
		return fmt.Errorf("%w: driver_id must be provided", types.ErrInvalidInput)
	}
	if msg.FinalFare.IsNegative() {
		return fmt.Errorf("%w: final_fare must be >= 0", types.ErrInvalidInput)
	}
	return nil
}
