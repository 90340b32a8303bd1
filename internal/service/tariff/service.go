package tariff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	farecalc "github.com/kompa2go/kommute-fare/internal/service/calculator"
	"github.com/kompa2go/kommute-fare/pkg/logger"
	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
	"github.com/kompa2go/kommute-fare/pkg/metrics"
)

type cacheEntry struct {
	tariff    models.Tariff
	expiresAt time.Time
}

// Service resolves the tariff of a jurisdiction. Stored tariffs are cached
// for ttl; the configured default covers its own jurisdiction when the store
// has no row or is unreachable.
type Service struct {
	repo     Repo
	fallback models.Tariff
	ttl      time.Duration
	l        logger.Logger

	mu    sync.RWMutex
	cache map[string]cacheEntry
	now   func() time.Time
}

func NewService(repo Repo, fallback models.Tariff, ttl time.Duration, l logger.Logger) *Service {
	return &Service{
		repo:     repo,
		fallback: fallback,
		ttl:      ttl,
		l:        l,
		cache:    make(map[string]cacheEntry),
		now:      time.Now,
	}
}

// DefaultJurisdiction is used when a request names none.
func (s *Service) DefaultJurisdiction() string {
	return s.fallback.Jurisdiction
}

func normalize(jurisdiction string) string {
	return strings.ToUpper(strings.TrimSpace(jurisdiction))
}

// Tariff returns the tariff of the jurisdiction.
func (s *Service) Tariff(ctx context.Context, jurisdiction string) (models.Tariff, error) {
	jurisdiction = normalize(jurisdiction)
	if jurisdiction == "" {
		jurisdiction = s.fallback.Jurisdiction
	}

	entry, cached := s.lookup(jurisdiction)
	if cached && s.now().Before(entry.expiresAt) {
		return entry.tariff, nil
	}

	t, err := s.repo.Get(ctx, jurisdiction)
	if err == nil {
		err = t.Validate()
	}

	switch {
	case err == nil:
		s.store(t)
		return t, nil

	case errors.Is(err, types.ErrTariffNotFound):
		if jurisdiction == s.fallback.Jurisdiction {
			s.useFallback(ctx, jurisdiction, "not_found", err)
			return s.fallback, nil
		}
		return models.Tariff{}, wrap.Error(ctx, fmt.Errorf("%w: %s", types.ErrTariffNotFound, jurisdiction))

	default:
		// store is down or holds a broken row: stale cache, then the default
		if cached {
			s.useFallback(ctx, jurisdiction, "stale_cache", err)
			return entry.tariff, nil
		}
		if jurisdiction == s.fallback.Jurisdiction {
			s.useFallback(ctx, jurisdiction, "store_error", err)
			return s.fallback, nil
		}
		return models.Tariff{}, wrap.Error(ctx, err)
	}
}

func (s *Service) useFallback(ctx context.Context, jurisdiction, reason string, cause error) {
	metrics.RecordTariffFallback(jurisdiction, reason)
	s.l.Warn(wrap.WithAction(ctx, types.ActionTariffFallback), "using fallback tariff",
		"jurisdiction", jurisdiction,
		"reason", reason,
		"cause", cause.Error(),
	)
}

func (s *Service) lookup(jurisdiction string) (cacheEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cache[jurisdiction]
	return e, ok
}

func (s *Service) store(t models.Tariff) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[t.Jurisdiction] = cacheEntry{tariff: t, expiresAt: s.now().Add(s.ttl)}
}

// List returns every stored tariff. The default tariff is appended when its
// jurisdiction has no stored row.
func (s *Service) List(ctx context.Context) ([]models.Tariff, error) {
	ctx = wrap.WithAction(ctx, "list_tariffs")

	tariffs, err := s.repo.List(ctx)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	for _, t := range tariffs {
		if t.Jurisdiction == s.fallback.Jurisdiction {
			return tariffs, nil
		}
	}
	return append(tariffs, s.fallback), nil
}

// Put validates and stores a tariff, replacing the cached copy.
func (s *Service) Put(ctx context.Context, t models.Tariff) (models.Tariff, error) {
	ctx = wrap.WithAction(ctx, "put_tariff")

	t.Jurisdiction = normalize(t.Jurisdiction)
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	if err := t.Validate(); err != nil {
		return models.Tariff{}, wrap.Error(ctx, err)
	}

	saved, err := s.repo.Upsert(ctx, t)
	if err != nil {
		return models.Tariff{}, wrap.Error(ctx, err)
	}
	s.store(saved)

	s.l.Info(ctx, "tariff updated", "jurisdiction", saved.Jurisdiction)
	return saved, nil
}

// Split partitions a gross fare with the jurisdiction's tariff.
func (s *Service) Split(ctx context.Context, jurisdiction string, gross decimal.Decimal) (models.FareSplit, models.Tariff, error) {
	ctx = wrap.WithAction(ctx, "split_fare")

	t, err := s.Tariff(ctx, jurisdiction)
	if err != nil {
		return models.FareSplit{}, models.Tariff{}, err
	}

	split, err := farecalc.SplitFare(gross, t)
	if err != nil {
		return models.FareSplit{}, models.Tariff{}, wrap.Error(ctx, err)
	}
	return split, t, nil
}
