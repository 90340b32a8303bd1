package tariff

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
	"github.com/kompa2go/kommute-fare/pkg/logger"
)

type mockRepo struct {
	getFn    func(ctx context.Context, jurisdiction string) (models.Tariff, error)
	listFn   func(ctx context.Context) ([]models.Tariff, error)
	upsertFn func(ctx context.Context, t models.Tariff) (models.Tariff, error)
	getCalls int
}

func (m *mockRepo) Get(ctx context.Context, jurisdiction string) (models.Tariff, error) {
	m.getCalls++
	return m.getFn(ctx, jurisdiction)
}

func (m *mockRepo) List(ctx context.Context) ([]models.Tariff, error) {
	return m.listFn(ctx)
}

func (m *mockRepo) Upsert(ctx context.Context, t models.Tariff) (models.Tariff, error) {
	return m.upsertFn(ctx, t)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func crTariff() models.Tariff {
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
		MaxFare:         d("100000"),
		AdjustmentStep:  d("100"),
	}
}

func newService(repo Repo) *Service {
	return NewService(repo, crTariff(), time.Minute, logger.New(io.Discard, "test", logger.LevelError))
}

func TestTariff_CachesStoredTariff(t *testing.T) {
	stored := crTariff()
	stored.BaseFare = d("600")
	repo := &mockRepo{getFn: func(ctx context.Context, j string) (models.Tariff, error) { return stored, nil }}
	s := newService(repo)

	for range 3 {
		got, err := s.Tariff(context.Background(), "cr")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.BaseFare.Equal(d("600")) {
			t.Fatalf("expected stored tariff, got base %s", got.BaseFare)
		}
	}
	if repo.getCalls != 1 {
		t.Fatalf("expected one repo call, got %d", repo.getCalls)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := s.Tariff(context.Background(), "CR"); err != nil {
		t.Fatal(err)
	}
	if repo.getCalls != 2 {
		t.Fatalf("expired entry must be reloaded, got %d calls", repo.getCalls)
	}
}

func TestTariff_FallbackForDefaultJurisdiction(t *testing.T) {
	repo := &mockRepo{getFn: func(ctx context.Context, j string) (models.Tariff, error) {
		return models.Tariff{}, types.ErrTariffNotFound
	}}
	s := newService(repo)

	got, err := s.Tariff(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Jurisdiction != "CR" || !got.BaseFare.Equal(d("500")) {
		t.Fatalf("expected default tariff, got %+v", got)
	}

	if _, err := s.Tariff(context.Background(), "PA"); !errors.Is(err, types.ErrTariffNotFound) {
		t.Fatalf("expected ErrTariffNotFound for unknown jurisdiction, got %v", err)
	}
}

func TestTariff_StoreDown(t *testing.T) {
	panama := crTariff()
	panama.Jurisdiction = "PA"
	panama.Currency = "USD"

	down := false
	repo := &mockRepo{getFn: func(ctx context.Context, j string) (models.Tariff, error) {
		if down {
			return models.Tariff{}, types.ErrDatabaseFailed
		}
		return panama, nil
	}}
	s := newService(repo)

	if _, err := s.Tariff(context.Background(), "PA"); err != nil {
		t.Fatal(err)
	}

	down = true
	s.now = func() time.Time { return time.Now().Add(time.Hour) }

	got, err := s.Tariff(context.Background(), "PA")
	if err != nil || got.Currency != "USD" {
		t.Fatalf("expected stale cached tariff, got %+v %v", got, err)
	}

	got, err = s.Tariff(context.Background(), "CR")
	if err != nil || got.Jurisdiction != "CR" {
		t.Fatalf("expected default tariff while store is down, got %+v %v", got, err)
	}

	if _, err := s.Tariff(context.Background(), "MX"); !errors.Is(err, types.ErrDatabaseFailed) {
		t.Fatalf("expected ErrDatabaseFailed, got %v", err)
	}
}

func TestTariff_InvalidStoredRowFallsBack(t *testing.T) {
	broken := crTariff()
	broken.CommissionRate = d("0.5")
	repo := &mockRepo{getFn: func(ctx context.Context, j string) (models.Tariff, error) { return broken, nil }}
	s := newService(repo)

	got, err := s.Tariff(context.Background(), "CR")
	if err != nil || !got.CommissionRate.Equal(d("0.15")) {
		t.Fatalf("expected default tariff instead of a broken row, got %+v %v", got, err)
	}
}

func TestPut(t *testing.T) {
	var saved models.Tariff
	repo := &mockRepo{
		getFn: func(ctx context.Context, j string) (models.Tariff, error) {
			t.Fatalf("cache must be used after put")
			return models.Tariff{}, nil
		},
		upsertFn: func(ctx context.Context, tr models.Tariff) (models.Tariff, error) {
			saved = tr
			return tr, nil
		},
	}
	s := newService(repo)

	in := crTariff()
	in.Jurisdiction = " pa "
	in.Currency = "usd"
	if _, err := s.Put(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Jurisdiction != "PA" || saved.Currency != "USD" {
		t.Fatalf("jurisdiction and currency must be normalized, got %s/%s", saved.Jurisdiction, saved.Currency)
	}
	if _, err := s.Tariff(context.Background(), "PA"); err != nil {
		t.Fatal(err)
	}

	bad := crTariff()
	bad.MinFare = d("200000")
	if _, err := s.Put(context.Background(), bad); !errors.Is(err, types.ErrInvalidTariff) {
		t.Fatalf("expected ErrInvalidTariff, got %v", err)
	}
}

func TestList_AppendsDefault(t *testing.T) {
	pa := crTariff()
	pa.Jurisdiction = "PA"
	repo := &mockRepo{listFn: func(ctx context.Context) ([]models.Tariff, error) { return []models.Tariff{pa}, nil }}

	got, err := newService(repo).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Jurisdiction != "CR" {
		t.Fatalf("expected stored tariff plus default, got %+v", got)
	}
}

func TestSplit(t *testing.T) {
	repo := &mockRepo{getFn: func(ctx context.Context, j string) (models.Tariff, error) { return crTariff(), nil }}

	split, tr, err := newService(repo).Split(context.Background(), "CR", d("1000"))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Currency != "CRC" || !split.DriverEarnings.Equal(d("752.22")) {
		t.Fatalf("unexpected split %+v", split)
	}

	if _, _, err := newService(repo).Split(context.Background(), "CR", d("-1")); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
