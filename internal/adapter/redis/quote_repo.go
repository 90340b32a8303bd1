package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kompa2go/kommute-fare/internal/domain/models"
	"github.com/kompa2go/kommute-fare/internal/domain/types"
)

// QuoteRepository keeps live quotes until they expire.
//
//	quote:{id}          quote JSON
//	quote:{id}:next     id of the quote that superseded it
//	quote_idx:{fp}      id of the latest quote for a rider + route fingerprint
type QuoteRepository struct {
	client *Client
}

func NewQuoteRepository(client *Client) *QuoteRepository {
	return &QuoteRepository{client: client}
}

type storedQuote struct {
	models.TripQuote
	Fingerprint string `json:"fingerprint,omitempty"`
}

func keyQuote(id uuid.UUID) string {
	return fmt.Sprintf("quote:%s", id)
}

func keyQuoteNext(id uuid.UUID) string {
	return fmt.Sprintf("quote:%s:next", id)
}

func keyIdxFingerprint(fp string) string {
	return fmt.Sprintf("quote_idx:%s", fp)
}

// Save stores the quote with a TTL that ends at ExpiresAt.
func (r *QuoteRepository) Save(ctx context.Context, q models.TripQuote) error {
	ttl := time.Until(q.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("save quote %s: %w", q.ID, types.ErrQuoteExpired)
	}

	payload, err := json.Marshal(storedQuote{TripQuote: q, Fingerprint: q.Fingerprint})
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	_, err = r.client.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, keyQuote(q.ID), payload, ttl)
		if q.Fingerprint != "" {
			pipe.Set(ctx, keyIdxFingerprint(q.Fingerprint), q.ID.String(), ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis SET quote failed: %w", err)
	}

	return nil
}

func (r *QuoteRepository) Get(ctx context.Context, id uuid.UUID) (models.TripQuote, error) {
	data, err := r.client.rdb.Get(ctx, keyQuote(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return models.TripQuote{}, types.ErrQuoteNotFound
		}
		return models.TripQuote{}, fmt.Errorf("redis GET failed: %w", err)
	}

	var stored storedQuote
	if err := json.Unmarshal(data, &stored); err != nil {
		return models.TripQuote{}, fmt.Errorf("failed to unmarshal quote: %w", err)
	}

	q := stored.TripQuote
	q.Fingerprint = stored.Fingerprint
	return q, nil
}

// FindByFingerprint returns the latest live quote for the fingerprint.
func (r *QuoteRepository) FindByFingerprint(ctx context.Context, fp string) (models.TripQuote, error) {
	id, err := r.client.rdb.Get(ctx, keyIdxFingerprint(fp)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return models.TripQuote{}, types.ErrQuoteNotFound
		}
		return models.TripQuote{}, fmt.Errorf("redis GET index failed: %w", err)
	}

	quoteID, err := uuid.Parse(id)
	if err != nil {
		return models.TripQuote{}, fmt.Errorf("corrupted quote index %q: %w", id, err)
	}
	return r.Get(ctx, quoteID)
}

// supersedeScript claims the successor slot of the parent and writes the new
// quote in one step, so a parent never points at a quote that was not stored.
//
//	KEYS: quote:{parent}:next, quote:{id}, quote_idx:{fp}
//	ARGV: id, payload, ttl ms, has fingerprint ("1"/"0")
var supersedeScript = goredis.NewScript(`
if not redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3], 'NX') then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
if ARGV[4] == '1' then
	redis.call('SET', KEYS[3], ARGV[1], 'PX', ARGV[3])
end
return 1
`)

// Supersede stores next as the successor of its parent. Only one successor
// per parent is accepted; a second one gets ErrQuoteStale.
func (r *QuoteRepository) Supersede(ctx context.Context, next models.TripQuote) error {
	if next.ParentID == nil {
		return fmt.Errorf("quote %s has no parent", next.ID)
	}

	ttl := time.Until(next.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("supersede quote %s: %w", next.ID, types.ErrQuoteExpired)
	}

	payload, err := json.Marshal(storedQuote{TripQuote: next, Fingerprint: next.Fingerprint})
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	hasFp := "0"
	if next.Fingerprint != "" {
		hasFp = "1"
	}

	won, err := supersedeScript.Run(ctx, r.client.rdb,
		[]string{keyQuoteNext(*next.ParentID), keyQuote(next.ID), keyIdxFingerprint(next.Fingerprint)},
		next.ID.String(), payload, ttl.Milliseconds(), hasFp,
	).Int()
	if err != nil {
		return fmt.Errorf("redis supersede failed: %w", err)
	}
	if won == 0 {
		return types.ErrQuoteStale
	}

	return nil
}

// Next returns the id of the quote that superseded id, if any.
func (r *QuoteRepository) Next(ctx context.Context, id uuid.UUID) (uuid.UUID, bool, error) {
	v, err := r.client.rdb.Get(ctx, keyQuoteNext(id)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("redis GET failed: %w", err)
	}

	next, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("corrupted successor %q: %w", v, err)
	}
	return next, true, nil
}
