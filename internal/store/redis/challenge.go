package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
)

const maxTxRetries = 8

// ChallengeStore guarda cada challenge como JSON en <prefix>ch:<id>.
//
//   - <prefix>active:<attempt>  id del challenge pending (SET NX, TTL = vigencia)
//   - <prefix>latest:<attempt>  id del último challenge del intento
//
// Las mutaciones usan WATCH/MULTI; un conflicto reintenta la transacción.
type ChallengeStore struct {
	client    *rdb.Client
	prefix    string
	retention time.Duration
}

var _ repository.ChallengeRepository = (*ChallengeStore)(nil)

func NewChallengeStore(client *rdb.Client, prefix string, retention time.Duration) *ChallengeStore {
	if prefix == "" {
		prefix = "sg:"
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &ChallengeStore{client: client, prefix: prefix, retention: retention}
}

// record incluye SecretHash, que types.Challenge excluye del JSON.
type record struct {
	types.Challenge
	SecretHash string `json:"secretHash"`
}

func (s *ChallengeStore) chKey(id string) string          { return s.prefix + "ch:" + id }
func (s *ChallengeStore) activeKey(attempt string) string { return s.prefix + "active:" + attempt }
func (s *ChallengeStore) latestKey(attempt string) string { return s.prefix + "latest:" + attempt }

func encode(c *types.Challenge) (string, error) {
	b, err := json.Marshal(record{Challenge: *c, SecretHash: c.SecretHash})
	return string(b), err
}

func decode(raw string) (*types.Challenge, error) {
	var r record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("redis: decode challenge: %w", err)
	}
	c := r.Challenge
	c.SecretHash = r.SecretHash
	return &c, nil
}

type getter interface {
	Get(ctx context.Context, key string) *rdb.StringCmd
}

func (s *ChallengeStore) load(ctx context.Context, g getter, id string) (*types.Challenge, error) {
	raw, err := g.Get(ctx, s.chKey(id)).Result()
	if errors.Is(err, rdb.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decode(raw)
}

// recordTTL: vigencia del challenge más la retención.
func (s *ChallengeStore) recordTTL(c *types.Challenge) time.Duration {
	return c.ExpiresAt.Sub(c.CreatedAt) + s.retention
}

// retry reintenta fn mientras WATCH detecte conflicto.
func (s *ChallengeStore) retry(ctx context.Context, fn func() error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := fn()
		if !errors.Is(err, rdb.TxFailedErr) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return fmt.Errorf("redis: transaction retries exhausted: %w", rdb.TxFailedErr)
}

func (s *ChallengeStore) Insert(ctx context.Context, c *types.Challenge) error {
	activeKey := s.activeKey(c.PaymentAttemptID)
	val, err := encode(c)
	if err != nil {
		return err
	}
	activeTTL := c.ExpiresAt.Sub(c.CreatedAt)
	if activeTTL <= 0 {
		activeTTL = time.Second
	}

	return s.retry(ctx, func() error {
		return s.client.Watch(ctx, func(tx *rdb.Tx) error {
			var stale *types.Challenge
			curID, err := tx.Get(ctx, activeKey).Result()
			switch {
			case errors.Is(err, rdb.Nil):
			case err != nil:
				return err
			default:
				if err := tx.Watch(ctx, s.chKey(curID)).Err(); err != nil {
					return err
				}
				cur, err := s.load(ctx, tx, curID)
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					return err
				}
				if cur != nil && cur.ActiveAt(c.CreatedAt) {
					return repository.ErrConflict
				}
				if cur != nil && cur.Status == types.ChallengePending {
					cur.Status = types.ChallengeExpired
					cur.UpdatedAt = c.CreatedAt
					stale = cur
				}
			}

			var staleVal string
			if stale != nil {
				if staleVal, err = encode(stale); err != nil {
					return err
				}
			}
			_, err = tx.TxPipelined(ctx, func(p rdb.Pipeliner) error {
				if stale != nil {
					p.Set(ctx, s.chKey(stale.ID), staleVal, rdb.KeepTTL)
				}
				p.Set(ctx, activeKey, c.ID, activeTTL)
				p.Set(ctx, s.chKey(c.ID), val, s.recordTTL(c))
				p.Set(ctx, s.latestKey(c.PaymentAttemptID), c.ID, s.recordTTL(c))
				return nil
			})
			return err
		}, activeKey)
	})
}

func (s *ChallengeStore) Get(ctx context.Context, id string) (*types.Challenge, error) {
	return s.load(ctx, s.client, id)
}

func (s *ChallengeStore) LatestForAttempt(ctx context.Context, attemptID string) (*types.Challenge, error) {
	id, err := s.client.Get(ctx, s.latestKey(attemptID)).Result()
	if errors.Is(err, rdb.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.load(ctx, s.client, id)
}

func (s *ChallengeStore) Update(ctx context.Context, id string, fn func(*types.Challenge) error) (*types.Challenge, error) {
	var out *types.Challenge
	err := s.retry(ctx, func() error {
		return s.client.Watch(ctx, func(tx *rdb.Tx) error {
			c, err := s.load(ctx, tx, id)
			if err != nil {
				return err
			}
			activeKey := s.activeKey(c.PaymentAttemptID)
			if err := tx.Watch(ctx, activeKey).Err(); err != nil {
				return err
			}
			activeID, err := tx.Get(ctx, activeKey).Result()
			if err != nil && !errors.Is(err, rdb.Nil) {
				return err
			}

			if err := fn(c); err != nil {
				return err
			}
			val, err := encode(c)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(p rdb.Pipeliner) error {
				p.Set(ctx, s.chKey(id), val, rdb.KeepTTL)
				// un challenge terminal libera el slot del intento
				if c.Status.IsTerminal() && activeID == id {
					p.Del(ctx, activeKey)
				}
				return nil
			})
			if err == nil {
				out = c
			}
			return err
		}, s.chKey(id))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Sweep recorre los slots activos y marca expirados los vencidos.
// El purge de terminales lo hace el TTL de Redis (vigencia + retention).
func (s *ChallengeStore) Sweep(ctx context.Context, now time.Time, _ time.Duration) (expired, purged int, err error) {
	iter := s.client.Scan(ctx, 0, s.prefix+"active:*", 200).Iterator()
	for iter.Next(ctx) {
		id, err := s.client.Get(ctx, iter.Val()).Result()
		if errors.Is(err, rdb.Nil) {
			continue
		}
		if err != nil {
			return expired, 0, err
		}
		changed := false
		_, err = s.Update(ctx, id, func(c *types.Challenge) error {
			changed = false
			if c.Status == types.ChallengePending && c.ExpiredAt(now) {
				c.Status = types.ChallengeExpired
				c.UpdatedAt = now
				changed = true
			}
			return nil
		})
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return expired, 0, err
		}
		if changed {
			expired++
		}
	}
	if err := iter.Err(); err != nil {
		return expired, 0, err
	}
	return expired, 0, nil
}
