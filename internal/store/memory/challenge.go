// Package memory implementa los repositorios en memoria (un solo nodo, dev y tests).
package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/simguard/internal/domain/repository"
	"github.com/dropDatabas3/simguard/internal/domain/types"
)

// ChallengeStore guarda challenges en go-cache.
// Los pending no expiran en el cache; al pasar a terminal reciben TTL = retention
// y el janitor de go-cache los purga.
type ChallengeStore struct {
	mu        sync.Mutex
	items     *gocache.Cache
	latest    map[string]string // paymentAttemptID -> challengeID
	retention time.Duration
}

var _ repository.ChallengeRepository = (*ChallengeStore)(nil)

func NewChallengeStore(retention time.Duration) *ChallengeStore {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &ChallengeStore{
		items:     gocache.New(gocache.NoExpiration, time.Minute),
		latest:    map[string]string{},
		retention: retention,
	}
}

func (s *ChallengeStore) load(id string) (*types.Challenge, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	c, ok := v.(*types.Challenge)
	return c, ok
}

func (s *ChallengeStore) store(c *types.Challenge) {
	ttl := gocache.NoExpiration
	if c.Status.IsTerminal() {
		ttl = s.retention
	}
	s.items.Set(c.ID, c, ttl)
}

func (s *ChallengeStore) Insert(_ context.Context, c *types.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prevID, ok := s.latest[c.PaymentAttemptID]; ok {
		if prev, ok := s.load(prevID); ok && prev.Status == types.ChallengePending {
			if !prev.ExpiredAt(c.CreatedAt) {
				return repository.ErrConflict
			}
			prev = prev.Clone()
			prev.Status = types.ChallengeExpired
			prev.UpdatedAt = c.CreatedAt
			s.store(prev)
		}
	}
	if _, exists := s.load(c.ID); exists {
		return repository.ErrConflict
	}
	s.store(c.Clone())
	s.latest[c.PaymentAttemptID] = c.ID
	return nil
}

func (s *ChallengeStore) Get(_ context.Context, id string) (*types.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.load(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *ChallengeStore) LatestForAttempt(_ context.Context, attemptID string) (*types.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.latest[attemptID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c, ok := s.load(id)
	if !ok {
		// purgado por el janitor
		delete(s.latest, attemptID)
		return nil, repository.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *ChallengeStore) Update(_ context.Context, id string, fn func(*types.Challenge) error) (*types.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.load(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := c.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.store(next)
	return next.Clone(), nil
}

func (s *ChallengeStore) Sweep(_ context.Context, now time.Time, retention time.Duration) (expired, purged int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-retention)
	for id, it := range s.items.Items() {
		c, ok := it.Object.(*types.Challenge)
		if !ok {
			continue
		}
		switch {
		case c.Status == types.ChallengePending && c.ExpiredAt(now):
			next := c.Clone()
			next.Status = types.ChallengeExpired
			next.UpdatedAt = now
			s.store(next)
			expired++
		case c.Status.IsTerminal() && c.UpdatedAt.Before(cutoff):
			s.items.Delete(id)
			if s.latest[c.PaymentAttemptID] == id {
				delete(s.latest, c.PaymentAttemptID)
			}
			purged++
		}
	}
	return expired, purged, nil
}
