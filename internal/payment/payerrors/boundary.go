package payerrors

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// BoundaryStore tracks per-(user, kind) error counts inside a rolling
// window. The in-memory store is advisory single-instance state; the
// redis store makes throttling correct across instances.
type BoundaryStore interface {
	// Record adds one error and returns the count observed within the
	// window ending now.
	Record(ctx context.Context, userID uint, kind Kind, window time.Duration) (int, error)
	// Count returns the current in-window count without recording.
	Count(ctx context.Context, userID uint, kind Kind, window time.Duration) (int, error)
}

// Boundary is the error-rate circuit breaker: a user accumulating five
// errors of the same kind within an hour is blocked from further
// attempts until the window rolls past.
type Boundary struct {
	store     BoundaryStore
	threshold int
	window    time.Duration
}

func NewBoundary(store BoundaryStore) *Boundary {
	return &Boundary{store: store, threshold: 5, window: time.Hour}
}

// RecordError notes a failure for the user.
func (b *Boundary) RecordError(ctx context.Context, userID uint, kind Kind) {
	_, _ = b.store.Record(ctx, userID, kind, b.window)
}

// ShouldBlockPayment reports whether the user has tripped the breaker
// for this error kind. Store failures fail open.
func (b *Boundary) ShouldBlockPayment(ctx context.Context, userID uint, kind Kind) bool {
	count, err := b.store.Count(ctx, userID, kind, b.window)
	if err != nil {
		return false
	}
	return count >= b.threshold
}

type boundaryEntry struct {
	times []time.Time
}

// MemoryBoundaryStore keeps counts in process memory. Restart loses
// the state and it is not shared across instances, a known limitation
// for horizontal scaling.
type MemoryBoundaryStore struct {
	mu      sync.Mutex
	entries map[string]*boundaryEntry
}

func NewMemoryBoundaryStore() *MemoryBoundaryStore {
	return &MemoryBoundaryStore{entries: make(map[string]*boundaryEntry)}
}

func boundaryKey(userID uint, kind Kind) string {
	return fmt.Sprintf("%d:%s", userID, kind)
}

func (s *MemoryBoundaryStore) prune(e *boundaryEntry, cutoff time.Time) {
	kept := e.times[:0]
	for _, t := range e.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	e.times = kept
}

func (s *MemoryBoundaryStore) Record(_ context.Context, userID uint, kind Kind, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := boundaryKey(userID, kind)
	e, ok := s.entries[key]
	if !ok {
		e = &boundaryEntry{}
		s.entries[key] = e
	}
	s.prune(e, time.Now().Add(-window))
	e.times = append(e.times, time.Now())
	return len(e.times), nil
}

func (s *MemoryBoundaryStore) Count(_ context.Context, userID uint, kind Kind, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[boundaryKey(userID, kind)]
	if !ok {
		return 0, nil
	}
	s.prune(e, time.Now().Add(-window))
	return len(e.times), nil
}

// RedisBoundaryStore shares breaker state across instances using a
// sorted set of error timestamps per (user, kind).
type RedisBoundaryStore struct {
	client *redis.Client
}

func NewRedisBoundaryStore(client *redis.Client) *RedisBoundaryStore {
	return &RedisBoundaryStore{client: client}
}

func (s *RedisBoundaryStore) key(userID uint, kind Kind) string {
	return fmt.Sprintf("errboundary:%d:%s", userID, kind)
}

func (s *RedisBoundaryStore) Record(ctx context.Context, userID uint, kind Kind, window time.Duration) (int, error) {
	key := s.key(userID, kind)
	now := time.Now()

	pipe := s.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now.Add(-window).UnixNano()))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: now.UnixNano()})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(count.Val()), nil
}

func (s *RedisBoundaryStore) Count(ctx context.Context, userID uint, kind Kind, window time.Duration) (int, error) {
	key := s.key(userID, kind)
	now := time.Now()

	pipe := s.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now.Add(-window).UnixNano()))
	count := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(count.Val()), nil
}
