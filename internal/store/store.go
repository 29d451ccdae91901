// Package store wraps the coordination store (Redis) behind the small set
// of primitives the rest of the pipeline actually needs: a queue, a
// dedup set, per-worker hashes with TTL, and shared counters. No caller
// outside this package imports go-redis directly.
package store

import (
	"context"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
)

// Store is a typed handle on the coordination store.
type Store struct {
	rdb *redis.Client
}

// Options configures the underlying Redis client and its connect retry
// policy.
type Options struct {
	Host string
	Port int
	DB   int

	// MaxRetries and RetryDelay bound the connect retry loop. A zero or
	// negative MaxRetries falls back to 5, a zero or negative RetryDelay
	// to 5s.
	MaxRetries int
	RetryDelay time.Duration
}

// Connect dials Redis with a bounded fixed-delay retry: one attempt plus
// up to MaxRetries retries, RetryDelay between each, the same shape the original
// pipeline's Redis connection helper uses.
func Connect(ctx context.Context, opts Options) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		DB:   opts.DB,
	})

	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 5 * time.Second
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(maxRetries)), ctx)

	op := func() error {
		return rdb.Ping(ctx).Err()
	}
	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("store: connect: %w: %v", domain.ErrCoordination, err)
	}
	return &Store{rdb: rdb}, nil
}

// New wraps an already-constructed client, mainly for tests with miniredis.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// PushHead pushes value onto the head of the list at key (LPUSH).
func (s *Store) PushHead(ctx context.Context, key, value string) error {
	if err := s.rdb.LPush(ctx, key, value).Err(); err != nil {
		return fmt.Errorf("store: push %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return nil
}

// PopHead pops a value from the head of the list at key (LPOP). Paired
// with PushHead's LPUSH this gives last-in-first-out order, matching the
// coordination store's queue semantics: no FIFO guarantee, any worker may
// claim any task. ok=false with no error when the list is empty.
func (s *Store) PopHead(ctx context.Context, key string) (value string, ok bool, err error) {
	v, err := s.rdb.LPop(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: pop %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return v, true, nil
}

// PopHeadBlocking pops from the head of key, blocking up to timeout.
// ok=false with no error on timeout.
func (s *Store) PopHeadBlocking(ctx context.Context, key string, timeout time.Duration) (value string, ok bool, err error) {
	res, err := s.rdb.BLPop(ctx, timeout, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: blocking pop %s: %w: %v", key, domain.ErrCoordination, err)
	}
	if len(res) < 2 {
		return "", false, nil
	}
	return res[1], true, nil
}

// Len returns the length of the list at key.
func (s *Store) Len(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("store: len %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return n, nil
}

// SetAdd adds member to the set at key, returning whether it was newly
// added (false means it was already a member — the caller's dedup hit).
func (s *Store) SetAdd(ctx context.Context, key, member string) (added bool, err error) {
	n, err := s.rdb.SAdd(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("store: sadd %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return n > 0, nil
}

// SetContains reports whether member is present in the set at key.
func (s *Store) SetContains(ctx context.Context, key, member string) (bool, error) {
	ok, err := s.rdb.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("store: sismember %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return ok, nil
}

// SetSize returns the cardinality of the set at key.
func (s *Store) SetSize(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.SCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("store: scard %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return n, nil
}

// HashSet writes fields into the hash at key and refreshes its TTL.
func (s *Store) HashSet(ctx context.Context, key string, fields map[string]any, ttl time.Duration) error {
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("store: hset %s: %w: %v", key, domain.ErrCoordination, err)
	}
	if ttl > 0 {
		if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			return fmt.Errorf("store: expire %s: %w: %v", key, domain.ErrCoordination, err)
		}
	}
	return nil
}

// HashGetAll reads every field of the hash at key.
func (s *Store) HashGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("store: hgetall %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return m, nil
}

// Expire sets a TTL on key.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("store: expire %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return nil
}

// Incr atomically increments the counter at key by delta and returns the
// new value.
func (s *Store) Incr(ctx context.Context, key string, delta int64) (int64, error) {
	n, err := s.rdb.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("store: incrby %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return n, nil
}

// Get reads a single string value, returning ok=false if absent.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return v, true, nil
}

// Set writes a single string value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("store: set %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return nil
}

// ScanPrefix returns every key matching prefix+"*". Intended for
// low-cardinality admin/debug lookups (e.g. listing worker heartbeats),
// not hot-path use.
func (s *Store) ScanPrefix(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("store: scan %s: %w: %v", prefix, domain.ErrCoordination, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

// Trim trims the list at key to the leftmost maxLen elements.
func (s *Store) Trim(ctx context.Context, key string, maxLen int64) error {
	if maxLen <= 0 {
		return nil
	}
	if err := s.rdb.LTrim(ctx, key, 0, maxLen-1).Err(); err != nil {
		return fmt.Errorf("store: ltrim %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return nil
}

// PushHeadBounded pushes value and trims the list to maxLen in one round
// trip via a pipeline, used for the bounded FIFOs (logs, history lists).
func (s *Store) PushHeadBounded(ctx context.Context, key, value string, maxLen int64) error {
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, value)
	if maxLen > 0 {
		pipe.LTrim(ctx, key, 0, maxLen-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store: bounded push %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return nil
}

// Range returns elements [start,stop] of the list at key (LRANGE).
func (s *Store) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	vals, err := s.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("store: lrange %s: %w: %v", key, domain.ErrCoordination, err)
	}
	return vals, nil
}
