package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateDecision is the outcome of counting one request against a fixed window.
type RateDecision struct {
	Allowed   bool
	Count     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitStore counts hits per key within fixed windows.
type RateLimitStore interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration) (RateDecision, error)
	Close() error
}

// NewRateLimitStore picks Redis when a client is available, otherwise an in-process store.
func NewRateLimitStore(rc *redis.Client) RateLimitStore {
	if rc != nil {
		return NewRedisRateLimitStore(rc, "forumlite:ratelimit:")
	}
	return NewMemoryRateLimitStore()
}

type rateWindow struct {
	count     int
	windowEnd time.Time
}

// MemoryRateLimitStore keeps counters in a map. Counters are per process, so several
// replicas each enforce their own quota.
type MemoryRateLimitStore struct {
	mu      sync.Mutex
	entries map[string]rateWindow
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryRateLimitStore starts a store that sweeps expired windows every five minutes.
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	s := &MemoryRateLimitStore{
		entries: make(map[string]rateWindow),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go s.sweepLoop(5 * time.Minute)
	return s
}

// Hit counts a request for key. Rejected requests do not extend the count.
func (s *MemoryRateLimitStore) Hit(_ context.Context, key string, limit int, window time.Duration) (RateDecision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.windowEnd) {
		entry = rateWindow{windowEnd: now.Add(window)}
	}
	if entry.count >= limit {
		s.entries[key] = entry
		return RateDecision{Allowed: false, Count: entry.count, Remaining: 0, ResetAt: entry.windowEnd}, nil
	}
	entry.count++
	s.entries[key] = entry
	return RateDecision{
		Allowed:   true,
		Count:     entry.count,
		Remaining: limit - entry.count,
		ResetAt:   entry.windowEnd,
	}, nil
}

// Close stops the sweeper.
func (s *MemoryRateLimitStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryRateLimitStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryRateLimitStore) sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.entries {
		if !now.Before(entry.windowEnd) {
			delete(s.entries, key)
		}
	}
}

// RedisRateLimitStore shares counters between replicas through INCR + EXPIRE.
type RedisRateLimitStore struct {
	client *redis.Client
	prefix string
}

// NewRedisRateLimitStore builds a store whose keys start with prefix.
func NewRedisRateLimitStore(client *redis.Client, prefix string) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client, prefix: prefix}
}

// Hit increments the window counter, starting the window on the first hit.
func (s *RedisRateLimitStore) Hit(ctx context.Context, key string, limit int, window time.Duration) (RateDecision, error) {
	redisKey := s.prefix + key
	counter, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return RateDecision{}, err
	}
	if counter == 1 {
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return RateDecision{}, err
		}
	}

	ttl, err := s.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return RateDecision{}, err
	}
	if ttl < 0 {
		// The key lost its expiry (e.g. a crash between INCR and PEXPIRE); restart the window.
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return RateDecision{}, err
		}
		ttl = window
	}

	remaining := limit - int(counter)
	if remaining < 0 {
		remaining = 0
	}
	return RateDecision{
		Allowed:   int(counter) <= limit,
		Count:     int(counter),
		Remaining: remaining,
		ResetAt:   time.Now().Add(ttl),
	}, nil
}

// Close is a no-op; the shared client is closed by its owner.
func (s *RedisRateLimitStore) Close() error {
	return nil
}
