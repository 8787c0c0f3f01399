package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pkordes/match-results/backend/internal/domain"
)

const (
	redisKeyPrefix = "match:session:"

	// maxTxAttempts bounds optimistic-lock retries when another instance
	// touches the same session between WATCH and EXEC.
	maxTxAttempts = 5
)

// RedisStore keeps snapshots in Redis as JSON with a sliding TTL.
// Transitions use WATCH/MULTI so several API instances can share sessions.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time

	closeOnce sync.Once
	closeErr  error
}

// NewRedisStore wraps an existing client. ttl <= 0 stores keys without expiry.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, ttl: ttl, now: now}
}

// OpenRedis parses a redis:// URL, connects and pings with retry.
func OpenRedis(ctx context.Context, rawURL string, maxRetries int) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("session.OpenRedis: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := pingWithRetry(ctx, client, maxRetries); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session.OpenRedis: ping: %w", err)
	}
	return client, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	snap, found, err := s.read(ctx, s.client, sessionID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("session.RedisStore.Get: %w", err)
	}
	if found {
		if err := s.touch(ctx, sessionID); err != nil {
			return domain.Snapshot{}, fmt.Errorf("session.RedisStore.Get: %w", err)
		}
	}
	return snap, nil
}

// Begin implements Store.
func (s *RedisStore) Begin(ctx context.Context, sessionID, userID string) (domain.Snapshot, bool, error) {
	var (
		next    domain.Snapshot
		started bool
		found   bool
	)
	err := s.update(ctx, sessionID, func(cur domain.Snapshot, ok bool) (domain.Snapshot, bool) {
		found = ok
		next, started = begin(cur, userID, s.now())
		return next, started
	})
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("session.RedisStore.Begin: %w", err)
	}
	if !started && found {
		if err := s.touch(ctx, sessionID); err != nil {
			return domain.Snapshot{}, false, fmt.Errorf("session.RedisStore.Begin: %w", err)
		}
	}
	return next, started, nil
}

// Commit implements Store.
func (s *RedisStore) Commit(ctx context.Context, snap domain.Snapshot) (bool, error) {
	var ok bool
	err := s.update(ctx, snap.SessionID, func(cur domain.Snapshot, found bool) (domain.Snapshot, bool) {
		ok = found && committable(cur, snap)
		snap.UpdatedAt = s.now()
		return snap, ok
	})
	if err != nil {
		return false, fmt.Errorf("session.RedisStore.Commit: %w", err)
	}
	return ok, nil
}

// Reset implements Store.
func (s *RedisStore) Reset(ctx context.Context, sessionID string) (domain.Snapshot, error) {
	var next domain.Snapshot
	err := s.update(ctx, sessionID, func(cur domain.Snapshot, _ bool) (domain.Snapshot, bool) {
		next = reset(cur, s.now())
		return next, true
	})
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("session.RedisStore.Reset: %w", err)
	}
	return next, nil
}

// Close releases the Redis client. It is idempotent.
func (s *RedisStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

// update runs fn against the current snapshot under WATCH and writes its
// result when fn asks to. Conflicting writers cause a bounded retry.
func (s *RedisStore) update(ctx context.Context, sessionID string, fn func(cur domain.Snapshot, found bool) (domain.Snapshot, bool)) error {
	key := redisKeyPrefix + sessionID

	txf := func(tx *redis.Tx) error {
		cur, found, err := s.read(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		next, write := fn(cur, found)
		if !write {
			return nil
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxAttempts; i++ {
		err := s.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("session %s: too much contention", sessionID)
}

// touch pushes the key's expiry out by the store TTL. A key that vanished in
// the meantime is left alone.
func (s *RedisStore) touch(ctx context.Context, sessionID string) error {
	if s.ttl <= 0 {
		return nil
	}
	return s.client.Expire(ctx, redisKeyPrefix+sessionID, s.ttl).Err()
}

// getter is satisfied by both redis.UniversalClient and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) read(ctx context.Context, g getter, sessionID string) (domain.Snapshot, bool, error) {
	data, err := g.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return idle(sessionID), false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, true, nil
}

func pingWithRetry(ctx context.Context, client redis.UniversalClient, maxRetries int) error {
	attempts := maxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	backoff := 100 * time.Millisecond
	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return lastErr
}
