package session_test

import (
	"context"
	"testing"
	"time"

	testcontainers "github.com/testcontainers/testcontainers-go"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/pkordes/match-results/backend/internal/session"
)

// skipIfNoDocker skips t when no container runtime is reachable. The
// testcontainers health check panics instead of skipping on hosts without
// any Docker socket, so the panic is turned into a skip here.
func skipIfNoDocker(t *testing.T) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("docker unavailable: %v", r)
		}
	}()
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// newRedisStoreForTest starts a throwaway Redis container and returns a store
// on it with the given ttl. The test is skipped when Docker is not available.
func newRedisStoreForTest(t *testing.T, ttl time.Duration) *session.RedisStore {
	t.Helper()
	skipIfNoDocker(t)

	ctx := context.Background()
	container, err := rediscontainer.Run(ctx, "redis:7.2-alpine")
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("container connection string: %v", err)
	}

	client, err := session.OpenRedis(ctx, url, 3)
	if err != nil {
		t.Fatalf("OpenRedis() error: %v", err)
	}

	store := session.NewRedisStore(client, ttl, nil)
	t.Cleanup(func() { _ = store.Close() })
	return store
}
