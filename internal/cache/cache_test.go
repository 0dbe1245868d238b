package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kiranshivaraju/fraudbatch/internal/cache"
	"github.com/kiranshivaraju/fraudbatch/pkg/models"
)

func setupMiniredis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisCache("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })
	return rc, mr
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := cache.NewRedisCache("://nope")
	assert.Error(t, err)
}

func TestPing(t *testing.T) {
	rc, mr := setupMiniredis(t)
	require.NoError(t, rc.Ping(context.Background()))

	mr.Close()
	assert.Error(t, rc.Ping(context.Background()))
}

func TestJobStatus_SetGet(t *testing.T) {
	rc, mr := setupMiniredis(t)
	ctx := context.Background()

	_, ok, err := rc.GetJobStatus(ctx, "batch_1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, rc.SetJobStatus(ctx, "batch_1", models.JobStatusRunning))
	status, ok, err := rc.GetJobStatus(ctx, "batch_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.JobStatusRunning, status)

	assert.Equal(t, "running", mustGet(t, mr, "job:batch_1"))
	assert.Equal(t, cache.JobStatusTTL, mr.TTL("job:batch_1"))
}

func TestJobStatus_Expires(t *testing.T) {
	rc, mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, rc.SetJobStatus(ctx, "batch_1", models.JobStatusCompleted))
	mr.FastForward(cache.JobStatusTTL + time.Second)

	_, ok, err := rc.GetJobStatus(ctx, "batch_1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIncrWithExpiry(t *testing.T) {
	rc, mr := setupMiniredis(t)
	ctx := context.Background()
	key := cache.RateLimitKey("client-a")

	for want := int64(1); want <= 3; want++ {
		n, err := rc.IncrWithExpiry(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute + time.Second)
	n, err := rc.IncrWithExpiry(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "job:batch_20260101_120000_1", cache.JobStatusKey("batch_20260101_120000_1"))
	assert.Equal(t, "ratelimit:fb_abc", cache.RateLimitKey("fb_abc"))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}

// TestRedisContainer runs the same status round-trip against a real Redis.
func TestRedisContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rc, err := cache.NewRedisCache("redis://" + host + ":" + port.Port())
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	require.NoError(t, rc.SetJobStatus(ctx, "batch_1", models.JobStatusFailed))
	status, ok, err := rc.GetJobStatus(ctx, "batch_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.JobStatusFailed, status)
}
