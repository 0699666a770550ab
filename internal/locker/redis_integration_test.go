//go:build integration

package locker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisLockerSerialisesAcrossInstances(t *testing.T) {
	ctx := context.Background()
	addr := startRedis(ctx, t)

	var lockers []*Redis
	for i := 0; i < 2; i++ {
		client, err := NewRedisClient(ctx, addr, "", 0)
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		lockers = append(lockers, NewRedis(client, RedisOptions{Prefix: "test:", TTL: 5 * time.Second}, nil))
	}

	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(l *Redis) {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "user:1")
			if err != nil {
				t.Error(err)
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inside.Add(-1)
			unlock()
		}(lockers[i%2])
	}
	wg.Wait()
	require.Equal(t, int32(1), maxInside.Load())
}

func TestRedisLockerHonoursContext(t *testing.T) {
	ctx := context.Background()
	addr := startRedis(ctx, t)

	client, err := NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	l := NewRedis(client, RedisOptions{TTL: 5 * time.Second}, nil)

	unlock, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	defer unlock()

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = l.Lock(waitCtx, "k")
	require.Error(t, err)
}
