package locker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalSerialisesSameKey(t *testing.T) {
	t.Parallel()

	l := NewLocal()
	var (
		wg      sync.WaitGroup
		active  atomic.Int32
		maxSeen atomic.Int32
		counter int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "user:1")
			require.NoError(t, err)
			defer unlock()

			n := active.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			counter++
			active.Add(-1)
		}()
	}
	wg.Wait()

	require.Equal(t, 50, counter)
	require.Equal(t, int32(1), maxSeen.Load())
	require.Zero(t, l.size())
}

func TestLocalIndependentKeys(t *testing.T) {
	t.Parallel()

	l := NewLocal()
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	unlockB()
}

func TestLocalHonoursContext(t *testing.T) {
	t.Parallel()

	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // second call is a no-op
	require.Zero(t, l.size())
}
