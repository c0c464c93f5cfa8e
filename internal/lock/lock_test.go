package lock

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-bookings/internal/logger"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func assertExclusive(t *testing.T, locker Locker) {
	t.Helper()
	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "tickets")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
}

func TestLocalIsExclusive(t *testing.T) {
	assertExclusive(t, NewLocal())
}

func TestLocalHonoursContext(t *testing.T) {
	l := NewLocal()
	unlock, err := l.Lock(context.Background(), "flights")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "flights")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Different names do not contend.
	other, err := l.Lock(context.Background(), "tickets")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	again, err := l.Lock(context.Background(), "flights")
	require.NoError(t, err)
	again()
}

func TestRedisIsExclusive(t *testing.T) {
	client, _ := setupTestRedis(t)
	assertExclusive(t, NewRedis(client, time.Second, nil))
}

func TestRedisLockTimesOut(t *testing.T) {
	client, _ := setupTestRedis(t)
	r := NewRedis(client, time.Minute, nil)

	unlock, err := r.Lock(context.Background(), "tickets")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = r.Lock(ctx, "tickets")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisStaleHolderCannotReleaseNewLock(t *testing.T) {
	client, mr := setupTestRedis(t)
	r := NewRedis(client, time.Second, nil)

	staleUnlock, err := r.Lock(context.Background(), "tickets")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	freshUnlock, err := r.Lock(context.Background(), "tickets")
	require.NoError(t, err)

	staleUnlock()
	assert.True(t, mr.Exists("op_lock:tickets"), "fresh lock must survive the stale release")

	freshUnlock()
	assert.False(t, mr.Exists("op_lock:tickets"))
}

func TestRedisFailedReleaseIsLogged(t *testing.T) {
	client, mr := setupTestRedis(t)
	var buf bytes.Buffer
	r := NewRedis(client, time.Second, logger.New(&buf))

	unlock, err := r.Lock(context.Background(), "flights")
	require.NoError(t, err)

	mr.Close()
	unlock()

	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), "release flights failed")
}
