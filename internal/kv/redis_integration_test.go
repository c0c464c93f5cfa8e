//go:build integration

package kv

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Runs the redis backend against a real server: go test -tags integration ./internal/kv
func TestRedisStoreAgainstContainer(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client, Tickets, DefaultLimits)
	for _, key := range []string{"m", "a", "z"} {
		_, _, err := store.Insert(ctx, key, []byte(key))
		require.NoError(t, err)
	}

	values, err := store.Values(ctx)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("m"), []byte("z")}, values)

	previous, existed, err := store.Remove(ctx, "m")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, []byte("m"), previous)
}
