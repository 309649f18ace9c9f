package redisstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu   sync.Mutex
	keys map[string]time.Duration
	err  error
}

func (c *fakeClient) SetNX(_ context.Context, key string, _ interface{}, expiration time.Duration) *redis.BoolCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return redis.NewBoolResult(false, c.err)
	}
	if _, ok := c.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	c.keys[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (c *fakeClient) Del(_ context.Context, keys ...string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.keys[k]; ok {
			delete(c.keys, k)
			n++
		}
	}
	return redis.NewIntResult(n, c.err)
}

func TestDeliveredFlags(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{keys: make(map[string]time.Duration)}
	flags := NewDeliveredFlags(client, time.Hour)

	ok, err := flags.MarkDelivered(ctx, "sess:student:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Hour, client.keys[deliveredPrefix+"sess:student:1"])

	ok, err = flags.MarkDelivered(ctx, "sess:student:1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, flags.Unmark(ctx, "sess:student:1"))
	ok, _ = flags.MarkDelivered(ctx, "sess:student:1")
	assert.True(t, ok)

	client.err = errors.New("connection refused")
	_, err = flags.MarkDelivered(ctx, "sess:student:2")
	assert.Error(t, err)
}
