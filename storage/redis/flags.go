// Package redisstore keeps the credential-delivered flags in redis so they are shared by API instances.
package redisstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/eduai/backend/core"
)

const deliveredPrefix = "eduai:credentials:delivered:"

// Client is the subset of *redis.Client used by the store.
type Client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type DeliveredFlags struct {
	client Client
	ttl    time.Duration
}

func NewDeliveredFlags(client Client, ttl time.Duration) *DeliveredFlags {
	return &DeliveredFlags{client: client, ttl: ttl}
}

// Open connects to the redis server of `conf` and pings it.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// MarkDelivered sets the flag `key` and reports whether it was not set yet.
func (f *DeliveredFlags) MarkDelivered(ctx context.Context, key string) (bool, error) {
	ok, err := f.client.SetNX(ctx, deliveredPrefix+key, "1", f.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "setting delivered flag")
	}
	return ok, nil
}

func (f *DeliveredFlags) Unmark(ctx context.Context, key string) error {
	if err := f.client.Del(ctx, deliveredPrefix+key).Err(); err != nil {
		return errors.Wrap(err, "deleting delivered flag")
	}
	return nil
}
