package localstore

import (
	"context"
	"fmt"
)

// redisClient is the slice of *redis.Client the store needs.
type redisClient interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Store(ctx context.Context, key, value string) error
	Forget(ctx context.Context, keys ...string) error
	EntryKey(profile, name string) string
	Close() error
}

// Redis keeps entries in a shared Redis so several client processes see the same anonymous cart.
type Redis struct {
	client  redisClient
	profile string
}

func NewRedis(client redisClient, profile string) *Redis {
	return &Redis{client: client, profile: profileOrDefault(profile)}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := r.client.Lookup(ctx, r.client.EntryKey(r.profile, key))
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, ok, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Store(ctx, r.client.EntryKey(r.profile, key), value); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Forget(ctx, r.client.EntryKey(r.profile, key)); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
