package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-client/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace = "sf"
	entryPrefix  = "local"
	clientName   = "storefront"
)

var ErrNotConnected = pkgerrors.New(pkgerrors.CodeInternal, "redis client not connected")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client stores small per-profile entries (anonymous cart id, access token) in a shared Redis so
// several client processes see the same state. Every write refreshes the entry TTL when one is set.
type Client struct {
	store    cmdable
	raw      *redis.Client
	entryTTL time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "ping redis at "+opts.Addr)
	}
	if logg != nil {
		logg.Debug(logg.WithField(ctx, "redis_addr", opts.Addr), "redis connection established")
	}
	return &Client{store: raw, raw: raw, entryTTL: cfg.EntryTTL}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	url, addr := strings.TrimSpace(cfg.URL), strings.TrimSpace(cfg.Address)
	opts := &redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB}
	switch {
	case url != "":
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse "+config.EnvRedisURL)
		}
		opts = parsed
		if opts.DB == 0 {
			opts.DB = cfg.DB
		}
	case addr == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, config.EnvRedisURL+" or "+config.EnvRedisAddr+" is required for the redis local store")
	}

	opts.ClientName = clientName
	fill(&opts.PoolSize, cfg.PoolSize)
	fill(&opts.MinIdleConns, cfg.MinIdleConns)
	fill(&opts.DialTimeout, cfg.DialTimeout)
	fill(&opts.ReadTimeout, cfg.ReadTimeout)
	fill(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

// fill sets *dst to v when dst still holds its zero value.
func fill[T comparable](dst *T, v T) {
	var zero T
	if *dst == zero {
		*dst = v
	}
}

// EntryKey namespaces name under profile, e.g. sf:local:default:cart_id.
func (c *Client) EntryKey(profile, name string) string {
	return buildKey(entryPrefix, profile, name)
}

// Lookup returns the value at key. A missing key is reported as found=false, not as an error.
func (c *Client) Lookup(ctx context.Context, key string) (string, bool, error) {
	if c.store == nil {
		return "", false, ErrNotConnected
	}
	value, err := c.store.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis get")
	}
	return value, true, nil
}

// Store writes value at key with the configured entry TTL (zero keeps it forever).
func (c *Client) Store(ctx context.Context, key, value string) error {
	if c.store == nil {
		return ErrNotConnected
	}
	if err := c.store.Set(ctx, key, value, c.entryTTL).Err(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis set")
	}
	return nil
}

// Forget deletes keys. Deleting a missing key is not an error.
func (c *Client) Forget(ctx context.Context, keys ...string) error {
	if c.store == nil {
		return ErrNotConnected
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.store.Del(ctx, keys...).Err(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis del")
	}
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return ErrNotConnected
	}
	return c.store.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, ":")
}
