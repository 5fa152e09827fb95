package localstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-client/pkg/config"
	"github.com/angelmondragon/storefront-client/pkg/db"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/redis"
)

// Store is a small persistent key/value slot surviving process restarts.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.LocalStoreConfig, redisCfg config.RedisConfig, logg *logger.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.LocalStoreMemory:
		return NewMemory(), nil
	case config.LocalStoreSQLite, "":
		client, err := db.New(ctx, cfg, logg)
		if err != nil {
			return nil, err
		}
		store, err := NewSQLite(ctx, client, cfg.Profile)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return store, nil
	case config.LocalStoreRedis:
		client, err := redis.New(ctx, redisCfg, logg)
		if err != nil {
			return nil, err
		}
		return NewRedis(client, cfg.Profile), nil
	}
	return nil, fmt.Errorf("unknown local store backend %q", cfg.Backend)
}

func profileOrDefault(profile string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return "default"
	}
	return profile
}
