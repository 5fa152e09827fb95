package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	API        APIConfig
	Identity   IdentityConfig
	LocalStore LocalStoreConfig
	Redis      RedisConfig
	Cart       CartConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.LocalStore.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// APIConfig points the client at the remote commerce API.
type APIConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_API_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"STOREFRONT_API_TIMEOUT" default:"10s"`
}

func (a APIConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(a.BaseURL))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url, got %q", EnvAPIBaseURL, a.BaseURL)
	}
	if a.Timeout < 0 {
		return fmt.Errorf("%s must not be negative", EnvAPITimeout)
	}
	return nil
}

type IdentityConfig struct {
	AccessToken string `envconfig:"STOREFRONT_ACCESS_TOKEN"`
	TokenFile   string `envconfig:"STOREFRONT_TOKEN_FILE"`
}

// LocalStoreConfig selects where the anonymous cart identifier survives restarts.
type LocalStoreConfig struct {
	Backend string `envconfig:"STOREFRONT_LOCAL_STORE" default:"sqlite"`
	Path    string `envconfig:"STOREFRONT_LOCAL_STORE_PATH" default:"storefront.db"`
	Profile string `envconfig:"STOREFRONT_PROFILE" default:"default"`
}

func (l LocalStoreConfig) validate() error {
	switch strings.ToLower(l.Backend) {
	case LocalStoreMemory, LocalStoreSQLite, LocalStoreRedis:
		return nil
	}
	return fmt.Errorf("%s must be one of %s, %s, %s; got %q", EnvLocalStore, LocalStoreMemory, LocalStoreSQLite, LocalStoreRedis, l.Backend)
}

// RedisConfig configures the redis local store. EntryTTL expires stored entries; zero keeps them
// until removed.
type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
	EntryTTL     time.Duration `envconfig:"STOREFRONT_REDIS_ENTRY_TTL" default:"0s"`
}

type CartConfig struct {
	SerializeMutations bool   `envconfig:"STOREFRONT_CART_SERIALIZE_MUTATIONS" default:"false"`
	ClearPolicy        string `envconfig:"STOREFRONT_CART_CLEAR_POLICY" default:"eager"`
}

func (c CartConfig) validate() error {
	switch strings.ToLower(c.ClearPolicy) {
	case ClearPolicyEager, ClearPolicyStaged:
		return nil
	}
	return fmt.Errorf("%s must be %s or %s; got %q", EnvCartClearPolicy, ClearPolicyEager, ClearPolicyStaged, c.ClearPolicy)
}
