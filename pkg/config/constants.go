package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvLogLevel        = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat       = "STOREFRONT_LOG_FORMAT"
	EnvAPIBaseURL      = "STOREFRONT_API_BASE_URL"
	EnvAPITimeout      = "STOREFRONT_API_TIMEOUT"
	EnvAccessToken     = "STOREFRONT_ACCESS_TOKEN"
	EnvTokenFile       = "STOREFRONT_TOKEN_FILE"
	EnvLocalStore      = "STOREFRONT_LOCAL_STORE"
	EnvLocalStorePath  = "STOREFRONT_LOCAL_STORE_PATH"
	EnvProfile         = "STOREFRONT_PROFILE"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvRedisAddr       = "STOREFRONT_REDIS_ADDR"
	EnvCartSerialize   = "STOREFRONT_CART_SERIALIZE_MUTATIONS"
	EnvCartClearPolicy = "STOREFRONT_CART_CLEAR_POLICY"
)

const (
	LocalStoreMemory = "memory"
	LocalStoreSQLite = "sqlite"
	LocalStoreRedis  = "redis"
)

const (
	ClearPolicyEager  = "eager"
	ClearPolicyStaged = "staged"
)
