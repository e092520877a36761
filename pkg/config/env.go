package config

const EnvPrefix = "ISKOMART"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv   = "ISKOMART_APP_ENV"
	EnvPort     = "ISKOMART_APP_PORT"
	EnvLogLevel = "ISKOMART_LOG_LEVEL"

	EnvDBDSN    = "ISKOMART_DB_DSN"
	EnvDBDriver = "ISKOMART_DB_DRIVER"
	EnvDBHost   = "ISKOMART_DB_HOST"
	EnvDBUser   = "ISKOMART_DB_USER"
	EnvDBName   = "ISKOMART_DB_NAME"

	EnvRedisURL = "ISKOMART_REDIS_URL"

	EnvJWTSecret   = "ISKOMART_JWT_SECRET"
	EnvJWTRequired = "ISKOMART_JWT_REQUIRED"

	EnvOrdersStrictTransitions = "ISKOMART_ORDERS_STRICT_TRANSITIONS"
	EnvOrdersClearCart         = "ISKOMART_ORDERS_CLEAR_CART_ON_CHECKOUT"

	EnvKafkaBrokers = "ISKOMART_KAFKA_BROKERS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
