package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Orders       OrdersConfig
	Kafka        KafkaConfig
	Sweeper      SweeperConfig
	Telemetry    TelemetryConfig
	Metrics      MetricsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.JWT.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ISKOMART_APP_ENV" required:"true"`
	Port         string `envconfig:"ISKOMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ISKOMART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"ISKOMART_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"ISKOMART_LOG_WARN_STACK" default:"false"`

	CORSOrigins     []string      `envconfig:"ISKOMART_CORS_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"ISKOMART_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ISKOMART_DB_DSN"`
	Driver string `envconfig:"ISKOMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ISKOMART_DB_HOST"`
	LegacyPort     int    `envconfig:"ISKOMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ISKOMART_DB_USER"`
	LegacyPassword string `envconfig:"ISKOMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"ISKOMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"ISKOMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ISKOMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ISKOMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ISKOMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ISKOMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the embedded sqlite driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

// RedisConfig is optional; an empty URL and address disables idempotency replay.
type RedisConfig struct {
	URL          string        `envconfig:"ISKOMART_REDIS_URL"`
	Address      string        `envconfig:"ISKOMART_REDIS_ADDR"`
	Password     string        `envconfig:"ISKOMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"ISKOMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ISKOMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ISKOMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ISKOMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ISKOMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ISKOMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"ISKOMART_JWT_SECRET"`
	Issuer            string `envconfig:"ISKOMART_JWT_ISSUER" default:"iskomart"`
	ExpirationMinutes int    `envconfig:"ISKOMART_JWT_EXPIRATION_MINUTES" default:"60"`
	Required          bool   `envconfig:"ISKOMART_JWT_REQUIRED" default:"false"`
}

func (j JWTConfig) validate() error {
	if j.Required && j.Secret == "" {
		return fmt.Errorf("%s is required when %s is true", EnvJWTSecret, EnvJWTRequired)
	}
	return nil
}

type OrdersConfig struct {
	StrictTransitions   bool `envconfig:"ISKOMART_ORDERS_STRICT_TRANSITIONS" default:"false"`
	ClearCartOnCheckout bool `envconfig:"ISKOMART_ORDERS_CLEAR_CART_ON_CHECKOUT" default:"true"`
}

// SweeperConfig drives the background worker. A zero PendingOrderTTL leaves
// pending orders alone.
type SweeperConfig struct {
	Interval        time.Duration `envconfig:"ISKOMART_SWEEPER_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"ISKOMART_SWEEPER_LOCK_TTL" default:"55m"`
	PendingOrderTTL time.Duration `envconfig:"ISKOMART_SWEEPER_PENDING_ORDER_TTL" default:"168h"`
	BatchSize       int           `envconfig:"ISKOMART_SWEEPER_BATCH_SIZE" default:"200"`
	MetricsPort     string        `envconfig:"ISKOMART_SWEEPER_METRICS_PORT" default:"9091"`
}

type KafkaConfig struct {
	Brokers            []string `envconfig:"ISKOMART_KAFKA_BROKERS"`
	NotificationsTopic string   `envconfig:"ISKOMART_KAFKA_NOTIFICATIONS_TOPIC" default:"iskomart.notifications"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type TelemetryConfig struct {
	OTLPEndpoint   string `envconfig:"ISKOMART_OTLP_ENDPOINT"`
	ServiceVersion string `envconfig:"ISKOMART_SERVICE_VERSION" default:"dev"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"ISKOMART_METRICS_ENABLED" default:"true"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ISKOMART_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
