package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ZARLEDGER_DB_DSN"
	EnvDBHost = "ZARLEDGER_DB_HOST"
	EnvDBUser = "ZARLEDGER_DB_USER"
	EnvDBName = "ZARLEDGER_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	GoldPrice    GoldPriceConfig
	Contracts    ContractsConfig
	Cron         CronConfig
	Idempotency  IdempotencyConfig
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
	if err := cfg.GoldPrice.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ZARLEDGER_APP_ENV" required:"true"`
	Port         string `envconfig:"ZARLEDGER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ZARLEDGER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZARLEDGER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ZARLEDGER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ZARLEDGER_DB_DSN"`
	Driver string `envconfig:"ZARLEDGER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZARLEDGER_DB_HOST"`
	LegacyPort     int    `envconfig:"ZARLEDGER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZARLEDGER_DB_USER"`
	LegacyPassword string `envconfig:"ZARLEDGER_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZARLEDGER_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZARLEDGER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZARLEDGER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZARLEDGER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZARLEDGER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZARLEDGER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ZARLEDGER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ZARLEDGER_REDIS_ADDR"`
	Password     string        `envconfig:"ZARLEDGER_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZARLEDGER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZARLEDGER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZARLEDGER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZARLEDGER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZARLEDGER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZARLEDGER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ZARLEDGER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ZARLEDGER_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ZARLEDGER_JWT_EXPIRATION_MINUTES" default:"720"`
}

// GoldPriceConfig drives the upstream price source and the cache in front of it.
// FallbackPerGram is the last-resort static price (toman per gram at BaseKarat)
// used when both the upstream source and the cache are unavailable.
type GoldPriceConfig struct {
	SourceURL       string        `envconfig:"ZARLEDGER_GOLD_PRICE_SOURCE_URL"`
	SourceTimeout   time.Duration `envconfig:"ZARLEDGER_GOLD_PRICE_SOURCE_TIMEOUT" default:"10s"`
	BaseKarat       int           `envconfig:"ZARLEDGER_GOLD_PRICE_BASE_KARAT" default:"18"`
	FallbackPerGram int64         `envconfig:"ZARLEDGER_GOLD_PRICE_FALLBACK_TOMAN" default:"2000000"`
	CacheTTL        time.Duration `envconfig:"ZARLEDGER_GOLD_PRICE_CACHE_TTL" default:"30m"`
	RefreshInterval time.Duration `envconfig:"ZARLEDGER_GOLD_PRICE_REFRESH_INTERVAL" default:"15m"`
}

func (g GoldPriceConfig) validate() error {
	if g.BaseKarat <= 0 || g.BaseKarat > 24 {
		return fmt.Errorf("gold price base karat must be in (0, 24], got %d", g.BaseKarat)
	}
	if g.FallbackPerGram <= 0 {
		return fmt.Errorf("gold price fallback must be positive, got %d", g.FallbackPerGram)
	}
	return nil
}

type ContractsConfig struct {
	DefaultGracePeriodDays int `envconfig:"ZARLEDGER_CONTRACT_GRACE_PERIOD_DAYS" default:"14"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"ZARLEDGER_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"ZARLEDGER_CRON_LOCK_TTL" default:"2h"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"ZARLEDGER_IDEMPOTENCY_TTL" default:"168h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ZARLEDGER_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
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
