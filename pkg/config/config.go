package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "artmarket"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ARTMARKET_DB_DSN"
	EnvDBHost = "ARTMARKET_DB_HOST"
	EnvDBUser = "ARTMARKET_DB_USER"
	EnvDBName = "ARTMARKET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	Invoice      InvoiceConfig
	Commission   CommissionConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ARTMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"ARTMARKET_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ARTMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ARTMARKET_LOG_WARN_STACK" default:"false"`
	OperatorName string `envconfig:"ARTMARKET_OPERATOR_NAME" default:"Art Marketplace Inc."`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ARTMARKET_DB_DSN"`
	Driver string `envconfig:"ARTMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ARTMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"ARTMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ARTMARKET_DB_USER"`
	LegacyPassword string `envconfig:"ARTMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"ARTMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"ARTMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ARTMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ARTMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ARTMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ARTMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ARTMARKET_REDIS_URL"`
	Address      string        `envconfig:"ARTMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"ARTMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"ARTMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ARTMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ARTMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ARTMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ARTMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ARTMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey        string        `envconfig:"ARTMARKET_STRIPE_API_KEY"`
	WebhookSecret string        `envconfig:"ARTMARKET_STRIPE_WEBHOOK_SECRET"`
	Env           string        `envconfig:"ARTMARKET_STRIPE_ENV" default:"test"`
	EventGuardTTL time.Duration `envconfig:"ARTMARKET_STRIPE_EVENT_GUARD_TTL" default:"720h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey        string `envconfig:"ARTMARKET_SENDGRID_API_KEY"`
	DefaultFrom   string `envconfig:"ARTMARKET_SENDGRID_FROM_EMAIL" default:"no-reply@artmarketplace.com"`
	OperatorEmail string `envconfig:"ARTMARKET_OPERATOR_EMAIL" default:"admin@artmarketplace.com"`
}

type InvoiceConfig struct {
	Dir string `envconfig:"ARTMARKET_INVOICE_DIR" default:"public/invoices"`
}

type CommissionConfig struct {
	DefaultRate string `envconfig:"ARTMARKET_COMMISSION_DEFAULT_RATE" default:"0.20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ARTMARKET_AUTO_MIGRATE" default:"false"`
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
