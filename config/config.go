package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port string `mapstructure:"port"`

	StorageDriver string `mapstructure:"storage_driver"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoUser     string `mapstructure:"mongo_user"`
	MongoPass     string `mapstructure:"mongo_pass"`
	MongoHost     string `mapstructure:"mongo_host"`
	MongoDB       string `mapstructure:"mongo_db"`
	SQLDSN        string `mapstructure:"sql_dsn"`

	AccessTokenSecret  string        `mapstructure:"access_token_secret"`
	RefreshTokenSecret string        `mapstructure:"refresh_token_secret"`
	AccessTokenTTL     time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL    time.Duration `mapstructure:"refresh_token_ttl"`
	CookieSecure       bool          `mapstructure:"cookie_secure"`
	CookieSameSite     string        `mapstructure:"cookie_samesite"`

	StripePrivateKey string `mapstructure:"stripe_private_key"`
	PaymentCurrency  string `mapstructure:"payment_currency"`

	CORSOrigin string `mapstructure:"cors_origin"`

	RedisAddr          string `mapstructure:"redis_addr"`
	RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute"`

	KafkaBrokers string `mapstructure:"kafka_brokers"`
	KafkaTopic   string `mapstructure:"kafka_topic"`

	GinMode  string `mapstructure:"gin_mode"`
	LogLevel string `mapstructure:"log_level"`
}

var defaults = map[string]any{
	"port":                  "3000",
	"storage_driver":        DriverMongo,
	"mongo_db":              "parcelDB",
	"sql_dsn":               "parcel_delivery.db",
	"access_token_ttl":      "15m",
	"refresh_token_ttl":     "168h",
	"cookie_secure":         false,
	"cookie_samesite":       "lax",
	"payment_currency":      "usd",
	"cors_origin":           "http://localhost:5173",
	"rate_limit_per_minute": 30,
	"kafka_topic":           "parcel.events",
	"gin_mode":              "release",
	"log_level":             "info",
}

// keys that are only ever set from the environment or the file
var optional = []string{
	"mongo_uri", "mongo_user", "mongo_pass", "mongo_host",
	"access_token_secret", "refresh_token_secret",
	"stripe_private_key", "redis_addr", "kafka_brokers",
}

// Load reads defaults, then the YAML file at path (if any), then the
// environment. Each key maps to its upper-cased env var (PORT, MONGO_DB, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	keys := append([]string{}, optional...)
	for k := range defaults {
		keys = append(keys, k)
	}
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, errors.Wrapf(err, "bind %s", k)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("access and refresh token secrets must differ")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	switch c.StorageDriver {
	case DriverMongo:
		if c.MongoURI == "" && (c.MongoUser == "" || c.MongoHost == "") {
			return errors.New("MONGO_URI or MONGO_USER/MONGO_PASS/MONGO_HOST is required for the mongo driver")
		}
	case DriverSQLite, DriverPostgres:
		if c.SQLDSN == "" {
			return errors.New("SQL_DSN is required for sql drivers")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch strings.ToLower(c.CookieSameSite) {
	case "lax", "strict", "none":
	default:
		return fmt.Errorf("COOKIE_SAMESITE must be lax, strict or none, got %q", c.CookieSameSite)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.GinMode)
	}
	return nil
}

// MongoConnectionURI returns MONGO_URI, or an SRV URI assembled from the
// user, password and cluster host.
func (c *Config) MongoConnectionURI() string {
	if c.MongoURI != "" {
		return c.MongoURI
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.MongoUser, c.MongoPass),
		Host:     c.MongoHost,
		Path:     "/",
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

// Brokers splits KAFKA_BROKERS on commas; empty disables publishing
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
