package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. CLIENTSYNC_BACKEND_URL.
const EnvPrefix = "CLIENTSYNC"

type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Identity  IdentityConfig  `mapstructure:"identity"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Chart     ChartConfig     `mapstructure:"chart"`
	Watchlist WatchlistConfig `mapstructure:"watchlist"`
	Log       LogConfig       `mapstructure:"log"`
}

type BackendConfig struct {
	URL       string        `mapstructure:"url"`
	MarketURL string        `mapstructure:"market_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// IdentityConfig seeds the session for CLI use. Empty token means signed out.
type IdentityConfig struct {
	Token  string `mapstructure:"token"`
	UserID string `mapstructure:"user_id"`
	Handle string `mapstructure:"handle"`
}

type CacheConfig struct {
	Shards     int           `mapstructure:"shards"`
	FeedTTL    time.Duration `mapstructure:"feed_ttl"`
	TickerTTL  time.Duration `mapstructure:"ticker_ttl"`
	ContextTTL time.Duration `mapstructure:"context_ttl"`

	// WriteMode is "write-through" or "write-back"; only used with Redis.
	WriteMode   string `mapstructure:"write_mode"`
	WriteBuffer int    `mapstructure:"write_buffer"`
}

// RedisConfig enables the ticker snapshot store when Address is set.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// NATSConfig enables event forwarding when URL is set.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
	Address   string `mapstructure:"address"`
}

type ChartConfig struct {
	Delay      time.Duration `mapstructure:"delay"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type WatchlistConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.market_url", "")
	v.SetDefault("backend.timeout", "15s")

	v.SetDefault("identity.token", "")
	v.SetDefault("identity.user_id", "")
	v.SetDefault("identity.handle", "")

	v.SetDefault("cache.shards", 16)
	v.SetDefault("cache.feed_ttl", "5m")
	v.SetDefault("cache.ticker_ttl", "3m")
	v.SetDefault("cache.context_ttl", "2m")
	v.SetDefault("cache.write_mode", "write-through")
	v.SetDefault("cache.write_buffer", 256)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "clientsync:")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "clientsync.")
	v.SetDefault("nats.connect_timeout", "5s")

	v.SetDefault("metrics.namespace", "clientsync")
	v.SetDefault("metrics.address", "")

	v.SetDefault("chart.delay", "1s")
	v.SetDefault("chart.max_retries", 2)

	v.SetDefault("watchlist.batch_size", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

/*
Load reads configuration in increasing priority:
- defaults
- the YAML file at path (a directory is searched for config.yaml; a
  missing file is not an error)
- a .env file in the working directory
- CLIENTSYNC_* environment variables
*/
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if fi, err := os.Stat(path); path != "" && err == nil && !fi.IsDir() {
		v.SetConfigFile(path)
	} else {
		if path != "" && err == nil {
			v.AddConfigPath(path)
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Backend.MarketURL == "" {
		cfg.Backend.MarketURL = cfg.Backend.URL
	}
	return &cfg, nil
}
