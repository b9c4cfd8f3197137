// Package config loads the gateway's environment-level configuration
// (spec §6) via viper, with sane defaults so the service runs without
// any env vars set (in-memory cache, conservative limits).
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the gateway's full runtime configuration.
type Config struct {
	Redis         RedisConfig
	Indicator     IndicatorConfig
	Exchange      ExchangeConfig
	Server        ServerConfig
	MaxDataPoints int
}

// RedisConfig configures the backing cache store.
type RedisConfig struct {
	Enabled       bool
	Host          string
	Port          int
	Password      string
	DB            int
	CacheTTLSec   int
	MaxBarsPerKey int
	KeyPrefix     string
}

// IndicatorConfig configures indicator emission.
type IndicatorConfig struct {
	Precision int
}

// ExchangeConfig configures the upstream exchange client.
type ExchangeConfig struct {
	BaseURL  string
	MaxLimit int
	Timeout  time.Duration
}

// ServerConfig configures the downstream HTTP surface.
type ServerConfig struct {
	Host string
	Port int
}

// Load reads configuration from the process environment (and, if
// present, a config file named "midasgw" on the default viper search
// paths), applying defaults for anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("midasgw")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", 300)
	v.SetDefault("redis.max_bars_per_key", 10000)
	v.SetDefault("redis.key_prefix", "midas:cache:")
	v.SetDefault("indicator.precision", 3)
	v.SetDefault("exchange.base_url", "https://api.binance.com/api/v3")
	v.SetDefault("exchange.max_limit", 1500)
	v.SetDefault("exchange.timeout_seconds", 15)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("max_data_points", 5000)

	_ = v.BindEnv("redis.enabled", "REDIS_ENABLED")
	_ = v.BindEnv("redis.host", "REDIS_HOST")
	_ = v.BindEnv("redis.port", "REDIS_PORT")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("redis.cache_ttl", "REDIS_CACHE_TTL")
	_ = v.BindEnv("redis.max_bars_per_key", "REDIS_MAX_BARS_PER_KEY")
	_ = v.BindEnv("indicator.precision", "INDICATOR_PRECISION")
	_ = v.BindEnv("max_data_points", "MAX_DATA_POINTS")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := &Config{
		Redis: RedisConfig{
			Enabled:       v.GetBool("redis.enabled"),
			Host:          v.GetString("redis.host"),
			Port:          v.GetInt("redis.port"),
			Password:      v.GetString("redis.password"),
			DB:            v.GetInt("redis.db"),
			CacheTTLSec:   v.GetInt("redis.cache_ttl"),
			MaxBarsPerKey: v.GetInt("redis.max_bars_per_key"),
			KeyPrefix:     v.GetString("redis.key_prefix"),
		},
		Indicator: IndicatorConfig{
			Precision: v.GetInt("indicator.precision"),
		},
		Exchange: ExchangeConfig{
			BaseURL:  v.GetString("exchange.base_url"),
			MaxLimit: v.GetInt("exchange.max_limit"),
			Timeout:  time.Duration(v.GetInt("exchange.timeout_seconds")) * time.Second,
		},
		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		MaxDataPoints: v.GetInt("max_data_points"),
	}

	return cfg, nil
}
