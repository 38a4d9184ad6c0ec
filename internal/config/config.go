package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Market   MarketConfig
	Board    BoardConfig

	LogFile string `envconfig:"LOG_FILE" default:""`
}

type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `envconfig:"SERVER_PORT" default:"8080"`
}

// DatabaseConfig selects the storage backend; sqlite for a single node,
// mysql for a shared one.
type DatabaseConfig struct {
	Driver string `envconfig:"DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"DB_DSN" default:"bazaar.db"`
}

type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"`
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// MarketConfig carries the fee policy and ranking weights.
type MarketConfig struct {
	// Purchase fee as a percentage of the total, overridable per item.
	TransactionFeePercent float64 `envconfig:"MARKET_TRANSACTION_FEE" default:"3.0"`

	// Delist fee mode: "fixed" charges DelistFeeValue per price tier,
	// "percent" charges stock*price*DelistFeeValue/100 per tier.
	DelistFeeMode  string  `envconfig:"MARKET_DELIST_FEE_MODE" default:"fixed"`
	DelistFeeValue float64 `envconfig:"MARKET_DELIST_FEE_VALUE" default:"10.0"`

	HeatWeightTx    float64 `envconfig:"MARKET_HEAT_WEIGHT_TX" default:"1.0"`
	HeatWeightBoost float64 `envconfig:"MARKET_HEAT_WEIGHT_BOOST" default:"10.0"`
}

type BoardConfig struct {
	PostDuration  time.Duration `envconfig:"BOARD_POST_DURATION" default:"24h"`
	RenewDuration time.Duration `envconfig:"BOARD_RENEW_DURATION" default:"24h"`
	RenewPrice    float64       `envconfig:"BOARD_RENEW_PRICE" default:"100.0"`
	SweepInterval time.Duration `envconfig:"BOARD_SWEEP_INTERVAL" default:"1h"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
