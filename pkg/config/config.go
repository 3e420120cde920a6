package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Backend kinds selectable via LEDGER_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config holds application configuration.
type Config struct {
	Backend      string
	DatabaseURL  string
	MongoURL     string
	MongoDB      string
	RedisURL     string
	IsProduction bool

	WorkerPoolSize  int
	WorkerQueueSize int

	LeaderboardSize     int
	LeaderboardInterval time.Duration

	MemorySnapshotPath string

	DefaultCurrencyID     string
	DefaultCurrencyName   string
	DefaultCurrencySymbol string
	DefaultStartingBal    string
	DefaultMaxBal         string

	BenchActors   int
	BenchOps      int
	BenchDuration time.Duration
}

// LoadConfig loads configuration from environment variables and a .env file
// if present. Defaults favor a standalone in-memory setup.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("LEDGER_BACKEND", BackendMemory)
	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("MONGO_URL", "")
	viper.SetDefault("MONGO_DB", "ledger")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("WORKER_POOL_SIZE", 8)
	viper.SetDefault("WORKER_QUEUE_SIZE", 256)
	viper.SetDefault("LEADERBOARD_SIZE", 10)
	viper.SetDefault("LEADERBOARD_REFRESH_INTERVAL", "5m")
	viper.SetDefault("MEMORY_SNAPSHOT_PATH", "data/ledger_snapshot.json")
	viper.SetDefault("DEFAULT_CURRENCY_ID", "coins")
	viper.SetDefault("DEFAULT_CURRENCY_NAME", "Coins")
	viper.SetDefault("DEFAULT_CURRENCY_SYMBOL", "$")
	viper.SetDefault("DEFAULT_STARTING_BALANCE", "0")
	viper.SetDefault("DEFAULT_MAX_BALANCE", "10000000000")
	viper.SetDefault("BENCH_ACTORS", 16)
	viper.SetDefault("BENCH_OPS", 1000)
	viper.SetDefault("BENCH_DURATION", "30s")

	viper.AutomaticEnv()

	cfg := &Config{
		Backend:               viper.GetString("LEDGER_BACKEND"),
		DatabaseURL:           viper.GetString("PGSQL_URL"),
		MongoURL:              viper.GetString("MONGO_URL"),
		MongoDB:               viper.GetString("MONGO_DB"),
		RedisURL:              viper.GetString("REDIS_URL"),
		IsProduction:          viper.GetBool("IS_PRODUCTION"),
		WorkerPoolSize:        viper.GetInt("WORKER_POOL_SIZE"),
		WorkerQueueSize:       viper.GetInt("WORKER_QUEUE_SIZE"),
		LeaderboardSize:       viper.GetInt("LEADERBOARD_SIZE"),
		LeaderboardInterval:   viper.GetDuration("LEADERBOARD_REFRESH_INTERVAL"),
		MemorySnapshotPath:    viper.GetString("MEMORY_SNAPSHOT_PATH"),
		DefaultCurrencyID:     viper.GetString("DEFAULT_CURRENCY_ID"),
		DefaultCurrencyName:   viper.GetString("DEFAULT_CURRENCY_NAME"),
		DefaultCurrencySymbol: viper.GetString("DEFAULT_CURRENCY_SYMBOL"),
		DefaultStartingBal:    viper.GetString("DEFAULT_STARTING_BALANCE"),
		DefaultMaxBal:         viper.GetString("DEFAULT_MAX_BALANCE"),
		BenchActors:           viper.GetInt("BENCH_ACTORS"),
		BenchOps:              viper.GetInt("BENCH_OPS"),
		BenchDuration:         viper.GetDuration("BENCH_DURATION"),
	}

	switch cfg.Backend {
	case BackendMemory:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required for the postgres backend")
		}
	case BackendMongo:
		if cfg.MongoURL == "" {
			return nil, fmt.Errorf("MONGO_URL is required for the mongo backend")
		}
	default:
		return nil, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.Backend)
	}
	return cfg, nil
}
