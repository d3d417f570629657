package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// ChainConfig holds Ethereum RPC and contract configuration
type ChainConfig struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	ChainID         int64         `mapstructure:"chain_id"`
	EscrowContract  string        `mapstructure:"escrow_contract"`
	NFTContract     string        `mapstructure:"nft_contract"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
	LogChunkDelay   time.Duration `mapstructure:"log_chunk_delay"`
	ScanStartBlock  uint64        `mapstructure:"scan_start_block"`
}

// RedisConfig holds the mapping cache configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig holds the audit journal database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// MappingConfig holds mapping store configuration
type MappingConfig struct {
	AllowLegacyNumeric bool          `mapstructure:"allow_legacy_numeric"`
	MissCacheTTL       time.Duration `mapstructure:"miss_cache_ttl"`
}

// ThrottleConfig holds fallback-path throttle configuration
type ThrottleConfig struct {
	KeyPrefix  string        `mapstructure:"key_prefix"`
	PerWindow  int           `mapstructure:"per_window"`
	Window     time.Duration `mapstructure:"window"`
}

// SweepConfig holds reconciliation sweep configuration
type SweepConfig struct {
	Window         uint64        `mapstructure:"window"`           // most recent N gifts per cycle
	Concurrency    int           `mapstructure:"concurrency"`      // validation workers per batch
	CycleInterval  time.Duration `mapstructure:"cycle_interval"`   // sleep between sweep cycles
	InterBatchWait time.Duration `mapstructure:"inter_batch_wait"` // delay between gift batches
	BatchSize      int           `mapstructure:"batch_size"`
}

// ReconcilerConfig holds configuration for the reconciler daemon
type ReconcilerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Chain      ChainConfig    `mapstructure:"chain"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Mapping    MappingConfig  `mapstructure:"mapping"`
	Throttle   ThrottleConfig `mapstructure:"throttle"`
	Sweep      SweepConfig    `mapstructure:"sweep"`
}

// LoadReconcilerConfig loads configuration for the reconciler daemon
func LoadReconcilerConfig(configFile string, envPath string) (*ReconcilerConfig, error) {
	v := configureViper("reconciler", configFile, envPath)

	// Set defaults
	v.SetDefault("chain.chain_id", 1)
	v.SetDefault("chain.call_timeout", "5s")
	v.SetDefault("chain.log_chunk_delay", "250ms")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.stream_name", "ESCROW_MAPPING")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("mapping.allow_legacy_numeric", false)
	v.SetDefault("mapping.miss_cache_ttl", "30s")
	v.SetDefault("throttle.key_prefix", "escrow:throttle:")
	v.SetDefault("throttle.per_window", 3)
	v.SetDefault("throttle.window", "60s")
	v.SetDefault("sweep.window", 100)
	v.SetDefault("sweep.concurrency", 5)
	v.SetDefault("sweep.cycle_interval", "10m")
	v.SetDefault("sweep.inter_batch_wait", "1s")
	v.SetDefault("sweep.batch_size", 20)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg ReconcilerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Chain.RPCURL == "" {
		return nil, errors.New("chain.rpc_url is required")
	}
	if cfg.Chain.EscrowContract == "" {
		return nil, errors.New("chain.escrow_contract is required")
	}

	return &cfg, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("GIFT_ESCROW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Chain
		"chain.rpc_url",
		"chain.chain_id",
		"chain.escrow_contract",
		"chain.nft_contract",
		"chain.call_timeout",
		"chain.log_chunk_delay",
		"chain.scan_start_block",
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Mapping store
		"mapping.allow_legacy_numeric",
		"mapping.miss_cache_ttl",
		// Throttle
		"throttle.key_prefix",
		"throttle.per_window",
		"throttle.window",
		// Sweep
		"sweep.window",
		"sweep.concurrency",
		"sweep.cycle_interval",
		"sweep.inter_batch_wait",
		"sweep.batch_size",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
