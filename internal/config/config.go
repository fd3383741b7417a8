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

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // e.g. "5m", "1h"
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // e.g. "10m"
}

// NATSConfig holds NATS JetStream configuration. An empty URL disables the event stream.
type NATSConfig struct {
	URL             string        `mapstructure:"url"`
	StreamName      string        `mapstructure:"stream_name"`
	ConsumerName    string        `mapstructure:"consumer_name"`
	MaxReconnects   int           `mapstructure:"max_reconnects"`
	ReconnectWait   time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName  string        `mapstructure:"connection_name"`
	AckWait         time.Duration `mapstructure:"ack_wait"`
	MaxDeliver      int           `mapstructure:"max_deliver"`
	DuplicateWindow time.Duration `mapstructure:"duplicate_window"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// JWTPublicKey verifies caller tokens; the subject claim is the caller principal
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
	// AdminPrincipal is the actor recorded for admin operations
	AdminPrincipal string `mapstructure:"admin_principal"`
}

// SignatureConfig holds the shared secret of signed service to service requests
type SignatureConfig struct {
	Secret string `mapstructure:"secret"`
	// Principal is the caller a verified signed request acts as. Empty means the configured notifier.
	Principal string `mapstructure:"principal"`
}

// ValueLedgerConfig holds the value ledger API configuration
type ValueLedgerConfig struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries uint64        `mapstructure:"max_retries"`
}

// JournalConfig holds event publishing configuration
type JournalConfig struct {
	PublishWorkers   int `mapstructure:"publish_workers"`
	PublishQueueSize int `mapstructure:"publish_queue_size"`
}

// RedisConfig holds the redis connection used for rate limiting. An empty Addr keeps limits in process.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig holds the per caller request limit
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

// CollectionConfig describes the token collection
type CollectionConfig struct {
	Name        string `mapstructure:"name"`
	Symbol      string `mapstructure:"symbol"`
	Description string `mapstructure:"description"`
	MaxSupply   uint32 `mapstructure:"max_supply"`
}

// MarketConfig holds the initial marketplace settings
type MarketConfig struct {
	// PayoutMode is "direct" or "proxy"
	PayoutMode     string `mapstructure:"payout_mode"`
	Transacting    bool   `mapstructure:"transacting"`
	Notifier       string `mapstructure:"notifier"`
	CreatorAccount string `mapstructure:"creator_account"`
	CreatorFeeBP   uint64 `mapstructure:"creator_fee_bp"`
	MarketFeeBP    uint64 `mapstructure:"market_fee_bp"`
}

// TargetConfig addresses the service notified of settled transfers
type TargetConfig struct {
	Principal string        `mapstructure:"principal"`
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// MarketplaceConfig holds configuration for the marketplace
type MarketplaceConfig struct {
	BaseConfig  `mapstructure:",squash"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Signature   SignatureConfig   `mapstructure:"signature"`
	ValueLedger ValueLedgerConfig `mapstructure:"value_ledger"`
	Journal     JournalConfig     `mapstructure:"journal"`
	Collection  CollectionConfig  `mapstructure:"collection"`
	Market      MarketConfig      `mapstructure:"market"`
}

// SettlementProxyConfig holds configuration for the settlement proxy
type SettlementProxyConfig struct {
	BaseConfig  `mapstructure:",squash"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Signature   SignatureConfig   `mapstructure:"signature"`
	ValueLedger ValueLedgerConfig `mapstructure:"value_ledger"`
	Journal     JournalConfig     `mapstructure:"journal"`
	Redis       RedisConfig       `mapstructure:"redis"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Target      TargetConfig      `mapstructure:"target"`
	// Self is the principal the proxy receives transfers as
	Self        string `mapstructure:"self"`
	MarketFeeBP uint64 `mapstructure:"market_fee_bp"`
}

func setCommonDefaults(v *viper.Viper, service string) {
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.stream_name", "MARKETPLACE")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", service)
	v.SetDefault("nats.duplicate_window", "2m")
	v.SetDefault("value_ledger.timeout", "30s")
	v.SetDefault("value_ledger.max_retries", 3)
	v.SetDefault("journal.publish_workers", 4)
	v.SetDefault("journal.publish_queue_size", 1000)
	v.SetDefault("auth.admin_principal", "admin")
}

// LoadMarketplaceConfig loads configuration for the marketplace
func LoadMarketplaceConfig(configFile string, envPath string) (*MarketplaceConfig, error) {
	v := configureViper("marketplace", configFile, envPath)

	setCommonDefaults(v, "marketplace")
	v.SetDefault("server.port", 8080)
	v.SetDefault("collection.max_supply", 1000)
	v.SetDefault("market.payout_mode", "direct")
	v.SetDefault("market.transacting", true)
	v.SetDefault("market.creator_fee_bp", 500)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config MarketplaceConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// LoadSettlementProxyConfig loads configuration for the settlement proxy
func LoadSettlementProxyConfig(configFile string, envPath string) (*SettlementProxyConfig, error) {
	v := configureViper("settlement-proxy", configFile, envPath)

	setCommonDefaults(v, "settlement-proxy")
	v.SetDefault("server.port", 8081)
	v.SetDefault("nats.consumer_name", "settlement-notify")
	v.SetDefault("nats.ack_wait", "2m")
	v.SetDefault("nats.max_deliver", 5)
	v.SetDefault("target.timeout", "30s")
	v.SetDefault("rate_limit.requests_per_minute", 60)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("market_fee_bp", 250)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config SettlementProxyConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// readConfig reads the config file. A missing file falls back to environment variables.
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// current directory, then cmd/{service}/, then config/
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("FF_MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
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
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		"nats.duplicate_window",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		"auth.admin_principal",
		"signature.secret",
		"signature.principal",
		// Value ledger
		"value_ledger.url",
		"value_ledger.api_key",
		"value_ledger.timeout",
		"value_ledger.max_retries",
		"journal.publish_workers",
		"journal.publish_queue_size",
		// Marketplace
		"collection.name",
		"collection.symbol",
		"collection.description",
		"collection.max_supply",
		"market.payout_mode",
		"market.transacting",
		"market.notifier",
		"market.creator_account",
		"market.creator_fee_bp",
		"market.market_fee_bp",
		// Settlement proxy
		"self",
		"market_fee_bp",
		"target.principal",
		"target.url",
		"target.timeout",
		"redis.addr",
		"redis.password",
		"redis.db",
		"rate_limit.requests_per_minute",
		"rate_limit.burst",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// shared base first, then local, then per-service local
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
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
