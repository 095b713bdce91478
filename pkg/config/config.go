package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration (local record store)
	Database DatabaseConfig `mapstructure:"database"`

	// Remote ledger configuration
	Ledger LedgerConfig `mapstructure:"ledger"`

	// JWT session configuration
	JWT JWTConfig `mapstructure:"jwt"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds local record store configuration
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// LedgerConfig holds remote ledger configuration. The contract address
// depends on the selected network; the contract name selects which
// deployed contract version the client adapts to.
type LedgerConfig struct {
	Network         string            `mapstructure:"network"`
	NodeURL         string            `mapstructure:"node_url"`
	APIKey          string            `mapstructure:"api_key"`
	ContractName    string            `mapstructure:"contract_name"`
	ContractAddrs   map[string]string `mapstructure:"contract_addresses"`
	RequestTimeout  int               `mapstructure:"request_timeout"`
	PollInterval    int               `mapstructure:"poll_interval"`
	PollMaxAttempts int               `mapstructure:"poll_max_attempts"`
	ExplorerBaseURL string            `mapstructure:"explorer_base_url"`
}

// ContractAddress returns the contract address for the configured network
func (c *LedgerConfig) ContractAddress() string {
	return c.ContractAddrs[c.Network]
}

// ContractID returns the fully qualified contract identifier
func (c *LedgerConfig) ContractID() string {
	return fmt.Sprintf("%s.%s", c.ContractAddress(), c.ContractName)
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	MetricsPath    string  `mapstructure:"metrics_path"`
	HealthPath     string  `mapstructure:"health_path"`
	TracingEnabled bool    `mapstructure:"tracing_enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/healthchain")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideWithEnv(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "healthchain")
	viper.SetDefault("database.user", "healthchain")
	viper.SetDefault("database.ssl_mode", "require")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	// Ledger defaults. The confirmation poller checks every 10 seconds
	// for at most 12 attempts (~2 minutes) before reporting a timeout.
	viper.SetDefault("ledger.network", "testnet")
	viper.SetDefault("ledger.node_url", "https://api.testnet.hiro.so")
	viper.SetDefault("ledger.contract_name", "healthchain_v5")
	viper.SetDefault("ledger.contract_addresses", map[string]string{
		"devnet":  "ST1M2X1WBC60W09W91W4ESDRHM94H75VGXGDNCQE8",
		"testnet": "ST1M2X1WBC60W09W91W4ESDRHM94H75VGXGDNCQE8",
		"mainnet": "SP30VANCWST2Y0RY3EYGJ4ZK6D22GJQRR7H5YD8J8",
	})
	viper.SetDefault("ledger.request_timeout", 30)
	viper.SetDefault("ledger.poll_interval", 10)
	viper.SetDefault("ledger.poll_max_attempts", 12)
	viper.SetDefault("ledger.explorer_base_url", "https://explorer.hiro.so")

	// JWT defaults
	viper.SetDefault("jwt.issuer", "healthchain-access-manager")
	viper.SetDefault("jwt.audience", "healthchain-users")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.health_path", "/health")
	viper.SetDefault("monitoring.tracing_enabled", false)
	viper.SetDefault("monitoring.jaeger_endpoint", "http://localhost:14268/api/traces")
	viper.SetDefault("monitoring.sampling_rate", 0.1)

	// Logging defaults
	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if jwtSecret := os.Getenv("JWT_SECRET_KEY"); jwtSecret != "" {
		config.JWT.SecretKey = jwtSecret
	}

	if apiKey := os.Getenv("LEDGER_API_KEY"); apiKey != "" {
		config.Ledger.APIKey = apiKey
	}

	if network := os.Getenv("LEDGER_NETWORK"); network != "" {
		config.Ledger.Network = network
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.JWT.SecretKey == "" {
		return fmt.Errorf("JWT secret key is required")
	}

	if config.Database.Password == "" {
		return fmt.Errorf("database password is required")
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Ledger.Network {
	case "devnet", "testnet", "mainnet":
	default:
		return fmt.Errorf("unknown ledger network: %s", config.Ledger.Network)
	}

	if config.Ledger.ContractAddress() == "" {
		return fmt.Errorf("no contract address configured for network %s", config.Ledger.Network)
	}

	if config.Ledger.PollInterval <= 0 || config.Ledger.PollMaxAttempts <= 0 {
		return fmt.Errorf("ledger polling interval and attempts must be positive")
	}

	return nil
}
