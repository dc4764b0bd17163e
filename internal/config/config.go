package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// GatewayConfig holds WhatsApp gateway configuration
type GatewayConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Instance    string        `mapstructure:"instance"`
	APITimeout  time.Duration `mapstructure:"api_timeout"`
	WebhookPath string        `mapstructure:"webhook_path"`
}

// OpenAIConfig holds vision API configuration
type OpenAIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// BillingConfig holds cadence and dispatch tuning. The jitter windows are
// product decisions, kept configurable rather than hard-coded.
type BillingConfig struct {
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	ReceiptQueueSize int           `mapstructure:"receipt_queue_size"`
	AutoDelayMin     time.Duration `mapstructure:"auto_delay_min"`
	AutoDelayMax     time.Duration `mapstructure:"auto_delay_max"`
	ManualDelayMin   time.Duration `mapstructure:"manual_delay_min"`
	ManualDelayMax   time.Duration `mapstructure:"manual_delay_max"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/zapcobranca.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Gateway defaults
	viper.SetDefault("gateway.webhook_path", "/webhook/whatsapp")
	viper.SetDefault("gateway.api_timeout", 30*time.Second)

	// OpenAI defaults
	viper.SetDefault("openai.model", "gpt-4o")

	// Billing defaults
	viper.SetDefault("billing.sweep_interval", time.Hour)
	viper.SetDefault("billing.receipt_queue_size", 64)
	viper.SetDefault("billing.auto_delay_min", 5*time.Second)
	viper.SetDefault("billing.auto_delay_max", 15*time.Second)
	viper.SetDefault("billing.manual_delay_min", 5*time.Second)
	viper.SetDefault("billing.manual_delay_max", 10*time.Second)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("gateway.base_url", "GATEWAY_BASE_URL")
	viper.BindEnv("gateway.api_key", "GATEWAY_API_KEY")
	viper.BindEnv("gateway.instance", "GATEWAY_INSTANCE")
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url is required")
	}
	if c.Gateway.APIKey == "" {
		return fmt.Errorf("gateway.api_key is required")
	}
	if c.Gateway.Instance == "" {
		return fmt.Errorf("gateway.instance is required")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	if c.Billing.AutoDelayMax < c.Billing.AutoDelayMin {
		return fmt.Errorf("billing.auto_delay_max must be >= billing.auto_delay_min")
	}
	if c.Billing.ManualDelayMax < c.Billing.ManualDelayMin {
		return fmt.Errorf("billing.manual_delay_max must be >= billing.manual_delay_min")
	}
	return nil
}
