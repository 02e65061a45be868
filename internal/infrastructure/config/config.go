package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/repogate-inc/repogate/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Email     sharedConfig.EmailConfig     `mapstructure:"email"`
	GitHub    sharedConfig.GitHubConfig    `mapstructure:"github"`
	Payments  sharedConfig.PaymentsConfig  `mapstructure:"payments"`
	Secrets   sharedConfig.SecretsConfig   `mapstructure:"secrets"`
	Scheduler sharedConfig.SchedulerConfig `mapstructure:"scheduler"`
	RateLimit sharedConfig.RateLimitConfig `mapstructure:"rate_limit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	// Load single config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	// Set environment variable prefix and replacer
	viper.SetEnvPrefix("REPOGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.base_url", "http://localhost:8080")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "repogate_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Email defaults
	viper.SetDefault("email.smtp_host", "localhost")
	viper.SetDefault("email.smtp_port", 1025)
	viper.SetDefault("email.smtp_user", "")
	viper.SetDefault("email.smtp_password", "")
	viper.SetDefault("email.from_address", "noreply@repogate.local")
	viper.SetDefault("email.from_name", "Repogate")

	// GitHub defaults (token must be configured)
	viper.SetDefault("github.personal_access_token", "")
	viper.SetDefault("github.api_base_url", "https://api.github.com")

	// Payments defaults (webhook secrets must be configured per provider)
	viper.SetDefault("payments.admin_email", "")
	viper.SetDefault("payments.site_url", "http://localhost:8080")
	viper.SetDefault("payments.stripe_webhook_secret", "")
	viper.SetDefault("payments.lemonsqueezy_signing_secret", "")
	viper.SetDefault("payments.webhook_shared_token", "")

	// Secrets defaults (empty forces an explicit secret at startup)
	viper.SetDefault("secrets.encryption_secret", "")

	// Scheduler defaults
	viper.SetDefault("scheduler.grant_sweep_interval_minutes", 5)
	viper.SetDefault("scheduler.grant_sweep_batch_size", 50)

	// Rate limit defaults
	viper.SetDefault("rate_limit.checkout_per_minute", 10)
	viper.SetDefault("rate_limit.webhook_per_minute", 120)
}
