// Package config declares the configuration sections shared across the
// application. Values are loaded by internal/infrastructure/config.
package config

import "fmt"

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUser     string `mapstructure:"smtp_user"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromAddress  string `mapstructure:"from_address"`
	FromName     string `mapstructure:"from_name"`
}

// GitHubConfig carries the service-level fallback token used when a
// merchant has not connected their own GitHub credentials.
type GitHubConfig struct {
	PersonalAccessToken string `mapstructure:"personal_access_token"`
	APIBaseURL          string `mapstructure:"api_base_url"`
}

// PaymentsConfig carries platform-level payment settings. Per-merchant
// provider credentials live encrypted in the database, not here.
type PaymentsConfig struct {
	AdminEmail string `mapstructure:"admin_email"`
	SiteURL    string `mapstructure:"site_url"`
	// StripeWebhookSecret is the endpoint signing secret used to verify
	// Stripe webhook deliveries.
	StripeWebhookSecret string `mapstructure:"stripe_webhook_secret"`
	// LemonSqueezySigningSecret verifies X-Signature headers when set.
	LemonSqueezySigningSecret string `mapstructure:"lemonsqueezy_signing_secret"`
	// WebhookSharedToken optionally gates the Gumroad/Paddle endpoints,
	// which have no native signature scheme. Empty disables the check.
	WebhookSharedToken string `mapstructure:"webhook_shared_token"`
}

// SecretsConfig configures encryption-at-rest of merchant credentials.
type SecretsConfig struct {
	// EncryptionSecret must be at least 32 characters.
	EncryptionSecret string `mapstructure:"encryption_secret"`
}

// SchedulerConfig tunes the background grant recovery sweep.
type SchedulerConfig struct {
	GrantSweepIntervalMinutes int `mapstructure:"grant_sweep_interval_minutes"`
	GrantSweepBatchSize       int `mapstructure:"grant_sweep_batch_size"`
}

// RateLimitConfig tunes per-client limits on the public endpoints.
type RateLimitConfig struct {
	CheckoutPerMinute int `mapstructure:"checkout_per_minute"`
	WebhookPerMinute  int `mapstructure:"webhook_per_minute"`
}
