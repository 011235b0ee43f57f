package config

import "time"

// Config holds runtime configuration for the study bot.
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	State     StateConfig     `mapstructure:"state"`
	Report    ReportConfig    `mapstructure:"report"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	I18n      I18nConfig      `mapstructure:"i18n"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token         string        `mapstructure:"token" validate:"required"`
	Mode          string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout       time.Duration `mapstructure:"timeout"`
	WebhookListen string        `mapstructure:"webhook_listen" validate:"required_if=Mode webhook"`
	WebhookURL    string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
}

// DatabaseConfig selects the SQL driver and connection.
type DatabaseConfig struct {
	Driver       string        `mapstructure:"driver" validate:"oneof=sqlite3 postgres"`
	DSN          string        `mapstructure:"dsn" validate:"required"`
	QueryTimeout time.Duration `mapstructure:"query_timeout" validate:"min=0"`
	MaxOpenConns int           `mapstructure:"max_open_conns" validate:"min=0"`
}

// RedisConfig configures the optional Redis connection.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

// StateConfig configures conversation state persistence.
type StateConfig struct {
	Storage         string        `mapstructure:"storage" validate:"oneof=memory redis"`
	TTL             time.Duration `mapstructure:"ttl" validate:"gt=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
}

// ReportConfig configures report windows.
type ReportConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// LoggerConfig controls log output.
type LoggerConfig struct {
	Level  string        `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string        `mapstructure:"format" validate:"oneof=json text"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig enables rotating file output.
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path" validate:"required_if=Enabled true"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"min=0"`
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	DSN              string  `mapstructure:"dsn" validate:"required_if=Enabled true"`
	Environment      string  `mapstructure:"environment"`
	TracesSampleRate float64 `mapstructure:"traces_sample_rate" validate:"min=0,max=1"`
}

// ServerConfig configures the ops HTTP server (metrics and health).
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// RateLimitConfig configures per-user throttling of updates.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	PerUser   RateLimitRule `mapstructure:"per_user"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

// RateLimitRule is a limit per window, e.g. 20 per "1m".
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit" validate:"min=0"`
	Window string `mapstructure:"window"`
}

// I18nConfig configures reply localisation.
type I18nConfig struct {
	DefaultLanguage string `mapstructure:"default_language" validate:"required"`
}

// IsProduction reports whether the bot runs in production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
