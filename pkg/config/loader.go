// Package config provides configuration loading and validation utilities.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const configDir = "./configs"

// Load reads configuration from an optional YAML file and environment variables,
// validates it, and returns the resulting Config together with the viper instance
// used to build it.
func Load() (*Config, *viper.Viper, error) {
	// .env files are optional
	_ = godotenv.Load(".env.local", ".env")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(env)
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	if err := Validate(&cfg); err != nil {
		return nil, nil, err
	}

	return &cfg, v, nil
}

// Validate checks struct constraints on cfg.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if cfg.State.Storage == "redis" && !cfg.Redis.Enabled {
		return errors.New("validate config: state.storage=redis requires redis.enabled")
	}

	if cfg.RateLimit.Enabled && cfg.RateLimit.PerUser.Window != "" {
		if _, err := time.ParseDuration(cfg.RateLimit.PerUser.Window); err != nil {
			return fmt.Errorf("validate config: rate_limit.per_user.window: %w", err)
		}
	}

	return nil
}

// WatchLogLevel re-reads logger.level whenever the config file changes and applies it to level.
// It is a no-op when no config file was loaded.
func WatchLogLevel(v *viper.Viper, level *slog.LevelVar, log *slog.Logger) {
	if v == nil || level == nil || v.ConfigFileUsed() == "" {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		raw := v.GetString("logger.level")
		var next slog.Level
		if err := next.UnmarshalText([]byte(raw)); err != nil {
			log.Warn("ignoring invalid log level from config", slog.String("level", raw), slog.Any("error", err))
			return
		}

		if next != level.Level() {
			level.Set(next)
			log.Info("log level changed", slog.String("level", next.String()), slog.String("file", e.Name))
		}
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.mode", "polling")
	v.SetDefault("bot.timeout", 10*time.Second)
	v.SetDefault("bot.webhook_listen", "")
	v.SetDefault("bot.webhook_url", "")

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "data/study.db")
	v.SetDefault("database.query_timeout", 5*time.Second)
	v.SetDefault("database.max_open_conns", 0)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("state.storage", "memory")
	v.SetDefault("state.ttl", time.Hour)
	v.SetDefault("state.cleanup_interval", 5*time.Minute)

	v.SetDefault("report.timezone", "UTC")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.file.enabled", false)
	v.SetDefault("logger.file.path", "logs/studybot.log")
	v.SetDefault("logger.file.max_size_mb", 50)
	v.SetDefault("logger.file.max_backups", 5)
	v.SetDefault("logger.file.max_age_days", 28)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")
	v.SetDefault("sentry.traces_sample_rate", 0.0)

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.per_user.limit", 20)
	v.SetDefault("rate_limit.per_user.window", "1m")
	v.SetDefault("rate_limit.whitelist", []int64{})

	v.SetDefault("i18n.default_language", "en")
}
