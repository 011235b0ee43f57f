// Package health reports the status of the components the bot depends on.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/database"
)

const (
	statusOK      = "OK"
	defaultTimeout = 3 * time.Second
)

// Checkable represents a component that can report its health status.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// CheckFunc adapts a function to Checkable.
type CheckFunc func(ctx context.Context) error

// HealthCheck calls f.
func (f CheckFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// Checker aggregates health checks for multiple components.
type Checker struct {
	log     *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]Checkable
}

// NewChecker instantiates a Checker. Each check gets timeout, or 3s when zero.
func NewChecker(log *slog.Logger, timeout time.Duration) *Checker {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Checker{
		log:     log,
		timeout: timeout,
		checks:  make(map[string]Checkable),
	}
}

// AddCheck registers a checkable component by name.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Check runs all registered checks concurrently. It returns the status of each
// component and whether all of them passed.
func (c *Checker) Check(ctx context.Context) (map[string]string, bool) {
	c.mu.RLock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	checks := make([]Checkable, len(names))
	for i, name := range names {
		checks[i] = c.checks[name]
	}
	c.mu.RUnlock()

	statuses := make([]string, len(names))
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			if err := checks[i].HealthCheck(checkCtx); err != nil {
				c.log.ErrorContext(ctx, "health check failed", slog.String("component", names[i]), slog.Any("error", err))
				statuses[i] = err.Error()
				return
			}
			statuses[i] = statusOK
		}(i)
	}
	wg.Wait()

	results := make(map[string]string, len(names))
	healthy := true
	for i, name := range names {
		results[name] = statuses[i]
		if statuses[i] != statusOK {
			healthy = false
		}
	}

	return results, healthy
}

// ServeHTTP writes the check results as JSON, with 503 when any check fails.
func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	results, healthy := c.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(results); err != nil {
		c.log.Warn("failed to write health response", slog.Any("error", err))
	}
}

// DBChecker verifies that the store is reachable and migrated.
type DBChecker struct {
	db *database.DB
}

// NewDBChecker constructs a DBChecker.
func NewDBChecker(db *database.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database and reads the migration ledger.
func (c *DBChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.db == nil || c.db.DB == nil {
		return errors.New("database is not configured")
	}

	if err := c.db.PingContext(ctx); err != nil {
		return err
	}

	var applied int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		return err
	}
	if applied == 0 {
		return errors.New("no migrations applied")
	}

	return nil
}

// Pinger abstracts the subset of redis.Client used for health checks.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker verifies connectivity to a Redis instance.
type RedisChecker struct {
	pinger Pinger
}

// NewRedisChecker constructs a RedisChecker.
func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

// HealthCheck issues a PING command against Redis.
func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return redis.ErrClosed
	}
	return c.pinger.Ping(ctx).Err()
}

// TelegramChecker reports whether the bot authenticated against the Bot API.
type TelegramChecker struct {
	bot *telebot.Bot
}

// NewTelegramChecker constructs a TelegramChecker.
func NewTelegramChecker(bot *telebot.Bot) *TelegramChecker {
	return &TelegramChecker{bot: bot}
}

// HealthCheck fails until getMe has succeeded.
func (c *TelegramChecker) HealthCheck(context.Context) error {
	if c == nil || c.bot == nil || c.bot.Me == nil {
		return errors.New("telegram bot is not initialized")
	}
	return nil
}
