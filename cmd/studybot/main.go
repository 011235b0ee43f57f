package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/hadis11/study.bot/internal/bot"
	"github.com/hadis11/study.bot/internal/database"
	apperrors "github.com/hadis11/study.bot/internal/errors"
	"github.com/hadis11/study.bot/internal/health"
	"github.com/hadis11/study.bot/internal/i18n"
	"github.com/hadis11/study.bot/internal/idempotency"
	"github.com/hadis11/study.bot/internal/lifecycle"
	"github.com/hadis11/study.bot/internal/middleware"
	"github.com/hadis11/study.bot/internal/ratelimit"
	"github.com/hadis11/study.bot/internal/repository"
	"github.com/hadis11/study.bot/internal/state"
	"github.com/hadis11/study.bot/internal/study"
	"github.com/hadis11/study.bot/pkg/config"
	"github.com/hadis11/study.bot/pkg/logger"
	"github.com/hadis11/study.bot/pkg/metrics"
	redisclient "github.com/hadis11/study.bot/pkg/redis"
	"github.com/hadis11/study.bot/pkg/timeutil"
)

const sentryFlushTimeout = 2 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "studybot: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      sentryEnvironment(cfg),
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
	}

	lg := logger.New(*cfg)
	log := lg.Logger
	slog.SetDefault(log)
	config.WatchLogLevel(v, lg.Level, log)

	log.Info("starting study bot",
		slog.String("bot_mode", cfg.Bot.Mode),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("state_storage", cfg.State.Storage),
		slog.String("http_port", cfg.Server.Port),
	)

	shutdown := lifecycle.NewShutdown(log)
	abort := func(err error) error {
		_ = shutdown.Execute(context.Background())
		return err
	}

	shutdown.Register("logger", func(context.Context) error { return lg.Close() })
	if cfg.Sentry.Enabled {
		shutdown.Register("sentry", func(context.Context) error {
			sentry.Flush(sentryFlushTimeout)
			return nil
		})
	}

	db, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return abort(err)
	}
	shutdown.Register("database", func(context.Context) error { return db.Close() })

	checker := health.NewChecker(log, 0)
	checker.AddCheck("database", health.NewDBChecker(db))

	var rdb *redisclient.Client
	if cfg.Redis.Enabled {
		rdb, err = redisclient.New(ctx, redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return abort(err)
		}
		shutdown.Register("redis", func(context.Context) error { return rdb.Close() })
		checker.AddCheck("redis", health.NewRedisChecker(rdb))
	}

	tr, err := i18n.Load(cfg.I18n.DefaultLanguage)
	if err != nil {
		return abort(fmt.Errorf("load translations: %w", err))
	}

	calendar, err := timeutil.NewCalendar(cfg.Report.Timezone, nil)
	if err != nil {
		return abort(err)
	}

	workers, workersCtx := newWorkerGroup(ctx)
	shutdown.Register("background workers", workers.Wait)

	fsm := newStateMachine(workersCtx, workers, cfg, rdb, log)

	svc := study.NewService(study.Options{
		Users:        repository.NewUserRepository(db, log),
		Activity:     repository.NewActivityRepository(db, log),
		Standings:    repository.NewStandingsRepository(db, log),
		Calendar:     calendar,
		Logger:       log,
		QueryTimeout: cfg.Database.QueryTimeout,
	})

	rateLimitMw, err := newRateLimit(workersCtx, workers, cfg, rdb, tr, log)
	if err != nil {
		return abort(err)
	}

	b, err := bot.New(bot.Options{
		Config:      *cfg,
		Logger:      log,
		Study:       svc,
		FSM:         fsm,
		I18n:        tr,
		RateLimitMw: rateLimitMw,
		Updates:     newUpdateStore(workersCtx, workers, cfg, rdb, log),
	})
	if err != nil {
		return abort(err)
	}
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))

	ops := newOpsServer(cfg.Server, checker, log)
	workers.Go(func() {
		if err := ops.ListenAndServe(workersCtx); err != nil {
			log.Error("ops server stopped", slog.Any("error", err))
		}
	})

	go b.Start()
	shutdown.Register("telegram bot", func(context.Context) error {
		b.Stop()
		return nil
	})

	log.Info("study bot is running")
	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	return shutdown.Execute(shutdownCtx)
}

// openStore connects to the database, retrying while it is unreachable, and migrates it.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*database.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	err = apperrors.WithRetry(ctx, func() error {
		if pingErr := db.PingContext(ctx); pingErr != nil {
			log.Warn("database not reachable yet", slog.Any("error", pingErr))
			return apperrors.NewDatabaseError(pingErr)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := database.NewMigrator(db, log).Up(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return db, nil
}

func newStateMachine(ctx context.Context, workers *workerGroup, cfg *config.Config, rdb *redisclient.Client, log *slog.Logger) state.StateMachine {
	var fsm state.StateMachine

	if cfg.State.Storage == "redis" && rdb != nil {
		storage := state.NewRedisStorage(rdb.Client, cfg.State.TTL, log)
		fsm = state.NewStateMachine(storage, log, rdb.Client)
	} else {
		storage := state.NewMemoryStorage(cfg.State.TTL, nil)
		fsm = state.NewStateMachine(storage, log, nil)

		cleaner := state.NewCleaner(storage, log, cfg.State.CleanupInterval)
		workers.Go(func() { cleaner.Run(ctx) })
	}

	collector := metrics.NewStateCollector(fsm, 0)
	workers.Go(func() { collector.Run(ctx) })

	return fsm
}

func newRateLimit(
	ctx context.Context,
	workers *workerGroup,
	cfg *config.Config,
	rdb *redisclient.Client,
	tr *i18n.Manager,
	log *slog.Logger,
) (*middleware.RateLimitMiddleware, error) {
	if !cfg.RateLimit.Enabled {
		return nil, nil
	}

	rules := ratelimit.NewRules(cfg.RateLimit)
	_, window, err := rules.GetPerUserLimit()
	if err != nil {
		return nil, fmt.Errorf("rate limit rule: %w", err)
	}

	var (
		limiter ratelimit.Limiter
		sweeper ratelimit.Sweeper
	)
	if rdb != nil {
		l := ratelimit.NewRedisLimiter(rdb.Client, log)
		limiter, sweeper = l, l
	} else {
		l := ratelimit.NewMemoryLimiter(log, nil)
		limiter, sweeper = l, l
	}

	cleaner := ratelimit.NewCleaner(sweeper, log, cfg.State.CleanupInterval, window)
	workers.Go(func() { cleaner.Run(ctx) })

	return middleware.NewRateLimitMiddleware(limiter, rules, tr, log), nil
}

// newUpdateStore shares handled update ids through Redis when available.
func newUpdateStore(ctx context.Context, workers *workerGroup, cfg *config.Config, rdb *redisclient.Client, log *slog.Logger) idempotency.Store {
	if rdb != nil {
		return idempotency.NewRedisStore(rdb.Client, log)
	}

	store := idempotency.NewMemoryStore(nil)
	cleaner := ratelimit.NewCleaner(store, log, cfg.State.CleanupInterval, idempotency.DefaultTTL)
	workers.Go(func() { cleaner.Run(ctx) })

	return store
}

func sentryEnvironment(cfg *config.Config) string {
	if cfg.Sentry.Environment != "" {
		return cfg.Sentry.Environment
	}
	return cfg.AppEnv
}
