package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/hadis11/study.bot/internal/bot/handlers"
	"github.com/hadis11/study.bot/internal/bot/keyboard"
	errors "github.com/hadis11/study.bot/internal/errors"
	"github.com/hadis11/study.bot/internal/i18n"
	"github.com/hadis11/study.bot/internal/idempotency"
	"github.com/hadis11/study.bot/internal/middleware"
	"github.com/hadis11/study.bot/internal/state"
	"github.com/hadis11/study.bot/pkg/config"
)

// Bot wraps telebot.Bot with the dependencies required for handling updates.
type Bot struct {
	telebot     *telebot.Bot
	log         *slog.Logger
	cfg         config.Config
	rateLimitMw *middleware.RateLimitMiddleware
	router      *Router
	errHandler  *errors.Handler
}

// Options carries the collaborators of New.
type Options struct {
	Config      config.Config
	Logger      *slog.Logger
	Study       handlers.StudyService
	FSM         state.StateMachine
	I18n        *i18n.Manager
	RateLimitMw *middleware.RateLimitMiddleware
	// Updates deduplicates redelivered updates when set.
	Updates idempotency.Store
}

// New builds a telegram bot instance configured according to the application settings.
func New(opts Options) (*Bot, error) {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token:   cfg.Bot.Token,
		OnError: func(err error, c telebot.Context) { log.Error("telebot error", slog.Any("error", err)) },
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.Bot.WebhookListen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	b := &Bot{
		telebot:     tb,
		log:         log,
		cfg:         cfg,
		rateLimitMw: opts.RateLimitMw,
		errHandler:  errors.NewHandler(log, cfg.Sentry.Enabled),
	}

	b.router = b.setupRouter(opts)

	if opts.Updates != nil {
		b.telebot.Use(middleware.Idempotency(opts.Updates, idempotency.DefaultTTL, log))
	}
	if b.rateLimitMw != nil {
		b.telebot.Use(b.rateLimitMw.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop. It blocks until Stop is called.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter(opts Options) *Router {
	deps := handlers.Deps{
		Study: opts.Study,
		FSM:   opts.FSM,
		I18n:  opts.I18n,
		Log:   b.log,
	}

	dispatcher := NewDispatcher(opts.FSM, b.log)
	dispatcher.RegisterStateHandler(state.StateAwaitingStudyHours, handlers.NewStudyHoursHandler(deps))
	dispatcher.RegisterStateHandler(state.StateAwaitingAwardDetails, handlers.NewAwardDetailsHandler(deps))

	router := NewRouter(dispatcher, b.log)
	registerRoutes(router, deps, b.errHandler)

	return router
}

// registerRoutes installs the middleware chain and every command on router.
func registerRoutes(router *Router, deps handlers.Deps, errHandler *errors.Handler) {
	router.Use(LoggingMiddleware(deps.Log))
	router.Use(RecoveryMiddleware(deps.Log, errHandler, deps.I18n))
	router.Use(ErrorHandlingMiddleware(errHandler, deps.I18n))
	router.Use(middleware.Metrics)
	router.Use(RegistrationMiddleware(deps.Study))

	cancel := handlers.NewCancelHandler(deps)

	router.RegisterCommand(CommandStart, handlers.NewStartHandler(deps))
	router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(deps))
	router.RegisterCommand(CommandReport, handlers.NewReportHandler(deps))
	router.RegisterCommand(CommandAward, handlers.NewAwardHandler(deps))
	router.RegisterCommand(CommandDaily, handlers.NewDailyHandler(deps))
	router.RegisterCommand(CommandMonth, handlers.NewMonthlyHandler(deps))
	router.RegisterCommand(CommandCancel, cancel)
	router.RegisterCommand(CommandProfile, handlers.NewProfileHandler(deps))

	router.RegisterCallback(keyboard.ActionDialog, handlers.CallbackHandler(cancel))

	router.SetDefault(handlers.NewUnknownCommandHandler(deps))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}
