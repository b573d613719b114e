// Package app is the avtobot composition root.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/m3rciful/avtobot/bot/config"
	"github.com/m3rciful/avtobot/bot/handlers"
	"github.com/m3rciful/avtobot/bot/metrics"
	"github.com/m3rciful/avtobot/bot/notify"
	"github.com/m3rciful/avtobot/bot/publish"
	"github.com/m3rciful/avtobot/bot/sale"
	"github.com/m3rciful/avtobot/bot/search"
	"github.com/m3rciful/avtobot/bot/store"
	"github.com/m3rciful/avtobot/bot/submission"
	"github.com/m3rciful/avtobot/core/bootstrap"
	"github.com/m3rciful/avtobot/core/cmd"
	"github.com/m3rciful/avtobot/core/logger"
	tg "github.com/m3rciful/avtobot/core/telegram"
	"github.com/m3rciful/avtobot/core/telegram/middleware"
	"github.com/m3rciful/avtobot/core/telegram/sender"
)

// App owns the long-lived dependencies of the bot process.
type App struct {
	cfg      *config.Config
	db       *sqlx.DB
	store    *store.Store
	admins   *middleware.AdminSet
	registry *tg.Registry
}

// New builds an App over an open database.
func New(cfg *config.Config, db *sqlx.DB) *App {
	return &App{
		cfg:      cfg,
		db:       db,
		store:    store.New(db),
		admins:   middleware.NewAdminSet(cfg.Telegram.AdminIDs),
		registry: tg.NewRegistry(),
	}
}

// Load adapts config.Load to the runner.
func Load(path string) (cmd.ConfigCarrier, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap initializes logging, the database and migrations, then builds the App.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}
	return New(cfg, res.DB), nil
}

// Collectors exposes the domain metrics to the scrape registry.
func (a *App) Collectors() []prometheus.Collector { return metrics.Collectors() }

// Close releases the database pool.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// TelegramRunOptions describes the runtime: middlewares, dispatcher and the
// hook that wires handlers once the bot exists.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	return tg.RunOptions{
		Config:   core,
		Registry: a.registry,
		DispatcherOptions: sender.Options{
			MaxRetries:   2,
			RetryBackoff: time.Second,
			OnFailure: func(action string, err error) {
				logger.Warn(logger.Background(), "tg.sender", "send.dropped",
					slog.String("action", action),
					logger.Err(err),
				)
			},
		},
		Middlewares: tg.DefaultMiddlewares(core, handlers.RateLimited),
		OnStart:     a.onStart,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) ([]tg.Route, error) {
	gw := publish.NewBotGateway(rt.Bot)
	var queue notify.Queue
	if rt.Dispatcher != nil {
		queue = rt.Dispatcher
	}
	h := a.handlers(gw, queue)
	if err := h.Register(rt.Registry); err != nil {
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}
	routes := h.Routes(rt.Registry)
	logger.Info(ctx, "tg.wire", "app.wired",
		slog.Int64("channel_id", a.cfg.Channel.ID),
		slog.Int("admins", len(a.admins.IDs())),
		slog.Int("count", len(routes)),
	)
	return routes, nil
}

// gateway is the full outbound surface of the bot.
type gateway interface {
	publish.Gateway
	sale.Editor
	notify.Sender
}

func (a *App) handlers(gw gateway, queue notify.Queue) *handlers.Handlers {
	pub := publish.New(gw, a.cfg.Channel.ID)
	notifier := notify.New(gw, queue, a.admins.IDs())
	menu := handlers.MainMenu()
	return handlers.New(handlers.Deps{
		Store:       a.store,
		Publisher:   pub,
		Sale:        sale.New(a.store, gw, notifier, a.admins),
		Submission:  submission.New(nil, a.store, pub, notifier, menu),
		Search:      search.New(nil, a.store, a.cfg.Bot.SearchLimit, menu),
		Admins:      a.admins,
		RecentLimit: a.cfg.Bot.RecentLimit,
		DayStart:    a.cfg.Bot.StartOfDay,
	})
}
