package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coreconfig "github.com/m3rciful/avtobot/core/config"
	"github.com/m3rciful/avtobot/core/logger"
	coremetrics "github.com/m3rciful/avtobot/core/metrics"
	coretelegram "github.com/m3rciful/avtobot/core/telegram"
	"github.com/m3rciful/avtobot/core/telegram/middleware"
)

// ConfigCarrier exposes access to the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is the minimal interface required to run a Telegram bot.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// MetricsProvider is implemented by apps exposing their own collectors.
type MetricsProvider interface {
	Collectors() []prometheus.Collector
}

// Closer is implemented by apps holding resources released after the bot stops.
type Closer interface {
	Close() error
}

// Options describe how to load configuration, bootstrap the app, and run the bot.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(ctx context.Context, cfg ConfigCarrier) (TelegramApp, error)

	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// Run loads configuration, bootstraps the Telegram app, and starts the bot runtime.
func Run(opts Options) error {
	if opts.LoadConfig == nil {
		return fmt.Errorf("cmd: LoadConfig is required")
	}
	if opts.Bootstrap == nil {
		return fmt.Errorf("cmd: Bootstrap is required")
	}

	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	cfgPath := os.Getenv(env)
	if cfgPath == "" {
		cfgPath = opts.DefaultConfigPath
	}
	if cfgPath == "" {
		return fmt.Errorf("cmd: config path not provided via %s or DefaultConfigPath", env)
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := opts.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}
	core := cfg.CoreConfig()
	if core == nil {
		return fmt.Errorf("cmd: loaded config is missing core configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now()
	application, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap failed: %w", err)
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	if c, ok := application.(Closer); ok {
		defer func() {
			if err := c.Close(); err != nil {
				logger.Warn(logger.Background(), "app", "app.close", logger.Err(err))
			}
		}()
	}

	stopMetrics, err := startMetrics(ctx, core, application)
	if err != nil {
		return err
	}
	defer stopMetrics()

	runOpts, err := application.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options build failed: %w", err)
	}

	prevStart := runOpts.OnStart
	runOpts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) ([]coretelegram.Route, error) {
		var routes []coretelegram.Route
		if prevStart != nil {
			extra, err := prevStart(ctx, rt)
			if err != nil {
				return nil, err
			}
			routes = extra
		}
		logger.Info(ctx, "app", "ready",
			slog.Duration("duration", logger.Took(startedAt)),
			slog.Int("count", len(routes)),
		)
		return routes, nil
	}

	prevStop := runOpts.OnStop
	runOpts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown")
		if prevStop != nil {
			return prevStop(ctx, rt)
		}
		return nil
	}

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}

	return run(ctx, runOpts)
}

// startMetrics serves the scrape endpoint in the background; the returned
// func waits for it to stop once ctx is done.
func startMetrics(ctx context.Context, cfg *coreconfig.Config, app TelegramApp) (func(), error) {
	extra := middleware.Collectors()
	if mp, ok := app.(MetricsProvider); ok {
		extra = append(extra, mp.Collectors()...)
	}
	reg, err := coremetrics.NewRegistry(extra...)
	if err != nil {
		return nil, fmt.Errorf("cmd: %w", err)
	}
	srv, err := coremetrics.Listen(cfg.Metrics, reg)
	if err != nil {
		return nil, fmt.Errorf("cmd: %w", err)
	}
	if srv == nil {
		return func() {}, nil
	}

	srvCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(srvCtx); err != nil {
			logger.Warn(srvCtx, "metrics", "metrics.serve", logger.Err(err))
		}
	}()
	return func() {
		stop()
		<-done
	}, nil
}
