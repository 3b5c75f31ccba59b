package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fissure_watcher/internal/api"
	"fissure_watcher/internal/bot"
	"fissure_watcher/internal/bus"
	"fissure_watcher/internal/config"
	"fissure_watcher/internal/console"
	"fissure_watcher/internal/fetcher"
	"fissure_watcher/internal/journal"
	"fissure_watcher/internal/metrics"
	"fissure_watcher/internal/model"
	"fissure_watcher/internal/notify"
	"fissure_watcher/internal/scheduler"
	"fissure_watcher/internal/state"
	"fissure_watcher/internal/storage"
	"fissure_watcher/internal/telemetry"
	"fissure_watcher/internal/watcher"
)

const appName = "Fissure Watcher"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, "fissurewatch", cfg.OTelEndpoint)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			return err
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		return err
	}
	defer func() { _ = store.Close() }()

	initial, status, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		log.Warn("using default settings", "path", cfg.SettingsPath, "error", err)
	}
	log.Info("settings", "path", cfg.SettingsPath, "status", status)
	settings := config.NewSettings(initial)
	config.WatchSettings(cfg.SettingsPath, settings, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	board := state.NewBoard()

	var sinks notify.Multi
	if cfg.DesktopNotifications {
		sinks = append(sinks, notify.NewDesktop(appName))
	}
	if cfg.TelegramBotToken != "" {
		b, err := bot.New(cfg.TelegramBotToken, settings, board, cfg, log)
		if err != nil {
			log.Error("create bot", "error", err)
			return err
		}
		b.SetSaver(func(s model.Settings) error {
			return config.SaveSettings(cfg.SettingsPath, s)
		})
		if len(cfg.TelegramChatIDs) > 0 {
			sinks = append(sinks, b)
		}
		go b.Run(ctx)
	}
	if len(sinks) == 0 {
		sinks = append(sinks, notify.NewLog(log))
	}

	sched := scheduler.New(sinks, settings, log)
	sched.SetHistory(store)
	sched.SetMetrics(m)
	sched.SetCancelOnRemoval(cfg.CancelRemindersOnRemoval)

	w := watcher.New(fetcher.New(fetcher.NewDefaultClient(), cfg.APIURL, log), sched, settings, log)
	w.SetMetrics(m)

	handlers := []watcher.Handler{
		console.New(os.Stdout, cfg.ConsoleColor),
		board,
		journal.New(store),
	}
	if cfg.NATSURL != "" {
		nc, err := bus.Connect(cfg.NATSURL)
		if err != nil {
			log.Error("connect nats", "url", cfg.NATSURL, "error", err)
			return err
		}
		defer func() { _ = nc.Drain() }()
		handlers = append(handlers, bus.NewPublisher(nc, cfg.NATSSubject, log))
	}

	if cfg.HTTPAddr != "" {
		srv := api.NewServer(board, settings, store, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), log)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
				log.Error("http api", "error", err)
			}
		}()
	}

	log.Info("starting watcher", "api_url", cfg.APIURL, "sinks", len(sinks))

	go w.Run(ctx)
	watcher.Consume(ctx, w.Events(), log, handlers...)

	log.Info("watcher stopped", "pending_reminders", sched.Pending())
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
