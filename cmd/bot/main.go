package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"SignalSentinel/internal/bot"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/logger"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.Path())
	if err != nil {
		fatal("load config", err)
	}
	if err := logger.Init(logger.Config{
		Level:          cfg.Log.Level,
		Format:         cfg.Log.Format,
		TracingEnabled: cfg.Log.TracingEnabled,
	}); err != nil {
		fatal("init logger", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("config validation", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger.Info(ctx, "SignalSentinel starting")

	m := metrics.New()

	// Market data
	var fetcher collector.Fetcher
	deriv, err := collector.NewDerivFetcher(collector.DerivConfig{
		URL:        cfg.Deriv.URL,
		AppID:      cfg.Deriv.AppID,
		Timeout:    cfg.Deriv.FetchTimeout,
		MaxRetries: cfg.Deriv.MaxRetries,
	})
	if err != nil {
		fatal("init deriv fetcher", err)
	}
	fetcher = deriv

	var redisPinger metrics.Pinger
	if cfg.Redis.Addr != "" {
		client, err := collector.NewRedisClient(ctx, collector.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn(ctx, "candle cache disabled", "error", err)
		} else {
			defer client.Close()
			cached := collector.NewCachedFetcher(deriv, client, cfg.Redis.CacheTTL, m)
			fetcher = cached
			redisPinger = cached
		}
	}
	logger.Info(ctx, "data source ready", "source", fetcher.Name())
	col := collector.NewCollector(fetcher, cfg.Deriv.CandleCount, m)

	// Persistence
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		if dir := filepath.Dir(cfg.Database.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				logger.Warn(ctx, "create data dir", "dir", dir, "error", err)
			}
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logger.Warn(ctx, "init sqlite recorder failed, using noop", "error", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Metrics and health
	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr, m, metrics.NewHealthStatus(rec, redisPinger))
		srv.Start()
		defer func() {
			shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
			defer c()
			srv.Stop(shutdownCtx)
		}()
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Proxy)

	b := bot.New(tn, rec, col, m, bot.Options{
		AdminIDs:       cfg.Telegram.AdminIDs,
		OwnerContact:   cfg.Telegram.OwnerContact,
		FreeDailyLimit: cfg.Quota.FreeDailyLimit,
	})

	sched := scheduler.NewScheduler(ctx, tn, rec, cfg.Telegram.AdminIDs)
	if err := sched.RegisterAll(cfg.Schedule.VIPSweepCron, cfg.Schedule.AdminReportCron); err != nil {
		fatal("register cron tasks", err)
	}
	sched.Start()
	defer sched.Stop()

	pollDone := make(chan struct{})
	go func() {
		tn.StartPolling(ctx, b.HandleMessage)
		close(pollDone)
	}()
	logger.Info(ctx, "telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info(ctx, "RUN_ON_START enabled, sending admin report now")
		go sched.RunReportNow()
	}

	logger.Info(ctx, "SignalSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info(ctx, "shutdown signal received, stopping")
	cancel()
	<-pollDone
	b.Wait()

	shutdownCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
	defer c()
	if err := logger.Shutdown(shutdownCtx); err != nil {
		logger.Warn(shutdownCtx, "flush traces", "error", err)
	}
	logger.Info(shutdownCtx, "SignalSentinel stopped")
}

func fatal(what string, err error) {
	logger.Error(context.Background(), what, "error", err)
	os.Exit(1)
}
