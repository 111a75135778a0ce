package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Vodeneev/kyoteibet/internal/notify"
	"github.com/Vodeneev/kyoteibet/internal/pkg/config"
	"github.com/Vodeneev/kyoteibet/internal/pkg/logging"
	"github.com/Vodeneev/kyoteibet/internal/pkg/storage"
	"github.com/Vodeneev/kyoteibet/internal/reconciler"
	"github.com/Vodeneev/kyoteibet/internal/reporter"
	"github.com/Vodeneev/kyoteibet/internal/scraper"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/local.yaml", "Path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if _, err := logging.Setup(&cfg.Logging, "reporter"); err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}

	store, err := storage.NewPostgresBetStorage(&cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer store.Close()

	client := scraper.NewClient(&cfg.Scraper)

	var notifier notify.Sender
	tg := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if tg != nil {
		notifier = tg
		defer tg.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping reporter")
		cancel()
	}()

	worker := reconciler.New(&cfg.Reconciler, store, client, notifier)
	periodic := reporter.New(&cfg.Reporter, store, notifier)

	slog.Info("Starting result reconciler and periodic reporter",
		"interval", cfg.Reconciler.Interval,
		"report_hours", cfg.Reporter.Hours)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := worker.Run(ctx); err != nil && err != context.Canceled {
			slog.Error("Reconciler stopped with error", "error", err)
		}
		// The reconciler hits its daily cutoff first; nothing left to report
		// after that, so bring the reporter down too.
		cancel()
	}()
	go func() {
		defer wg.Done()
		if err := periodic.Run(ctx); err != nil && err != context.Canceled {
			slog.Error("Reporter stopped with error", "error", err)
		}
	}()
	wg.Wait()

	slog.Info("Reporter stopped")
}
