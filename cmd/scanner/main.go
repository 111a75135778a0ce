package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Vodeneev/kyoteibet/internal/commentary"
	"github.com/Vodeneev/kyoteibet/internal/notify"
	"github.com/Vodeneev/kyoteibet/internal/pkg/config"
	"github.com/Vodeneev/kyoteibet/internal/pkg/logging"
	"github.com/Vodeneev/kyoteibet/internal/pkg/storage"
	"github.com/Vodeneev/kyoteibet/internal/scanner"
	"github.com/Vodeneev/kyoteibet/internal/scorer"
	"github.com/Vodeneev/kyoteibet/internal/scraper"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/local.yaml", "Path to config file")
	flag.Parse()

	// Secrets (telegram token, Groq key, DSN) may live in a local .env.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if _, err := logging.Setup(&cfg.Logging, "scanner"); err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}

	// The model is the one collaborator nothing can run without.
	model, err := scorer.Load(cfg.Scorer.WeightsPath)
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
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

	deps := scanner.Deps{
		Fetcher:  client,
		Model:    model,
		Store:    store,
		Notifier: notifier,
	}
	if cfg.Decision.UseValueGate {
		deps.Odds = client
	}
	if cfg.Commentary.Enabled {
		deps.Commentary = commentary.NewClient(&cfg.Commentary)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping scanner")
		cancel()
	}()

	slog.Info("Starting race scanner",
		"venues", cfg.Scanner.Venues,
		"races_per_venue", cfg.Scanner.RacesPerVenue,
		"interval", cfg.Scanner.Interval,
		"workers", cfg.Scanner.Workers)

	if err := scanner.New(cfg, deps).Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Scanner failed: %v", err)
	}

	slog.Info("Scanner stopped")
}
