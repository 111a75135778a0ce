package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Vodeneev/kyoteibet/internal/pkg/config"
	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
	"github.com/Vodeneev/kyoteibet/internal/pkg/storage"
	"github.com/Vodeneev/kyoteibet/internal/notify"
	"github.com/Vodeneev/kyoteibet/internal/scraper"
)

// OutcomeFetcher provides the official result for one race.
type OutcomeFetcher interface {
	FetchResult(ctx context.Context, key models.RaceKey) (*models.Outcome, error)
}

// Worker resolves PENDING bets against official results. It shares nothing
// with the scanner but the store: the scanner only creates records, the
// worker only settles them, so the store's atomic Settle is all the
// coordination needed.
type Worker struct {
	cfg      *config.ReconcilerConfig
	store    storage.BetStorage
	fetcher  OutcomeFetcher
	notifier notify.Sender

	// pause between result fetches, to go easy on the site
	requestPause time.Duration
}

func New(cfg *config.ReconcilerConfig, store storage.BetStorage, fetcher OutcomeFetcher, notifier notify.Sender) *Worker {
	return &Worker{
		cfg:          cfg,
		store:        store,
		fetcher:      fetcher,
		notifier:     notifier,
		requestPause: time.Second,
	}
}

// Run checks results every interval until the context is cancelled or the
// cutoff passes.
func (w *Worker) Run(ctx context.Context) error {
	for {
		now := time.Now()
		cutoff, err := config.ParseCutoff(w.cfg.Cutoff, now)
		if err != nil {
			return err
		}
		if !now.Before(cutoff) {
			slog.Info("Reconciler cutoff reached, stopping for the day", "cutoff", w.cfg.Cutoff)
			return nil
		}

		w.CheckResults(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.Interval):
		}
	}
}

// CheckResults runs one reconciliation pass over every PENDING record.
// A record whose result is not posted yet, or whose fetch fails, is left
// PENDING and retried on the next pass — indefinitely. Stale PENDING rows
// across operating days are accepted, never an error.
func (w *Worker) CheckResults(ctx context.Context) {
	pending, err := w.store.ListPending(ctx)
	if err != nil {
		slog.Error("Failed to list pending bets", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}
	slog.Info("Checking results", "pending", len(pending))

	for i := range pending {
		if ctx.Err() != nil {
			return
		}
		w.settleBet(ctx, &pending[i])

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.requestPause):
		}
	}
}

func (w *Worker) settleBet(ctx context.Context, bet *models.BetRecord) {
	key, err := models.ParseRaceKey(bet.RaceID)
	if err != nil {
		slog.Error("Corrupt race id in pending bet", "race_id", bet.RaceID, "error", err)
		return
	}

	out, err := w.fetcher.FetchResult(ctx, key)
	if errors.Is(err, scraper.ErrNotConcluded) || errors.Is(err, scraper.ErrNoData) {
		slog.Debug("Result not posted yet", "race", bet.RaceID)
		return
	}
	if err != nil {
		slog.Warn("Result fetch failed, will retry", "race", bet.RaceID, "error", err)
		return
	}

	// Win only on the exact ordered combination; no partial credit.
	isWin := bet.Combo == out.ExactaCombo
	profit := -w.cfg.Stake
	if isWin {
		profit = out.ExactaPayout - w.cfg.Stake
	}

	settled, err := w.store.Settle(ctx, key, out.ExactaCombo, out.ExactaPayout, profit, isWin)
	if err != nil {
		slog.Error("Settle failed", "race", bet.RaceID, "error", err)
		return
	}
	if !settled {
		// Already settled by an earlier pass; do not notify twice.
		slog.Debug("Bet already settled", "race", bet.RaceID)
		return
	}

	if w.notifier != nil {
		w.notifier.Send(notify.FormatSettlement(bet, out.ExactaCombo, profit, isWin))
	}
	slog.Info("Bet settled", "race", bet.RaceID, "predicted", bet.Combo, "result", out.ExactaCombo, "profit", profit)
}
