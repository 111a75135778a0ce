package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Vodeneev/kyoteibet/internal/pkg/config"
	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
	"github.com/Vodeneev/kyoteibet/internal/pkg/storage"
	"github.com/Vodeneev/kyoteibet/internal/commentary"
	"github.com/Vodeneev/kyoteibet/internal/notify"
	"github.com/Vodeneev/kyoteibet/internal/scorer"
	"github.com/Vodeneev/kyoteibet/internal/scraper"
)

// RaceFetcher provides the pre-race card for one race.
type RaceFetcher interface {
	FetchRaceCard(ctx context.Context, key models.RaceKey) (*models.RaceRecord, error)
}

// OddsFetcher provides live exacta odds for one combination. Optional; used
// only by the expected-value gate.
type OddsFetcher interface {
	FetchOdds(ctx context.Context, key models.RaceKey, first, second int) (float64, error)
}

// Commentator produces a best-effort free-text rationale for a pick.
type Commentator interface {
	Generate(ctx context.Context, cand *models.Candidate) string
}

// Deps are the scanner's collaborators. Odds, Commentary and Notifier may be
// nil: the pipeline degrades (no value gate, placeholder text, no delivery)
// rather than failing.
type Deps struct {
	Fetcher    RaceFetcher
	Odds       OddsFetcher
	Model      scorer.Scorer
	Commentary Commentator
	Store      storage.BetStorage
	Notifier   notify.Sender
}

// Scanner drives the scan-decide-notify pipeline: every cycle it sweeps all
// venue/race slots through a bounded worker pool and emits at most one pick
// per race, with the store's unique insert as the at-most-once arbiter.
type Scanner struct {
	cfg    *config.ScannerConfig
	engine *DecisionEngine
	deps   Deps

	// seen is a fast in-process pre-filter over race ids that already have a
	// record. Never authoritative: it does not survive restarts and cannot
	// serialize concurrent workers; InsertBet decides.
	seenMu sync.Mutex
	seen   map[string]struct{}
}

func New(cfg *config.Config, deps Deps) *Scanner {
	return &Scanner{
		cfg:    &cfg.Scanner,
		engine: NewDecisionEngine(&cfg.Decision),
		deps:   deps,
		seen:   make(map[string]struct{}),
	}
}

// Run executes scan cycles until the context is cancelled or the wall clock
// passes the configured cutoff. The next cycle starts interval minus elapsed
// after the previous cycle's start, clamped at zero; cycles never overlap
// because RunCycle drains its pool before returning.
func (s *Scanner) Run(ctx context.Context) error {
	for {
		now := time.Now()
		cutoff, err := config.ParseCutoff(s.cfg.Cutoff, now)
		if err != nil {
			return err
		}
		if !now.Before(cutoff) {
			slog.Info("Scan cutoff reached, stopping for the day", "cutoff", s.cfg.Cutoff)
			return nil
		}

		start := time.Now()
		s.RunCycle(ctx, models.OperatingDay(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := s.cfg.Interval - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		slog.Info("Scan cycle finished", "elapsed", time.Since(start), "next_in", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RunCycle sweeps every (venue, race) slot once through the worker pool and
// blocks until all tasks have finished. Task failures are contained: a slot
// that errors is simply retried on the next cycle.
func (s *Scanner) RunCycle(ctx context.Context, date string) {
	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup

	for venue := 1; venue <= s.cfg.Venues; venue++ {
		for race := 1; race <= s.cfg.RacesPerVenue; race++ {
			if ctx.Err() != nil {
				wg.Wait()
				return
			}
			key := models.RaceKey{Date: date, Venue: venue, Race: race}

			wg.Add(1)
			sem <- struct{}{}
			go func(key models.RaceKey) {
				defer wg.Done()
				defer func() { <-sem }()
				s.scanRace(ctx, key)
			}(key)
		}
	}

	wg.Wait()
}

// scanRace runs the full per-race pipeline: idempotency pre-check, fetch,
// time gate, score, decide, commentary, insert, notify. Every early return
// is a skip for this cycle only.
func (s *Scanner) scanRace(ctx context.Context, key models.RaceKey) {
	if s.alreadySeen(key) {
		return
	}
	if has, err := s.deps.Store.HasBet(ctx, key); err != nil {
		slog.Error("Bet pre-check failed", "race", key.String(), "error", err)
		return
	} else if has {
		s.markSeen(key)
		return
	}

	rec, err := s.deps.Fetcher.FetchRaceCard(ctx, key)
	if errors.Is(err, scraper.ErrNoData) {
		slog.Debug("No data for race", "race", key.String())
		return
	}
	if err != nil {
		slog.Warn("Race fetch failed, will retry next cycle", "race", key.String(), "error", err)
		return
	}

	now := time.Now()
	if !s.engine.WithinWindow(now, rec.Deadline) {
		slog.Debug("Outside acceptance window", "race", key.String(), "deadline", rec.Deadline)
		return
	}

	probs, err := s.deps.Model.Score(rec)
	if err != nil {
		slog.Error("Scoring failed", "race", key.String(), "error", err)
		return
	}

	cand := s.engine.Evaluate(rec, probs, now)
	if cand == nil {
		return
	}

	if !s.passesValueGate(ctx, key, probs) {
		slog.Debug("Rejected by value gate", "race", key.String(), "combo", cand.Combo)
		return
	}

	cand.Commentary = commentary.Placeholder
	if s.deps.Commentary != nil {
		cand.Commentary = s.deps.Commentary.Generate(ctx, cand)
	}

	inserted, err := s.deps.Store.InsertBet(ctx, models.NewBetRecord(cand, now))
	if err != nil {
		slog.Error("Bet insert failed", "race", key.String(), "error", err)
		return
	}
	s.markSeen(key)
	if !inserted {
		// Lost the race to a concurrent worker or a previous cycle.
		slog.Debug("Bet already recorded, dropping duplicate", "race", key.String())
		return
	}

	// Notify strictly after the insert: a crash in between loses one
	// notification, which beats ever sending two.
	if s.deps.Notifier != nil {
		s.deps.Notifier.Send(notify.FormatPick(cand))
	}
	slog.Info("Pick notified", "race", key.String(), "combo", cand.Combo, "confidence", cand.Confidence)
}

func (s *Scanner) passesValueGate(ctx context.Context, key models.RaceKey, probs models.ProbabilityVector) bool {
	if s.deps.Odds == nil {
		return true
	}
	idx, prob := probs.ArgmaxCombo()
	first, second := models.ComboAt(idx)

	odds, err := s.deps.Odds.FetchOdds(ctx, key, first, second)
	if err != nil {
		// No odds means no value filter, not a rejection.
		slog.Debug("Odds fetch failed, skipping value gate", "race", key.String(), "error", err)
		return true
	}
	return s.engine.PassesValueGate(odds, prob)
}

func (s *Scanner) alreadySeen(key models.RaceKey) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	_, ok := s.seen[key.String()]
	return ok
}

func (s *Scanner) markSeen(key models.RaceKey) {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	s.seen[key.String()] = struct{}{}
}
