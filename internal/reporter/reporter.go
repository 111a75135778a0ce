package reporter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Vodeneev/kyoteibet/internal/pkg/config"
	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
	"github.com/Vodeneev/kyoteibet/internal/pkg/storage"
	"github.com/Vodeneev/kyoteibet/internal/notify"
)

// Reporter emits one aggregate notification per configured checkpoint hour.
// The last-emitted bucket lives in memory only: a restart can duplicate at
// most one report, which is accepted and documented rather than persisted
// around.
type Reporter struct {
	cfg      *config.ReporterConfig
	store    storage.BetStorage
	notifier notify.Sender

	lastBucket string // "YYYYMMDD_HH"
}

func New(cfg *config.ReporterConfig, store storage.BetStorage, notifier notify.Sender) *Reporter {
	return &Reporter{cfg: cfg, store: store, notifier: notifier}
}

// Run polls the clock every minute and fires MaybeReport. Cheap enough that
// no finer scheduling is worth having.
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := r.MaybeReport(ctx, now); err != nil {
				slog.Error("Periodic report failed", "error", err)
			}
		}
	}
}

// MaybeReport emits the day summary when now falls in a checkpoint hour that
// has not reported yet. The final checkpoint waits a grace period into the
// hour so the evening races can settle first. Hours with no records at all
// stay silent and do not consume the bucket.
func (r *Reporter) MaybeReport(ctx context.Context, now time.Time) error {
	jstNow := now.In(models.JST)
	hour := jstNow.Hour()

	if !r.isCheckpoint(hour) {
		return nil
	}

	bucket := fmt.Sprintf("%s_%d", models.OperatingDay(now), hour)
	if bucket == r.lastBucket {
		return nil
	}

	if hour == r.finalHour() && jstNow.Minute() < r.cfg.FinalGraceMinutes {
		return nil
	}

	agg, err := r.store.DailyAggregate(ctx, models.OperatingDay(now))
	if err != nil {
		return fmt.Errorf("daily aggregate: %w", err)
	}
	if agg.Finished == 0 && agg.Pending == 0 {
		return nil
	}

	if r.notifier != nil {
		r.notifier.Send(notify.FormatDailyReport(hour, agg))
	}
	r.lastBucket = bucket
	slog.Info("Periodic report sent", "hour", hour, "finished", agg.Finished, "wins", agg.Wins, "pending", agg.Pending, "profit", agg.Profit)
	return nil
}

func (r *Reporter) isCheckpoint(hour int) bool {
	for _, h := range r.cfg.Hours {
		if h == hour {
			return true
		}
	}
	return false
}

func (r *Reporter) finalHour() int {
	max := -1
	for _, h := range r.cfg.Hours {
		if h > max {
			max = h
		}
	}
	return max
}
