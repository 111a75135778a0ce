package reconciler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Vodeneev/kyoteibet/internal/pkg/config"
	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
	"github.com/Vodeneev/kyoteibet/internal/pkg/storage"
	"github.com/Vodeneev/kyoteibet/internal/scraper"
)

type fakeOutcomeFetcher struct {
	mu       sync.Mutex
	calls    int
	failFor  int // first N calls return ErrNotConcluded
	err      error
	outcomes map[string]*models.Outcome
}

func (f *fakeOutcomeFetcher) FetchResult(ctx context.Context, key models.RaceKey) (*models.Outcome, error) {
	f.mu.Lock()
	f.calls++
	calls := f.calls
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if calls <= f.failFor {
		return nil, scraper.ErrNotConcluded
	}
	if out, ok := f.outcomes[key.String()]; ok {
		return out, nil
	}
	return nil, scraper.ErrNoData
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []string
}

func (f *fakeSender) Send(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, text)
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func testWorker(store storage.BetStorage, fetcher OutcomeFetcher, sender *fakeSender) *Worker {
	w := New(&config.ReconcilerConfig{
		Interval: 10 * time.Minute,
		Stake:    1000,
		Cutoff:   "23:30",
	}, store, fetcher, sender)
	w.requestPause = 0
	return w
}

func insertPending(t *testing.T, store storage.BetStorage, key models.RaceKey, combo string) {
	t.Helper()
	cand := &models.Candidate{Key: key, Combo: combo, Confidence: 0.6}
	inserted, err := store.InsertBet(context.Background(), models.NewBetRecord(cand, time.Now()))
	if err != nil || !inserted {
		t.Fatalf("InsertBet = (%v, %v), want (true, nil)", inserted, err)
	}
}

func pendingCount(t *testing.T, store storage.BetStorage) int {
	t.Helper()
	pending, err := store.ListPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return len(pending)
}

func TestCheckResults_PendingUntilConcluded(t *testing.T) {
	key := models.RaceKey{Date: "20260901", Venue: 12, Race: 7}
	store := storage.NewMemoryBetStorage()
	insertPending(t, store, key, "1-2")

	fetcher := &fakeOutcomeFetcher{
		failFor: 3,
		outcomes: map[string]*models.Outcome{
			key.String(): {ExactaCombo: "1-2", ExactaPayout: 1540},
		},
	}
	sender := &fakeSender{}
	w := testWorker(store, fetcher, sender)

	ctx := context.Background()
	for pass := 1; pass <= 3; pass++ {
		w.CheckResults(ctx)
		if got := pendingCount(t, store); got != 1 {
			t.Fatalf("pass %d: pending = %d, want 1 (result not posted yet)", pass, got)
		}
	}

	w.CheckResults(ctx)
	if got := pendingCount(t, store); got != 0 {
		t.Fatalf("pending = %d, want 0 after result posted", got)
	}
	if got := sender.count(); got != 1 {
		t.Errorf("notifications = %d, want 1", got)
	}
}

func TestCheckResults_WinProfit(t *testing.T) {
	key := models.RaceKey{Date: "20260901", Venue: 3, Race: 5}
	store := storage.NewMemoryBetStorage()
	insertPending(t, store, key, "1-3")

	fetcher := &fakeOutcomeFetcher{
		outcomes: map[string]*models.Outcome{
			key.String(): {ExactaCombo: "1-3", ExactaPayout: 1540},
		},
	}
	w := testWorker(store, fetcher, &fakeSender{})
	w.CheckResults(context.Background())

	agg, err := store.DailyAggregate(context.Background(), "20260901")
	if err != nil {
		t.Fatal(err)
	}
	if agg.Finished != 1 || agg.Wins != 1 {
		t.Errorf("aggregate = %+v, want 1 finished, 1 win", agg)
	}
	if agg.Profit != 540 {
		t.Errorf("profit = %d, want 540 (payout 1540 - stake 1000)", agg.Profit)
	}
}

func TestCheckResults_LossProfit(t *testing.T) {
	key := models.RaceKey{Date: "20260901", Venue: 3, Race: 5}
	store := storage.NewMemoryBetStorage()
	insertPending(t, store, key, "1-3")

	fetcher := &fakeOutcomeFetcher{
		outcomes: map[string]*models.Outcome{
			// Same boats, wrong order: no partial credit on an exacta.
			key.String(): {ExactaCombo: "3-1", ExactaPayout: 2980},
		},
	}
	w := testWorker(store, fetcher, &fakeSender{})
	w.CheckResults(context.Background())

	agg, err := store.DailyAggregate(context.Background(), "20260901")
	if err != nil {
		t.Fatal(err)
	}
	if agg.Finished != 1 || agg.Wins != 0 {
		t.Errorf("aggregate = %+v, want 1 finished, 0 wins", agg)
	}
	if agg.Profit != -1000 {
		t.Errorf("profit = %d, want -1000", agg.Profit)
	}
}

func TestCheckResults_FetchErrorLeavesPending(t *testing.T) {
	key := models.RaceKey{Date: "20260901", Venue: 1, Race: 1}
	store := storage.NewMemoryBetStorage()
	insertPending(t, store, key, "1-2")

	fetcher := &fakeOutcomeFetcher{err: errors.New("connection reset")}
	sender := &fakeSender{}
	w := testWorker(store, fetcher, sender)
	w.CheckResults(context.Background())

	if got := pendingCount(t, store); got != 1 {
		t.Errorf("pending = %d, want 1 (transient failure retried next pass)", got)
	}
	if got := sender.count(); got != 0 {
		t.Errorf("notifications = %d, want 0", got)
	}
}

func TestCheckResults_SettleNotifiesOnce(t *testing.T) {
	key := models.RaceKey{Date: "20260901", Venue: 1, Race: 1}
	store := storage.NewMemoryBetStorage()
	insertPending(t, store, key, "1-2")

	fetcher := &fakeOutcomeFetcher{
		outcomes: map[string]*models.Outcome{
			key.String(): {ExactaCombo: "1-2", ExactaPayout: 1200},
		},
	}
	sender := &fakeSender{}
	w := testWorker(store, fetcher, sender)

	ctx := context.Background()
	w.CheckResults(ctx)
	w.CheckResults(ctx) // nothing pending anymore
	if got := sender.count(); got != 1 {
		t.Errorf("notifications = %d, want exactly 1", got)
	}
}

func TestCheckResults_StalePendingAcrossDays(t *testing.T) {
	// A record left over from a previous operating day settles like any other.
	key := models.RaceKey{Date: "20260830", Venue: 9, Race: 11}
	store := storage.NewMemoryBetStorage()
	insertPending(t, store, key, "2-4")

	fetcher := &fakeOutcomeFetcher{
		outcomes: map[string]*models.Outcome{
			key.String(): {ExactaCombo: "2-4", ExactaPayout: 3200},
		},
	}
	w := testWorker(store, fetcher, &fakeSender{})
	w.CheckResults(context.Background())

	if got := pendingCount(t, store); got != 0 {
		t.Errorf("pending = %d, want 0", got)
	}
	agg, _ := store.DailyAggregate(context.Background(), "20260830")
	if agg.Finished != 1 || agg.Wins != 1 {
		t.Errorf("aggregate = %+v, want 1 finished, 1 win", agg)
	}
}
