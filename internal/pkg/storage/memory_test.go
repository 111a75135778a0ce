package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

func testBet(key models.RaceKey) *models.BetRecord {
	return &models.BetRecord{
		RaceID:     key.String(),
		Date:       key.Date,
		Venue:      key.Venue,
		VenueName:  models.VenueName(key.Venue),
		Race:       key.Race,
		Combo:      "1-2",
		Confidence: 0.55,
	}
}

func TestMemoryBetStorage_InsertAtMostOnce(t *testing.T) {
	s := NewMemoryBetStorage()
	ctx := context.Background()
	key := models.RaceKey{Date: "20260901", Venue: 12, Race: 7}

	inserted, err := s.InsertBet(ctx, testBet(key))
	if err != nil || !inserted {
		t.Fatalf("first insert = (%v, %v), want (true, nil)", inserted, err)
	}
	inserted, err = s.InsertBet(ctx, testBet(key))
	if err != nil || inserted {
		t.Fatalf("second insert = (%v, %v), want (false, nil)", inserted, err)
	}

	has, err := s.HasBet(ctx, key)
	if err != nil || !has {
		t.Fatalf("HasBet = (%v, %v), want (true, nil)", has, err)
	}
}

func TestMemoryBetStorage_ConcurrentInsertSameKey(t *testing.T) {
	s := NewMemoryBetStorage()
	ctx := context.Background()
	key := models.RaceKey{Date: "20260901", Venue: 3, Race: 5}

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := s.InsertBet(ctx, testBet(key))
			if err != nil {
				t.Errorf("insert error: %v", err)
				return
			}
			results <- inserted
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for inserted := range results {
		if inserted {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("exactly one concurrent insert should win, got %d", wins)
	}
}

func TestMemoryBetStorage_SettleIdempotent(t *testing.T) {
	s := NewMemoryBetStorage()
	ctx := context.Background()
	key := models.RaceKey{Date: "20260901", Venue: 12, Race: 7}

	if _, err := s.InsertBet(ctx, testBet(key)); err != nil {
		t.Fatal(err)
	}

	settled, err := s.Settle(ctx, key, "1-2", 1540, 540, true)
	if err != nil || !settled {
		t.Fatalf("first settle = (%v, %v), want (true, nil)", settled, err)
	}
	settled, err = s.Settle(ctx, key, "1-2", 1540, 540, true)
	if err != nil || settled {
		t.Fatalf("second settle = (%v, %v), want (false, nil)", settled, err)
	}

	// The no-op second settle must not double-count.
	agg, err := s.DailyAggregate(ctx, key.Date)
	if err != nil {
		t.Fatal(err)
	}
	if agg.Finished != 1 || agg.Wins != 1 || agg.Profit != 540 || agg.Pending != 0 {
		t.Errorf("aggregate = %+v, want {1 1 0 540}", agg)
	}
}

func TestMemoryBetStorage_SettleMissingKey(t *testing.T) {
	s := NewMemoryBetStorage()
	settled, err := s.Settle(context.Background(), models.RaceKey{Date: "20260901", Venue: 1, Race: 1}, "1-2", 0, -1000, false)
	if err != nil || settled {
		t.Errorf("settle of missing key = (%v, %v), want (false, nil)", settled, err)
	}
}

func TestMemoryBetStorage_ListPendingAndAggregate(t *testing.T) {
	s := NewMemoryBetStorage()
	ctx := context.Background()

	keys := []models.RaceKey{
		{Date: "20260901", Venue: 1, Race: 1},
		{Date: "20260901", Venue: 2, Race: 3},
		{Date: "20260901", Venue: 5, Race: 9},
		{Date: "20260902", Venue: 1, Race: 1}, // different day
	}
	for _, k := range keys {
		if _, err := s.InsertBet(ctx, testBet(k)); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := s.Settle(ctx, keys[0], "1-2", 2000, 1000, true); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Settle(ctx, keys[1], "3-1", 0, -1000, false); err != nil {
		t.Fatal(err)
	}

	pending, err := s.ListPending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("ListPending returned %d records, want 2", len(pending))
	}
	for _, b := range pending {
		if b.Status != models.StatusPending {
			t.Errorf("pending record %s has status %s", b.RaceID, b.Status)
		}
	}

	agg, err := s.DailyAggregate(ctx, "20260901")
	if err != nil {
		t.Fatal(err)
	}
	want := models.DailyAggregate{Finished: 2, Wins: 1, Pending: 1, Profit: 0}
	if agg != want {
		t.Errorf("aggregate = %+v, want %+v", agg, want)
	}
}
