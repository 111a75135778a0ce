package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

// Ensure MemoryBetStorage implements BetStorage
var _ BetStorage = (*MemoryBetStorage)(nil)

// MemoryBetStorage keeps bet records in a mutex-guarded map. It honors the
// same insert/settle contract as the Postgres store and backs dry runs and
// worker tests.
type MemoryBetStorage struct {
	mu   sync.Mutex
	bets map[string]*models.BetRecord
}

func NewMemoryBetStorage() *MemoryBetStorage {
	return &MemoryBetStorage{bets: make(map[string]*models.BetRecord)}
}

func (s *MemoryBetStorage) InsertBet(ctx context.Context, bet *models.BetRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bets[bet.RaceID]; exists {
		return false, nil
	}

	stored := *bet
	stored.Status = models.StatusPending
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.bets[bet.RaceID] = &stored
	return true, nil
}

func (s *MemoryBetStorage) HasBet(ctx context.Context, key models.RaceKey) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.bets[key.String()]
	return exists, nil
}

func (s *MemoryBetStorage) ListPending(ctx context.Context) ([]models.BetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []models.BetRecord
	for _, b := range s.bets {
		if b.Status == models.StatusPending {
			pending = append(pending, *b)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (s *MemoryBetStorage) Settle(ctx context.Context, key models.RaceKey, resultCombo string, payout, profit int, isWin bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, exists := s.bets[key.String()]
	if !exists || b.Status != models.StatusPending {
		return false, nil
	}

	b.ResultCombo = resultCombo
	b.Payout = payout
	b.Profit = profit
	b.IsWin = isWin
	b.Status = models.StatusFinished
	b.SettledAt = time.Now()
	return true, nil
}

func (s *MemoryBetStorage) DailyAggregate(ctx context.Context, date string) (models.DailyAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var agg models.DailyAggregate
	for _, b := range s.bets {
		if b.Date != date {
			continue
		}
		switch b.Status {
		case models.StatusFinished:
			agg.Finished++
			agg.Profit += b.Profit
			if b.IsWin {
				agg.Wins++
			}
		case models.StatusPending:
			agg.Pending++
		}
	}
	return agg, nil
}

func (s *MemoryBetStorage) Close() error {
	return nil
}
