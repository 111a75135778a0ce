package storage

import (
	"context"

	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

// BetStorage is the single source of truth for which races have been acted
// upon and how each pick settled. The scanner only inserts, the reconciler
// only settles; the two never touch a record in the same state, so the
// atomicity of InsertBet and Settle is the only coordination required.
type BetStorage interface {
	// InsertBet stores a new PENDING record. Returns true if this was the
	// first record for the race, false if one already existed (no-op).
	// Must be atomic under concurrent callers racing on the same race id.
	InsertBet(ctx context.Context, bet *models.BetRecord) (bool, error)

	// HasBet reports whether a record exists for the race. Used as the cheap
	// pre-check before any network call; InsertBet remains the arbiter.
	HasBet(ctx context.Context, key models.RaceKey) (bool, error)

	// ListPending returns all PENDING records, oldest first.
	ListPending(ctx context.Context) ([]models.BetRecord, error)

	// Settle transitions one PENDING record to FINISHED with the outcome.
	// Returns false when the record is missing or already FINISHED; calling
	// it twice with the same outcome is a no-op, not an error.
	Settle(ctx context.Context, key models.RaceKey, resultCombo string, payout, profit int, isWin bool) (bool, error)

	// DailyAggregate summarizes one operating day for the reporter.
	DailyAggregate(ctx context.Context, date string) (models.DailyAggregate, error)

	// Close closes the underlying connection.
	Close() error
}
