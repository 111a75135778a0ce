package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Vodeneev/kyoteibet/internal/pkg/config"
	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

// Ensure PostgresBetStorage implements BetStorage
var _ BetStorage = (*PostgresBetStorage)(nil)

// PostgresBetStorage stores bet records in PostgreSQL. Every state transition
// is a single statement, so a crash mid-call can never leave a record half
// settled.
type PostgresBetStorage struct {
	db *sql.DB
}

// NewPostgresBetStorage opens the connection and initializes the schema.
func NewPostgresBetStorage(cfg *config.PostgresConfig) (*PostgresBetStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	storage := &PostgresBetStorage{db: db}

	if err := storage.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL bet storage initialized")
	return storage, nil
}

func (s *PostgresBetStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS bets (
		race_id VARCHAR(32) PRIMARY KEY,
		race_date CHAR(8) NOT NULL,
		venue INTEGER NOT NULL,
		venue_name VARCHAR(32) NOT NULL,
		race INTEGER NOT NULL,
		combo VARCHAR(16) NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		commentary TEXT NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'PENDING',
		result_combo VARCHAR(16),
		is_win BOOLEAN NOT NULL DEFAULT FALSE,
		payout INTEGER NOT NULL DEFAULT 0,
		profit INTEGER NOT NULL DEFAULT 0,
		settled_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_bets_status ON bets(status);
	CREATE INDEX IF NOT EXISTS idx_bets_race_date ON bets(race_date);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// InsertBet stores a PENDING record if none exists for the race yet.
// The primary key on race_id is the at-most-once arbiter: under concurrent
// callers exactly one insert returns true.
func (s *PostgresBetStorage) InsertBet(ctx context.Context, bet *models.BetRecord) (bool, error) {
	query := `
	INSERT INTO bets (
		race_id, race_date, venue, venue_name, race,
		combo, confidence, commentary, status, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (race_id) DO NOTHING
	RETURNING race_id
	`

	createdAt := bet.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var raceID string
	err := s.db.QueryRowContext(ctx, query,
		bet.RaceID, bet.Date, bet.Venue, bet.VenueName, bet.Race,
		bet.Combo, bet.Confidence, bet.Commentary, models.StatusPending, createdAt,
	).Scan(&raceID)

	if err == sql.ErrNoRows {
		// Conflict: some other worker (or a previous cycle) got there first.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert bet %s: %w", bet.RaceID, err)
	}
	return true, nil
}

func (s *PostgresBetStorage) HasBet(ctx context.Context, key models.RaceKey) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bets WHERE race_id = $1)`, key.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bet %s: %w", key.String(), err)
	}
	return exists, nil
}

func (s *PostgresBetStorage) ListPending(ctx context.Context) ([]models.BetRecord, error) {
	query := `
	SELECT race_id, race_date, venue, venue_name, race,
	       combo, confidence, commentary, status, created_at
	FROM bets
	WHERE status = $1
	ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending bets: %w", err)
	}
	defer rows.Close()

	var bets []models.BetRecord
	for rows.Next() {
		var b models.BetRecord
		if err := rows.Scan(
			&b.RaceID, &b.Date, &b.Venue, &b.VenueName, &b.Race,
			&b.Combo, &b.Confidence, &b.Commentary, &b.Status, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bet row: %w", err)
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// Settle moves one PENDING record to FINISHED. The status predicate in the
// WHERE clause makes repeated settlement a no-op.
func (s *PostgresBetStorage) Settle(ctx context.Context, key models.RaceKey, resultCombo string, payout, profit int, isWin bool) (bool, error) {
	query := `
	UPDATE bets
	SET result_combo = $2, payout = $3, profit = $4, is_win = $5,
	    status = $6, settled_at = NOW()
	WHERE race_id = $1 AND status = $7
	`

	res, err := s.db.ExecContext(ctx, query,
		key.String(), resultCombo, payout, profit, isWin,
		models.StatusFinished, models.StatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to settle bet %s: %w", key.String(), err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read settle result for %s: %w", key.String(), err)
	}
	return affected == 1, nil
}

func (s *PostgresBetStorage) DailyAggregate(ctx context.Context, date string) (models.DailyAggregate, error) {
	var agg models.DailyAggregate

	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FILTER (WHERE status = $2),
	       COUNT(*) FILTER (WHERE status = $2 AND is_win),
	       COUNT(*) FILTER (WHERE status = $3),
	       COALESCE(SUM(profit) FILTER (WHERE status = $2), 0)
	FROM bets WHERE race_date = $1
	`, date, models.StatusFinished, models.StatusPending).Scan(
		&agg.Finished, &agg.Wins, &agg.Pending, &agg.Profit,
	)
	if err != nil {
		return models.DailyAggregate{}, fmt.Errorf("failed to aggregate day %s: %w", date, err)
	}
	return agg, nil
}

func (s *PostgresBetStorage) Close() error {
	return s.db.Close()
}
