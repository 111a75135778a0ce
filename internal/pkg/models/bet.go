package models

import "time"

// Bet status values. A bet is created PENDING and moves to FINISHED exactly
// once, when the official result is known.
const (
	StatusPending  = "PENDING"
	StatusFinished = "FINISHED"
)

// Candidate is an ephemeral recommendation for one race produced by the
// decision engine. It lives for one scan task: either it becomes a BetRecord
// or it is discarded.
type Candidate struct {
	Key            RaceKey
	Combo          string  // recommended exacta, "F-S"
	Confidence     float64 // probability of the recommended combination
	BestBoat       int
	BestBoatProb   float64
	Record         *RaceRecord // feature snapshot the decision was made on
	Commentary     string
	TimeToDeadline time.Duration // zero when the deadline is unknown
}

// BetRecord is the persisted unit of work: one notified pick per race.
type BetRecord struct {
	RaceID     string // RaceKey.String(), primary key
	Date       string // YYYYMMDD
	Venue      int
	VenueName  string
	Race       int
	Combo      string
	Confidence float64
	Commentary string
	Status     string
	ResultCombo string
	IsWin       bool
	Payout      int
	Profit      int // signed: payout-stake on win, -stake on loss
	SettledAt   time.Time
	CreatedAt   time.Time
}

// NewBetRecord builds a PENDING record from an accepted candidate.
func NewBetRecord(c *Candidate, now time.Time) *BetRecord {
	return &BetRecord{
		RaceID:     c.Key.String(),
		Date:       c.Key.Date,
		Venue:      c.Key.Venue,
		VenueName:  VenueName(c.Key.Venue),
		Race:       c.Key.Race,
		Combo:      c.Combo,
		Confidence: c.Confidence,
		Commentary: c.Commentary,
		Status:     StatusPending,
		CreatedAt:  now,
	}
}

// DailyAggregate is the reporter's view of one operating day.
type DailyAggregate struct {
	Finished int
	Wins     int
	Pending  int
	Profit   int
}
