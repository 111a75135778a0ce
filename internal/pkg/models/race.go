package models

import "time"

// BoatCount is fixed: every race has exactly six boats.
const BoatCount = 6

// Per-boat fallback values used by the scraper when a field cannot be
// extracted from the page. Chosen to be neutral for the model: the averages
// seen across all venues.
const (
	DefaultWinRate        = 0.0
	DefaultMotorRate      = 30.0
	DefaultExhibitionTime = 6.80
	DefaultStartTiming    = 0.20
)

// BoatFeatures holds the scraped stats for one boat in one race.
type BoatFeatures struct {
	WinRate        float64 // national win rate, 0.00-9.99
	MotorRate      float64 // motor second-place rate, percent
	ExhibitionTime float64 // exhibition lap time, seconds (lower is better)
	StartTiming    float64 // average ST, seconds (lower is better)
	FalseStarts    int     // F count this term
}

// RaceRecord is the structured card for one race as returned by the scraper.
// Fields that could not be extracted carry the documented defaults, so the
// decision layer never has to guess whether a zero means "missing".
type RaceRecord struct {
	Key      RaceKey
	Wind     float64 // wind speed, m/s
	Deadline time.Time
	Boats    [BoatCount]BoatFeatures
}

// NewRaceRecord returns a record with all per-boat fields set to their
// scrape-failure defaults. Deadline stays zero (= unknown).
func NewRaceRecord(key RaceKey) *RaceRecord {
	rec := &RaceRecord{Key: key}
	for i := range rec.Boats {
		rec.Boats[i] = BoatFeatures{
			WinRate:        DefaultWinRate,
			MotorRate:      DefaultMotorRate,
			ExhibitionTime: DefaultExhibitionTime,
			StartTiming:    DefaultStartTiming,
		}
	}
	return rec
}

// Outcome is the official result of one race.
type Outcome struct {
	Key            RaceKey
	ExactaCombo    string // "F-S", winning 2連単 combination
	ExactaPayout   int    // yen per 100-yen ticket scaled to the standard stake
	TrifectaCombo  string
	TrifectaPayout int
	WinBoat        int // 単勝 winner, 0 when not parsed
}
