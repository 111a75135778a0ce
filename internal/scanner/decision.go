package scanner

import (
	"time"

	"github.com/Vodeneev/kyoteibet/internal/pkg/config"
	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

// DecisionEngine turns a probability vector into zero or one candidate.
// It is a pure function of its inputs plus the configured thresholds; all
// retry and skip semantics live in the Scanner.
type DecisionEngine struct {
	cfg *config.DecisionConfig
}

func NewDecisionEngine(cfg *config.DecisionConfig) *DecisionEngine {
	return &DecisionEngine{cfg: cfg}
}

// WithinWindow reports whether now falls inside the acceptance window:
// at most cfg.Window before the deadline and not past it. An unknown (zero)
// deadline fails open, otherwise a race with an unparsed close time could
// never be picked.
func (e *DecisionEngine) WithinWindow(now, deadline time.Time) bool {
	if deadline.IsZero() {
		return true
	}
	if !now.Before(deadline) {
		return false
	}
	return !now.Before(deadline.Add(-e.cfg.Window))
}

// Evaluate applies the threshold policy: accept when the best exacta
// probability or the best boat's aggregate win probability clears its
// threshold. The recommended combination is always the most likely exacta,
// even when acceptance came from the boat threshold. Argmax ties resolve to
// the lowest canonical index, so the result is deterministic.
func (e *DecisionEngine) Evaluate(rec *models.RaceRecord, probs models.ProbabilityVector, now time.Time) *models.Candidate {
	comboIdx, comboProb := probs.ArgmaxCombo()
	bestBoat, boatProb := probs.ArgmaxBoat()

	if comboProb < e.cfg.MinComboProb && boatProb < e.cfg.MinBoatProb {
		return nil
	}

	first, second := models.ComboAt(comboIdx)

	var toDeadline time.Duration
	if !rec.Deadline.IsZero() {
		toDeadline = rec.Deadline.Sub(now)
	}

	return &models.Candidate{
		Key:            rec.Key,
		Combo:          models.ComboLabel(first, second),
		Confidence:     comboProb,
		BestBoat:       bestBoat,
		BestBoatProb:   boatProb,
		Record:         rec,
		TimeToDeadline: toDeadline,
	}
}

// PassesValueGate is the optional expected-value refinement, composed on top
// of the probability thresholds when live odds are available: keep the pick
// only when odds × probability clears the configured minimum.
func (e *DecisionEngine) PassesValueGate(odds, prob float64) bool {
	if !e.cfg.UseValueGate || odds <= 0 {
		return true
	}
	return odds*prob >= e.cfg.MinExpectedValue
}
