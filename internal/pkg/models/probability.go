package models

import "fmt"

// ExactaCount is the number of ordered 2-of-6 combinations.
const ExactaCount = BoatCount * (BoatCount - 1) // 30

// ProbabilityVector is a distribution over all exacta combinations in
// canonical order: grouped by leading boat 1..6, second boat ascending with
// the leader skipped. Index 0 is 1-2, index 4 is 1-6, index 5 is 2-1, and so
// on. The scorer produces it; the decision engine only reads it.
type ProbabilityVector [ExactaCount]float64

// ComboAt returns the (first, second) boats for a canonical index.
func ComboAt(idx int) (first, second int) {
	first = idx/(BoatCount-1) + 1
	second = idx%(BoatCount-1) + 1
	if second >= first {
		second++
	}
	return first, second
}

// ComboIndex is the inverse of ComboAt. Panics on an impossible pair, which
// only a programming error can produce.
func ComboIndex(first, second int) int {
	if first < 1 || first > BoatCount || second < 1 || second > BoatCount || first == second {
		panic(fmt.Sprintf("invalid exacta combination %d-%d", first, second))
	}
	s := second
	if s > first {
		s--
	}
	return (first-1)*(BoatCount-1) + s - 1
}

// ComboLabel formats a combination the way tickets are written: "1-2".
func ComboLabel(first, second int) string {
	return fmt.Sprintf("%d-%d", first, second)
}

// BoatWinProb aggregates the win probability of one boat: the sum over all
// combinations it leads.
func (p ProbabilityVector) BoatWinProb(boat int) float64 {
	var sum float64
	base := (boat - 1) * (BoatCount - 1)
	for i := 0; i < BoatCount-1; i++ {
		sum += p[base+i]
	}
	return sum
}

// ArgmaxCombo returns the index and probability of the most likely
// combination. Ties resolve to the lowest canonical index so the result is
// deterministic.
func (p ProbabilityVector) ArgmaxCombo() (idx int, prob float64) {
	idx, prob = 0, p[0]
	for i := 1; i < ExactaCount; i++ {
		if p[i] > prob {
			idx, prob = i, p[i]
		}
	}
	return idx, prob
}

// ArgmaxBoat returns the boat with the highest aggregate win probability,
// lowest boat number on ties.
func (p ProbabilityVector) ArgmaxBoat() (boat int, prob float64) {
	boat, prob = 1, p.BoatWinProb(1)
	for b := 2; b <= BoatCount; b++ {
		if v := p.BoatWinProb(b); v > prob {
			boat, prob = b, v
		}
	}
	return boat, prob
}
