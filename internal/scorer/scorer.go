package scorer

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/Vodeneev/kyoteibet/internal/pkg/models"
)

// Scorer turns a race card into a probability distribution over exacta
// combinations. Implementations must be pure: same record, same vector.
type Scorer interface {
	Score(rec *models.RaceRecord) (models.ProbabilityVector, error)
}

// Weights are the trained model coefficients, exported offline to JSON.
type Weights struct {
	WinRate       float64 `json:"win_rate"`
	MotorRate     float64 `json:"motor_rate"`
	Exhibition    float64 `json:"exhibition"`
	StartTiming   float64 `json:"start_timing"`
	FalsePenalty  float64 `json:"false_penalty"`
	WindDrag      float64 `json:"wind_drag"`     // strong wind flattens the field
	SecondScale   float64 `json:"second_scale"`  // weight of the runner-up leg vs the winner leg
	Temperature   float64 `json:"temperature"`   // softmax temperature
}

// LinearScorer scores each boat linearly on its engineered features, then
// softmaxes winner/runner-up leg combinations into the exacta distribution.
type LinearScorer struct {
	weights Weights
}

// Load reads the weights file. A missing or invalid file is fatal for the
// process: nothing useful can run without the model.
func Load(path string) (*LinearScorer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model weights %s: %w", path, err)
	}

	var w Weights
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse model weights %s: %w", path, err)
	}
	if w.Temperature <= 0 {
		return nil, fmt.Errorf("model weights %s: temperature must be positive, got %v", path, w.Temperature)
	}
	if w.SecondScale == 0 {
		w.SecondScale = 0.5
	}

	return &LinearScorer{weights: w}, nil
}

func (s *LinearScorer) Score(rec *models.RaceRecord) (models.ProbabilityVector, error) {
	feats := engineerFeatures(rec)
	w := s.weights

	// Wind dampens the per-boat edge: choppy water randomizes the start.
	damp := 1.0 / (1.0 + w.WindDrag*rec.Wind)

	var strength [models.BoatCount]float64
	for i, f := range feats {
		strength[i] = damp * (w.WinRate*f.WinRateRel +
			w.MotorRate*f.MotorRateRel +
			w.Exhibition*f.ExhibitionRel +
			w.StartTiming*f.StartRel -
			w.FalsePenalty*f.FalseStarts)
	}

	var probs models.ProbabilityVector
	var max float64 = math.Inf(-1)
	for idx := 0; idx < models.ExactaCount; idx++ {
		first, second := models.ComboAt(idx)
		score := (strength[first-1] + w.SecondScale*strength[second-1]) / w.Temperature
		probs[idx] = score
		if score > max {
			max = score
		}
	}

	// Softmax with the max subtracted for numerical stability.
	var sum float64
	for idx := range probs {
		probs[idx] = math.Exp(probs[idx] - max)
		sum += probs[idx]
	}
	for idx := range probs {
		probs[idx] /= sum
	}
	return probs, nil
}
