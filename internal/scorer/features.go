package scorer

import "github.com/Vodeneev/kyoteibet/internal/pkg/models"

// boatFeatures are the engineered per-boat inputs: each stat expressed as a
// deviation from the race mean, so the model sees relative strength rather
// than absolute numbers. Exhibition time and start timing are inverted
// because lower is better for both.
type boatFeatures struct {
	WinRateRel    float64
	MotorRateRel  float64
	ExhibitionRel float64
	StartRel      float64
	FalseStarts   float64
}

func engineerFeatures(rec *models.RaceRecord) [models.BoatCount]boatFeatures {
	var wrMean, moMean, exMean, stMean float64
	for _, b := range rec.Boats {
		wrMean += b.WinRate
		moMean += b.MotorRate
		exMean += b.ExhibitionTime
		stMean += b.StartTiming
	}
	wrMean /= models.BoatCount
	moMean /= models.BoatCount
	exMean /= models.BoatCount
	stMean /= models.BoatCount

	var feats [models.BoatCount]boatFeatures
	for i, b := range rec.Boats {
		feats[i] = boatFeatures{
			WinRateRel:    b.WinRate - wrMean,
			MotorRateRel:  b.MotorRate - moMean,
			ExhibitionRel: exMean - b.ExhibitionTime,
			StartRel:      stMean - b.StartTiming,
			FalseStarts:   float64(b.FalseStarts),
		}
	}
	return feats
}
