package trigger

import (
	"math"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// Summary is the headline of an analysis report.
type Summary struct {
	TotalTriggers      int `json:"totalTriggers"`
	HighConfidence     int `json:"highConfidence"`
	AverageConfidence  int `json:"averageConfidence"`
	SymptomsConsidered int `json:"symptomsConsidered"`
	FoodsConsidered    int `json:"foodsConsidered"`
}

// Summarize counts candidates at or above highThreshold and averages the
// confidence. Zero candidates give an average of 0.
func Summarize(candidates []domain.TriggerCandidate, highThreshold, symptoms, foods int) Summary {
	s := Summary{
		TotalTriggers:      len(candidates),
		SymptomsConsidered: symptoms,
		FoodsConsidered:    foods,
	}
	if len(candidates) == 0 {
		return s
	}

	var sum int
	for _, c := range candidates {
		sum += c.Confidence
		if c.Confidence >= highThreshold {
			s.HighConfidence++
		}
	}
	s.AverageConfidence = int(math.Round(float64(sum) / float64(len(candidates))))
	return s
}
