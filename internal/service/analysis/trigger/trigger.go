// Package trigger ranks foods by how often and how regularly they precede
// symptoms. It is a pure computation over already loaded entries.
package trigger

import (
	"math"
	"slices"
	"time"

	"github.com/heartmarshall/allergycare-backend/internal/domain"
)

// Window is the maximum delay between a meal and a symptom for the two to be
// paired. A meal at the same instant as the symptom is not paired.
const Window = 24 * time.Hour

const (
	windowMinutes     = float64(Window / time.Minute)
	frequencyWeight   = 0.6
	consistencyWeight = 0.4
)

type accumulator struct {
	occurrences int
	symptoms    []string
	delays      []float64
	severities  []domain.Severity
	last        time.Time
}

// Analyze pairs every symptom with the meals eaten within Window before its
// start and returns the candidate foods ordered by descending confidence.
// Ties keep first-seen order. Empty input yields an empty, non-nil slice.
func Analyze(foods []domain.FoodEntry, symptoms []domain.SymptomEntry) []domain.TriggerCandidate {
	if len(foods) == 0 || len(symptoms) == 0 {
		return []domain.TriggerCandidate{}
	}

	// Split once per entry; SplitFoodItems already collapses repeats.
	names := make([][]string, len(foods))
	for i, f := range foods {
		names[i] = f.Foods()
	}

	var order []string
	acc := make(map[string]*accumulator)

	for _, s := range symptoms {
		for i, f := range foods {
			delay := s.StartTime.Sub(f.Timestamp)
			if delay <= 0 || delay > Window {
				continue
			}
			minutes := delay.Minutes()

			for _, food := range names[i] {
				a, ok := acc[food]
				if !ok {
					a = &accumulator{last: s.StartTime}
					acc[food] = a
					order = append(order, food)
				}
				a.occurrences++
				a.symptoms = append(a.symptoms, s.Symptom)
				a.delays = append(a.delays, minutes)
				a.severities = append(a.severities, s.Severity)
				if s.StartTime.After(a.last) {
					a.last = s.StartTime
				}
			}
		}
	}

	out := make([]domain.TriggerCandidate, 0, len(order))
	for _, food := range order {
		out = append(out, candidate(food, acc[food], len(symptoms)))
	}

	slices.SortStableFunc(out, func(a, b domain.TriggerCandidate) int {
		return b.Confidence - a.Confidence
	})
	return out
}

func candidate(food string, a *accumulator, totalSymptoms int) domain.TriggerCandidate {
	minDelay, maxDelay := slices.Min(a.delays), slices.Max(a.delays)
	consistency := 1 - (maxDelay-minDelay)/windowMinutes
	frequency := float64(a.occurrences) / float64(totalSymptoms)

	var sevSum int
	for _, sev := range a.severities {
		sevSum += int(sev)
	}

	return domain.TriggerCandidate{
		Food:           food,
		Confidence:     Confidence(frequency, consistency),
		Occurrences:    a.occurrences,
		LastOccurrence: a.last,
		Symptoms:       distinct(a.symptoms),
		TimePattern: domain.TimePattern{
			AverageOnsetTime: int(math.Round(mean(a.delays))),
			ConsistencyScore: roundTo(consistency, 2),
		},
		Severity: domain.SeverityStats{
			Average: roundTo(float64(sevSum)/float64(len(a.severities)), 1),
			Range:   [2]domain.Severity{slices.Min(a.severities), slices.Max(a.severities)},
		},
	}
}

// Confidence combines the share of symptoms preceded by a food with the
// regularity of the onset delay into a score between 0 and 100.
//
//	confidence = round(min(100, (frequency*0.6 + consistency*0.4) * 100))
func Confidence(frequency, consistency float64) int {
	c := (frequency*frequencyWeight + consistency*consistencyWeight) * 100
	return int(math.Round(math.Max(0, math.Min(100, c))))
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func distinct(xs []string) []string {
	seen := make(map[string]struct{}, len(xs))
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}
