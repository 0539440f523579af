package analytics

import (
	"context"
	"math"
	"slices"

	"github.com/okian/trajectory/internal/domain/model"
)

type levelPair struct {
	from, to model.Level
}

// PromotionVelocity computes the median months between forward level changes.
//
// Steps with an unranked level are dropped before pairing, so a career
// IC, Unknown, Senior yields one IC -> Senior sample. Entries with fewer than
// minSample samples are flagged low confidence.
func PromotionVelocity(ctx context.Context, src Source, minSample int) ([]Velocity, error) {
	gaps := make(map[levelPair][]int64)
	err := src.ScanCareers(ctx, func(c model.Career) error {
		var prev *model.Step
		for i := range c.Steps {
			step := &c.Steps[i]
			if !step.Level.Ranked() {
				continue
			}
			if prev != nil && prev.Level.Precedes(step.Level) {
				k := levelPair{prev.Level, step.Level}
				gaps[k] = append(gaps[k], model.MonthsBetween(prev.Start, step.Start))
			}
			prev = step
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Velocity, 0, len(gaps))
	for k, samples := range gaps {
		out = append(out, Velocity{
			From:          k.from,
			To:            k.to,
			MedianMonths:  median(samples),
			SampleSize:    len(samples),
			LowConfidence: len(samples) < minSample,
		})
	}
	VelocityRanker.Sort(out)
	return out, nil
}

// median of samples rounded to one decimal. samples is sorted in place.
func median(samples []int64) float64 {
	if len(samples) == 0 {
		return 0
	}
	slices.Sort(samples)
	mid := len(samples) / 2
	m := float64(samples[mid])
	if len(samples)%2 == 0 {
		m = float64(samples[mid-1]+samples[mid]) / 2
	}
	return math.Round(m*10) / 10
}
