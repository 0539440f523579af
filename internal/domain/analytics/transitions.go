package analytics

import (
	"context"

	"github.com/okian/trajectory/internal/domain/model"
)

// RoleTransitions computes, per source title, the probability distribution of
// the next title. Steps without a title are skipped before pairing.
func RoleTransitions(ctx context.Context, src Source) ([]Distribution, error) {
	return transitions(ctx, src, func(s model.Step) string { return s.Title }, false)
}

// IndustryTransitions is RoleTransitions keyed on employer industry. Pairs
// that stay in the same industry are not observations.
func IndustryTransitions(ctx context.Context, src Source) ([]Distribution, error) {
	return transitions(ctx, src, func(s model.Step) string { return s.Industry }, true)
}

func transitions(ctx context.Context, src Source, label func(model.Step) string, changesOnly bool) ([]Distribution, error) {
	t := make(tally)
	err := src.ScanCareers(ctx, func(c model.Career) error {
		prev := ""
		for _, step := range c.Steps {
			cur := label(step)
			if cur == "" {
				continue
			}
			if prev != "" && (!changesOnly || prev != cur) {
				t.add(prev, cur)
			}
			prev = cur
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.distributions(0), nil
}
