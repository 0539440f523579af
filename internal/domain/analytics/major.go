package analytics

import (
	"context"

	"github.com/okian/trajectory/internal/domain/model"
)

// MajorToFirstRole tallies, per field of study, the title of each person's
// earliest titled job and keeps the top titles. Probabilities are shares of
// the kept titles.
func MajorToFirstRole(ctx context.Context, src Source, top int) ([]Distribution, error) {
	first := make(map[string]string)
	err := src.ScanCareers(ctx, func(c model.Career) error {
		for _, step := range c.Steps {
			if step.Title != "" {
				first[c.PersonID] = step.Title
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(first) == 0 {
		return []Distribution{}, nil
	}

	t := make(tally)
	err = src.ScanStudies(ctx, func(s model.Study) error {
		if title, ok := first[s.PersonID]; ok && s.Field != "" {
			t.add(s.Field, title)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.distributions(top), nil
}
