package analytics

import (
	"context"

	"github.com/okian/trajectory/internal/domain/model"
)

type pathTally struct {
	path  []string
	count int
}

// PathsToRole groups persons by the title of their latest titled job and
// counts identical title sequences leading to it. Only sequences shared by at
// least minFrequency persons are kept, at most topN per target.
func PathsToRole(ctx context.Context, src Source, topN, minFrequency int) ([]RolePaths, error) {
	byTarget := make(map[string]map[string]*pathTally)
	err := src.ScanCareers(ctx, func(c model.Career) error {
		var path []string
		for _, step := range c.Steps {
			if step.Title != "" {
				path = append(path, step.Title)
			}
		}
		if len(path) == 0 {
			return nil
		}
		target := path[len(path)-1]
		seqs, ok := byTarget[target]
		if !ok {
			seqs = make(map[string]*pathTally)
			byTarget[target] = seqs
		}
		key := joinPath(path)
		if pt, ok := seqs[key]; ok {
			pt.count++
			return nil
		}
		seqs[key] = &pathTally{path: path, count: 1}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]RolePaths, 0, len(byTarget))
	for target, seqs := range byTarget {
		observations := 0
		paths := make([]PathCount, 0, len(seqs))
		for _, pt := range seqs {
			observations += pt.count
			if pt.count >= minFrequency {
				paths = append(paths, PathCount{Path: pt.path, Frequency: pt.count})
			}
		}
		if len(paths) == 0 {
			continue
		}
		out = append(out, RolePaths{
			Target:       target,
			Observations: observations,
			Paths:        PathCountRanker.Top(paths, topN),
		})
	}
	RolePathsRanker.Sort(out)
	return out, nil
}
