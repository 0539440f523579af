package analytics

import (
	"github.com/okian/trajectory/internal/domain/model"
	"github.com/okian/trajectory/internal/domain/ranking"
)

// Metric names, also the export keys.
const (
	MetricPromotionVelocity   = "promotion_velocity"
	MetricRoleTransitions     = "role_transitions"
	MetricMajorToFirstRole    = "major_to_first_role"
	MetricIndustryTransitions = "industry_transitions"
	MetricPathsToRole         = "paths_to_role"
)

// Names lists the metric names in export order.
var Names = []string{
	MetricPromotionVelocity,
	MetricRoleTransitions,
	MetricMajorToFirstRole,
	MetricIndustryTransitions,
	MetricPathsToRole,
}

// Velocity is the promotion speed between two levels.
type Velocity struct {
	From          model.Level
	To            model.Level
	MedianMonths  float64
	SampleSize    int
	LowConfidence bool
}

// Key is the export key of v, "<from> -> <to>".
func (v Velocity) Key() string { return string(v.From) + " -> " + string(v.To) }

// Share is one target of a distribution.
type Share struct {
	Label       string
	Count       int
	Probability float64
}

// Distribution is the empirical distribution of targets observed from one source label.
// Targets are ranked by probability, then label.
type Distribution struct {
	Source       string
	Observations int
	Targets      []Share
}

// PathCount is one distinct title sequence and how many persons followed it.
type PathCount struct {
	Path      []string
	Frequency int
}

// RolePaths holds the most common sequences ending in Target.
type RolePaths struct {
	Target       string
	Observations int
	Paths        []PathCount
}

// Results holds the five metrics, each ranked by observation volume.
// A nil slice means the metric was not computed; an empty one means it had no data.
type Results struct {
	PromotionVelocity   []Velocity
	RoleTransitions     []Distribution
	MajorToFirstRole    []Distribution
	IndustryTransitions []Distribution
	PathsToRole         []RolePaths
}

// Sizes returns the number of source keys per metric name.
func (r *Results) Sizes() map[string]int {
	return map[string]int{
		MetricPromotionVelocity:   len(r.PromotionVelocity),
		MetricRoleTransitions:     len(r.RoleTransitions),
		MetricMajorToFirstRole:    len(r.MajorToFirstRole),
		MetricIndustryTransitions: len(r.IndustryTransitions),
		MetricPathsToRole:         len(r.PathsToRole),
	}
}

// Degenerate lists, in export order, the metrics that produced no entries.
func (r *Results) Degenerate() []string {
	sizes := r.Sizes()
	var out []string
	for _, name := range Names {
		if sizes[name] == 0 {
			out = append(out, name)
		}
	}
	return out
}

// Rankers used to order every metric. Volume first, label second.
var (
	VelocityRanker = ranking.Ranker[Velocity]{
		Score: func(v Velocity) float64 { return float64(v.SampleSize) },
		Key:   Velocity.Key,
	}
	DistributionRanker = ranking.Ranker[Distribution]{
		Score: func(d Distribution) float64 { return float64(d.Observations) },
		Key:   func(d Distribution) string { return d.Source },
	}
	ShareRanker = ranking.Ranker[Share]{
		Score: func(s Share) float64 { return s.Probability },
		Key:   func(s Share) string { return s.Label },
	}
	countRanker = ranking.Ranker[Share]{
		Score: func(s Share) float64 { return float64(s.Count) },
		Key:   func(s Share) string { return s.Label },
	}
	RolePathsRanker = ranking.Ranker[RolePaths]{
		Score: func(p RolePaths) float64 { return float64(p.Observations) },
		Key:   func(p RolePaths) string { return p.Target },
	}
	PathCountRanker = ranking.Ranker[PathCount]{
		Score: func(p PathCount) float64 { return float64(p.Frequency) },
		Key:   func(p PathCount) string { return joinPath(p.Path) },
	}
)
