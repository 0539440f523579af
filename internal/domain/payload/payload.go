// Package payload assembles the exported document: run metadata plus the five
// metrics, each trimmed to bounded top-K sets.
//
// Trimming only drops entries. Ranking order is kept and probabilities are
// never renormalized.
package payload

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/trajectory/internal/domain/analytics"
	"github.com/okian/trajectory/internal/domain/ranking"
)

// Limits caps one metric: Keys source entries, Targets entries within each.
// Zero keeps everything.
type Limits struct {
	Keys    int
	Targets int
}

// Bounds holds the Limits of every metric.
type Bounds struct {
	PromotionVelocity   Limits
	RoleTransitions     Limits
	MajorToFirstRole    Limits
	IndustryTransitions Limits
	PathsToRole         Limits
}

// DefaultBounds keeps the export within a size a browser loads comfortably.
var DefaultBounds = Bounds{
	PromotionVelocity:   Limits{},
	RoleTransitions:     Limits{Keys: 200, Targets: 20},
	MajorToFirstRole:    Limits{Keys: 200, Targets: 10},
	IndustryTransitions: Limits{Keys: 100, Targets: 20},
	PathsToRole:         Limits{Keys: 200, Targets: 5},
}

// Metadata describes the run that produced a payload.
type Metadata struct {
	GeneratedAt       time.Time
	RunID             string
	TotalPersons      int64
	TotalJobs         int64
	DataFiles         []string
	RecordsSkipped    int64
	DegenerateMetrics []string
}

// Payload is the export document.
type Payload struct {
	Metadata            Metadata
	PromotionVelocity   []analytics.Velocity
	RoleTransitions     []analytics.Distribution
	MajorToFirstRole    []analytics.Distribution
	IndustryTransitions []analytics.Distribution
	PathsToRole         []analytics.RolePaths
}

// Sizes returns the number of source keys per metric name.
func (p *Payload) Sizes() map[string]int {
	return map[string]int{
		analytics.MetricPromotionVelocity:   len(p.PromotionVelocity),
		analytics.MetricRoleTransitions:     len(p.RoleTransitions),
		analytics.MetricMajorToFirstRole:    len(p.MajorToFirstRole),
		analytics.MetricIndustryTransitions: len(p.IndustryTransitions),
		analytics.MetricPathsToRole:         len(p.PathsToRole),
	}
}

// Shaper builds payloads.
type Shaper struct {
	bounds Bounds
	now    func() time.Time
	newID  func() string
}

// Option applies a configuration option to the Shaper.
type Option func(*Shaper)

// WithBounds sets the trimming bounds.
func WithBounds(b Bounds) Option {
	return func(s *Shaper) { s.bounds = b }
}

// WithClock sets the time source of GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Shaper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(s *Shaper) {
		if id != "" {
			s.newID = func() string { return id }
		}
	}
}

// NewShaper creates a Shaper with DefaultBounds.
func NewShaper(opts ...Option) *Shaper {
	s := &Shaper{
		bounds: DefaultBounds,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Shape trims res and attaches meta. GeneratedAt and RunID are filled in when
// empty. It fails with ErrMissingMetric if any metric is absent.
func (s *Shaper) Shape(meta Metadata, res *analytics.Results) (*Payload, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: no results", ErrMissingMetric)
	}
	for _, m := range []struct {
		name   string
		absent bool
	}{
		{analytics.MetricPromotionVelocity, res.PromotionVelocity == nil},
		{analytics.MetricRoleTransitions, res.RoleTransitions == nil},
		{analytics.MetricMajorToFirstRole, res.MajorToFirstRole == nil},
		{analytics.MetricIndustryTransitions, res.IndustryTransitions == nil},
		{analytics.MetricPathsToRole, res.PathsToRole == nil},
	} {
		if m.absent {
			return nil, fmt.Errorf("%w: %s", ErrMissingMetric, m.name)
		}
	}

	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = s.now()
	}
	meta.GeneratedAt = meta.GeneratedAt.UTC()
	if meta.RunID == "" {
		meta.RunID = s.newID()
	}
	if meta.DataFiles == nil {
		meta.DataFiles = []string{}
	}
	if meta.DegenerateMetrics == nil {
		meta.DegenerateMetrics = res.Degenerate()
	}

	b := s.bounds
	return &Payload{
		Metadata:            meta,
		PromotionVelocity:   ranking.Truncate(res.PromotionVelocity, b.PromotionVelocity.Keys),
		RoleTransitions:     trimDistributions(res.RoleTransitions, b.RoleTransitions),
		MajorToFirstRole:    trimDistributions(res.MajorToFirstRole, b.MajorToFirstRole),
		IndustryTransitions: trimDistributions(res.IndustryTransitions, b.IndustryTransitions),
		PathsToRole:         trimPaths(res.PathsToRole, b.PathsToRole),
	}, nil
}

func trimDistributions(in []analytics.Distribution, l Limits) []analytics.Distribution {
	kept := ranking.Truncate(in, l.Keys)
	out := make([]analytics.Distribution, len(kept))
	for i, d := range kept {
		d.Targets = ranking.Truncate(d.Targets, l.Targets)
		out[i] = d
	}
	return out
}

func trimPaths(in []analytics.RolePaths, l Limits) []analytics.RolePaths {
	kept := ranking.Truncate(in, l.Keys)
	out := make([]analytics.RolePaths, len(kept))
	for i, p := range kept {
		p.Paths = ranking.Truncate(p.Paths, l.Targets)
		out[i] = p
	}
	return out
}
