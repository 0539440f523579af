// Package analytics computes the five aggregate career statistics over a
// loaded corpus: promotion velocity, role transitions, major to first role,
// industry transitions and common paths to a role.
//
// Every metric is a function of a read-only Source and returns owned, ranked
// results, so the Engine may run them concurrently.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/trajectory/pkg/logger"
)

// Default engine configuration.
const (
	DefaultMinSampleSize    = 10
	DefaultMajorTopRoles    = 10
	DefaultPathTopN         = 5
	DefaultPathMinFrequency = 2
	DefaultWorkers          = 5
)

// Engine runs the five metrics against a Source.
type Engine struct {
	src         Source
	minSample   int
	majorTop    int
	pathTop     int
	pathMinFreq int
	workers     int
	logger      logger.Logger
}

// NewEngine creates an Engine over src.
func NewEngine(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:         src,
		minSample:   DefaultMinSampleSize,
		majorTop:    DefaultMajorTopRoles,
		pathTop:     DefaultPathTopN,
		pathMinFreq: DefaultPathMinFrequency,
		workers:     DefaultWorkers,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute runs every metric. A metric whose input table is missing yields an
// empty result; any other failure aborts the whole computation.
func (e *Engine) Compute(ctx context.Context) (*Results, error) {
	res := &Results{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	g.Go(func() error {
		v, err := run(gctx, e, MetricPromotionVelocity, func(ctx context.Context) ([]Velocity, error) {
			return PromotionVelocity(ctx, e.src, e.minSample)
		})
		res.PromotionVelocity = v
		return err
	})
	g.Go(func() error {
		v, err := run(gctx, e, MetricRoleTransitions, func(ctx context.Context) ([]Distribution, error) {
			return RoleTransitions(ctx, e.src)
		})
		res.RoleTransitions = v
		return err
	})
	g.Go(func() error {
		v, err := run(gctx, e, MetricMajorToFirstRole, func(ctx context.Context) ([]Distribution, error) {
			return MajorToFirstRole(ctx, e.src, e.majorTop)
		})
		res.MajorToFirstRole = v
		return err
	})
	g.Go(func() error {
		v, err := run(gctx, e, MetricIndustryTransitions, func(ctx context.Context) ([]Distribution, error) {
			return IndustryTransitions(ctx, e.src)
		})
		res.IndustryTransitions = v
		return err
	})
	g.Go(func() error {
		v, err := run(gctx, e, MetricPathsToRole, func(ctx context.Context) ([]RolePaths, error) {
			return PathsToRole(ctx, e.src, e.pathTop, e.pathMinFreq)
		})
		res.PathsToRole = v
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, name := range res.Degenerate() {
		e.logger.Warn(ctx, "metric produced no entries", logger.String("metric", name))
	}
	return res, nil
}

// run times one metric and folds ErrNoData into an empty result.
func run[T any](ctx context.Context, e *Engine, name string, compute func(context.Context) ([]T, error)) ([]T, error) {
	start := time.Now()
	out, err := compute(ctx)
	switch {
	case errors.Is(err, ErrNoData):
		e.logger.Warn(ctx, "metric input missing", logger.String("metric", name), logger.Error(err))
		return []T{}, nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if out == nil {
		out = []T{}
	}
	e.logger.Debug(ctx, "metric computed",
		logger.String("metric", name),
		logger.Int("entries", len(out)),
		logger.Any("took", time.Since(start)))
	return out, nil
}
