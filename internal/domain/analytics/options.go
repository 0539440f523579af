package analytics

import (
	"github.com/okian/trajectory/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMinSampleSize sets the sample count below which a velocity is low confidence.
func WithMinSampleSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minSample = n
		}
	}
}

// WithMajorTopRoles sets how many first-role titles are kept per field of study.
func WithMajorTopRoles(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.majorTop = n
		}
	}
}

// WithPathTopN sets how many paths are kept per target role.
func WithPathTopN(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pathTop = n
		}
	}
}

// WithPathMinFrequency sets how many persons must share a path before it is published.
func WithPathMinFrequency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.pathMinFreq = n
		}
	}
}

// WithWorkers bounds how many metrics are computed at once.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
