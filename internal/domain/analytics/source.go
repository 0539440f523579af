package analytics

import (
	"context"
	"errors"

	"github.com/okian/trajectory/internal/domain/model"
)

// ErrNoData is returned by a Source whose backing table is missing. Metrics
// treat it as an empty input rather than a failure.
var ErrNoData = errors.New("no data")

// Source is a read-only view of the loaded corpus.
//
// ScanCareers calls fn once per person with at least one dated job, steps in
// chronological order. ScanStudies calls fn once per distinct (person, field)
// pair. Both stop at the first error returned by fn.
type Source interface {
	ScanCareers(ctx context.Context, fn func(model.Career) error) error
	ScanStudies(ctx context.Context, fn func(model.Study) error) error
}
