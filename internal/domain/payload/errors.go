package payload

import "errors"

// ErrMissingMetric is returned when a metric was not computed at all.
var ErrMissingMetric = errors.New("missing metric")
