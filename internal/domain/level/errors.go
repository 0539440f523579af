package level

import "errors"

// Sentinel kinds for classifier errors.
var (
	ErrInvalidRules = errors.New("invalid level rules")
)
