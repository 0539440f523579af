package corpus

import "errors"

// Sentinel kinds for corpus errors.
var (
	ErrNoInput     = errors.New("no input files")
	ErrLineTooLong = errors.New("line exceeds maximum length")
)
