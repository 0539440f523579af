package normalize

import (
	"errors"
	"fmt"
)

// Sentinel kinds for normalization errors.
var (
	ErrMalformedLine   = errors.New("malformed line")
	ErrMalformedRecord = errors.New("malformed record")
)

// MalformedRecordError reports a record that lacks a required field.
type MalformedRecordError struct {
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedRecord) hold.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}
