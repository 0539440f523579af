package repository

import "errors"

// Sentinel kinds for store errors.
var (
	// ErrStoreUnavailable marks failures of the store itself. They abort a run.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrRecordRejected marks a single record the store refused. The batch goes on.
	ErrRecordRejected = errors.New("record rejected")
	ErrWriterClosed   = errors.New("writer closed")
)
