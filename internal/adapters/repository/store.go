package repository

import (
	"context"

	"github.com/okian/trajectory/internal/domain/analytics"
	"github.com/okian/trajectory/internal/domain/model"
)

// Counts holds row counts per table.
type Counts struct {
	Persons   int64
	Jobs      int64
	Education int64
	Changes   int64
}

// RecordWriter loads records in a single pass.
type RecordWriter interface {
	// Write stores one record with all its rows, or none of them.
	// Errors matching ErrRecordRejected concern only that record.
	Write(ctx context.Context, rec model.Record) error
	// Commit flushes pending rows and closes the writer.
	Commit(ctx context.Context) error
	// Abort discards the uncommitted batch after a fatal error.
	Abort() error
	// Loaded returns the number of records written so far.
	Loaded() int64
}

// Store provides write access during load and read access afterwards.
type Store interface {
	analytics.Source

	// NewWriter starts a load.
	NewWriter(ctx context.Context) (RecordWriter, error)

	// Counts returns the number of rows per table.
	Counts(ctx context.Context) (Counts, error)

	Close() error
}
