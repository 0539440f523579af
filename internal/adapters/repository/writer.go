package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/okian/trajectory/internal/domain/model"
	"github.com/okian/trajectory/pkg/logger"
	"github.com/okian/trajectory/pkg/metrics"
)

// Table names used in row metrics.
const (
	tablePersons   = "persons"
	tableJobs      = "jobs"
	tableEducation = "education"
	tableChanges   = "change_events"
)

const (
	insertPerson = `INSERT INTO persons (id, created_at, employment_status, connections, country, city)
VALUES (?, ?, ?, ?, ?, ?)`
	insertJob = `INSERT INTO jobs (person_id, title, function, level, company_name, company_industry,
  started_at, ended_at, duration_months, tenure_months)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertEducation = `INSERT INTO education (person_id, school, degree, field, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?)`
	insertChange = `INSERT INTO change_events (person_id, title_change_detected_at,
  company_change_detected_at, info_change_detected_at)
VALUES (?, ?, ?, ?)`
)

// batchWriter groups records into transactions of batchSize records. Each
// record runs inside its own savepoint so a rejected record leaves no rows.
type batchWriter struct {
	db        *sql.DB
	batchSize int
	logger    logger.Logger

	tx      *sql.Tx
	pending int
	loaded  int64
	closed  bool
}

// NewWriter starts a load. Only one writer may be active at a time.
func (s *SQLiteStore) NewWriter(ctx context.Context) (RecordWriter, error) {
	w := &batchWriter{db: s.db, batchSize: s.batchSize, logger: s.logger}
	if err := w.begin(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *batchWriter) begin(ctx context.Context) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin batch: %w", ErrStoreUnavailable, err)
	}
	w.tx = tx
	w.pending = 0
	return nil
}

func (w *batchWriter) commit() error {
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit batch: %w", ErrStoreUnavailable, err)
	}
	w.tx = nil
	return nil
}

// Write stores rec. A record-level failure rolls back to the record's
// savepoint and returns an error wrapping ErrRecordRejected.
func (w *batchWriter) Write(ctx context.Context, rec model.Record) error {
	if w.closed {
		return ErrWriterClosed
	}
	if _, err := w.tx.ExecContext(ctx, "SAVEPOINT record"); err != nil {
		return fmt.Errorf("%w: savepoint: %w", ErrStoreUnavailable, err)
	}
	if err := w.insert(ctx, rec); err != nil {
		if _, rbErr := w.tx.ExecContext(ctx, "ROLLBACK TO record"); rbErr != nil {
			return fmt.Errorf("%w: rollback record %s: %w", ErrStoreUnavailable, rec.Person.ID, rbErr)
		}
		if _, relErr := w.tx.ExecContext(ctx, "RELEASE record"); relErr != nil {
			return fmt.Errorf("%w: release record %s: %w", ErrStoreUnavailable, rec.Person.ID, relErr)
		}
		if isRecordError(err) {
			return fmt.Errorf("%w: %s: %w", ErrRecordRejected, rec.Person.ID, err)
		}
		return fmt.Errorf("%w: insert %s: %w", ErrStoreUnavailable, rec.Person.ID, err)
	}
	if _, err := w.tx.ExecContext(ctx, "RELEASE record"); err != nil {
		return fmt.Errorf("%w: release record %s: %w", ErrStoreUnavailable, rec.Person.ID, err)
	}

	w.loaded++
	w.pending++
	metrics.RecordRowsWritten(tablePersons, 1)
	metrics.RecordRowsWritten(tableJobs, len(rec.Jobs))
	metrics.RecordRowsWritten(tableEducation, len(rec.Education))
	metrics.RecordRowsWritten(tableChanges, 1)

	if w.pending >= w.batchSize {
		if err := w.commit(); err != nil {
			return err
		}
		w.logger.Debug(ctx, "batch committed", logger.Int64("loaded", w.loaded))
		return w.begin(ctx)
	}
	return nil
}

func (w *batchWriter) insert(ctx context.Context, rec model.Record) error {
	p := rec.Person
	if _, err := w.tx.ExecContext(ctx, insertPerson,
		p.ID, formatTime(p.CreatedAt), nullable(p.EmploymentStatus), nullable(p.Connections),
		nullable(p.Country), nullable(p.City)); err != nil {
		return err
	}
	for _, j := range rec.Jobs {
		if _, err := w.tx.ExecContext(ctx, insertJob,
			p.ID, nullable(j.Title), nullable(j.Function), string(j.Level), nullable(j.CompanyName),
			nullable(j.Industry), formatTime(j.Start), formatTime(j.End),
			nullable(j.DurationMonths), nullable(j.TenureMonths)); err != nil {
			return err
		}
	}
	for _, e := range rec.Education {
		if _, err := w.tx.ExecContext(ctx, insertEducation,
			p.ID, nullable(e.School), nullable(e.Degree), nullable(e.Field),
			formatTime(e.Start), formatTime(e.End)); err != nil {
			return err
		}
	}
	c := rec.Changes
	_, err := w.tx.ExecContext(ctx, insertChange,
		p.ID, formatTime(c.TitleChangedAt), formatTime(c.CompanyChangedAt), formatTime(c.InfoChangedAt))
	return err
}

// Commit flushes the last batch. The writer cannot be used afterwards.
func (w *batchWriter) Commit(ctx context.Context) error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true
	if err := w.commit(); err != nil {
		return err
	}
	w.logger.Info(ctx, "load committed", logger.Int64("loaded", w.loaded))
	return nil
}

// Abort discards the pending batch and closes the writer.
func (w *batchWriter) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.tx == nil {
		return nil
	}
	return w.tx.Rollback()
}

func (w *batchWriter) Loaded() int64 { return w.loaded }
