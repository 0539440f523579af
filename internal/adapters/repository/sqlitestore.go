package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/okian/trajectory/internal/adapters/repository/migrations"
	"github.com/okian/trajectory/internal/domain/analytics"
	"github.com/okian/trajectory/internal/domain/model"
	"github.com/okian/trajectory/pkg/logger"
)

// Default store configuration.
const (
	defaultBatchSize = 1000
	timeLayout       = time.RFC3339
)

// SQLiteStore is the relational store of one pipeline run. One writer loads
// it; readers scan it afterwards.
type SQLiteStore struct {
	db        *sql.DB
	batchSize int
	logger    logger.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: storage path is required", ErrStoreUnavailable)
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", ErrStoreUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping sqlite db: %w", ErrStoreUnavailable, err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: run migrations: %w", ErrStoreUnavailable, err)
	}

	s := &SQLiteStore{
		db:        db,
		batchSize: defaultBatchSize,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// dsn builds a URI filename. The path is percent-encoded so '?', '#' and '%'
// in a file name reach SQLite literally.
func dsn(path string) string {
	u := url.URL{Path: filepath.ToSlash(filepath.Clean(path))}
	return "file:" + u.EscapedPath() +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Counts returns the number of rows per table.
func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, q := range []struct {
		table string
		dst   *int64
	}{
		{"persons", &c.Persons},
		{"jobs", &c.Jobs},
		{"education", &c.Education},
		{"change_events", &c.Changes},
	} {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+q.table).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("%w: count %s: %w", ErrStoreUnavailable, q.table, err)
		}
	}
	return c, nil
}

// ScanCareers streams every person's dated jobs in chronological order.
// Jobs sharing a start timestamp keep their source order.
func (s *SQLiteStore) ScanCareers(ctx context.Context, fn func(model.Career) error) error {
	if err := s.requireTable(ctx, "jobs"); err != nil {
		return fmt.Errorf("scan careers: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT person_id, title, level, company_industry, started_at
  FROM jobs
 WHERE started_at IS NOT NULL
 ORDER BY person_id, started_at, id`)
	if err != nil {
		return readError("scan careers", err)
	}
	defer rows.Close()

	var cur model.Career
	for rows.Next() {
		var (
			personID, level, started string
			title, industry          sql.NullString
		)
		if err := rows.Scan(&personID, &title, &level, &industry, &started); err != nil {
			return readError("scan careers", err)
		}
		start, err := time.Parse(timeLayout, started)
		if err != nil {
			return fmt.Errorf("%w: job of %s: bad started_at %q", ErrStoreUnavailable, personID, started)
		}
		if personID != cur.PersonID && len(cur.Steps) > 0 {
			if err := fn(cur); err != nil {
				return err
			}
			cur = model.Career{}
		}
		cur.PersonID = personID
		cur.Steps = append(cur.Steps, model.Step{
			Title:    title.String,
			Level:    model.Level(level),
			Industry: industry.String,
			Start:    start,
		})
	}
	if err := rows.Err(); err != nil {
		return readError("scan careers", err)
	}
	if len(cur.Steps) > 0 {
		return fn(cur)
	}
	return nil
}

// ScanStudies streams each distinct (person, field of study) pair.
func (s *SQLiteStore) ScanStudies(ctx context.Context, fn func(model.Study) error) error {
	if err := s.requireTable(ctx, "education"); err != nil {
		return fmt.Errorf("scan studies: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT person_id, field
  FROM education
 WHERE field IS NOT NULL
 ORDER BY person_id, field`)
	if err != nil {
		return readError("scan studies", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st model.Study
		if err := rows.Scan(&st.PersonID, &st.Field); err != nil {
			return readError("scan studies", err)
		}
		if err := fn(st); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return readError("scan studies", err)
	}
	return nil
}

// requireTable returns analytics.ErrNoData when table is absent from the schema.
func (s *SQLiteStore) requireTable(ctx context.Context, table string) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: table %s does not exist", analytics.ErrNoData, table)
	case err != nil:
		return fmt.Errorf("%w: lookup table %s: %w", ErrStoreUnavailable, table, err)
	}
	return nil
}

func readError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// isRecordError reports whether err concerns the data of one record rather
// than the store.
func isRecordError(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3lib.SQLITE_CONSTRAINT, sqlite3lib.SQLITE_TOOBIG, sqlite3lib.SQLITE_MISMATCH:
		return true
	}
	return false
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

var (
	_ Store            = (*SQLiteStore)(nil)
	_ analytics.Source = (*SQLiteStore)(nil)
)
