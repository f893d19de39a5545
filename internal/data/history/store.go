package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	coreerrors "xref/internal/core/errors"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store records run snapshots in a SQLite file. It is safe for concurrent
// use; watch mode writes one snapshot per run.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, coreerrors.New(coreerrors.CodeValidationError, "history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, coreerrors.New(coreerrors.CodeValidationError, fmt.Sprintf("history path %q is a directory, expected file", cleanPath))
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveSnapshot(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(snapshot.RunID) == "" {
		return coreerrors.New(coreerrors.CodeValidationError, "snapshot run id must not be empty")
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}

	query := `
INSERT INTO runs (
  run_id, schema_version, destination, ts_utc, duration_ms, outcome,
  files_scanned, files_emitted, files_failed, types_indexed, packages_indexed,
  ambiguous_count, duplicate_count, unresolved_import_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  duration_ms=excluded.duration_ms,
  outcome=excluded.outcome,
  files_scanned=excluded.files_scanned,
  files_emitted=excluded.files_emitted,
  files_failed=excluded.files_failed,
  types_indexed=excluded.types_indexed,
  packages_indexed=excluded.packages_indexed,
  ambiguous_count=excluded.ambiguous_count,
  duplicate_count=excluded.duplicate_count,
  unresolved_import_count=excluded.unresolved_import_count
`
	return s.withRetry("save snapshot", func() error {
		_, err := s.db.Exec(
			query,
			snapshot.RunID,
			snapshot.SchemaVersion,
			snapshot.Destination,
			snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
			snapshot.Duration.Milliseconds(),
			snapshot.Outcome,
			snapshot.FilesScanned,
			snapshot.FilesEmitted,
			snapshot.FilesFailed,
			snapshot.TypesIndexed,
			snapshot.PackagesIndexed,
			snapshot.AmbiguousCount,
			snapshot.DuplicateCount,
			snapshot.UnresolvedCount,
		)
		return err
	})
}

// LoadSnapshots returns the newest runs first. An empty destination selects
// every destination; limit <= 0 means no limit.
func (s *Store) LoadSnapshots(destination string, since time.Time, limit int) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT
  run_id, schema_version, destination, ts_utc, duration_ms, outcome,
  files_scanned, files_emitted, files_failed, types_indexed, packages_indexed,
  ambiguous_count, duplicate_count, unresolved_import_count
FROM runs
WHERE 1 = 1`
	args := make([]any, 0, 3)
	if destination = strings.TrimSpace(destination); destination != "" {
		base += " AND destination = ?"
		args = append(args, destination)
	}
	if !since.IsZero() {
		base += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	base += " ORDER BY ts_utc DESC, run_id ASC"
	if limit > 0 {
		base += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load snapshots", func() error {
		var qErr error
		rows, qErr = s.db.Query(base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			tsRaw      string
			durationMS int64
			snapshot   Snapshot
		)
		if err := rows.Scan(
			&snapshot.RunID,
			&snapshot.SchemaVersion,
			&snapshot.Destination,
			&tsRaw,
			&durationMS,
			&snapshot.Outcome,
			&snapshot.FilesScanned,
			&snapshot.FilesEmitted,
			&snapshot.FilesFailed,
			&snapshot.TypesIndexed,
			&snapshot.PackagesIndexed,
			&snapshot.AmbiguousCount,
			&snapshot.DuplicateCount,
			&snapshot.UnresolvedCount,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
		}
		snapshot.Timestamp = ts.UTC()
		snapshot.Duration = time.Duration(durationMS) * time.Millisecond
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}
