package symbols

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

const symbolSchema = `
DROP TABLE IF EXISTS types;
DROP TABLE IF EXISTS packages;
CREATE TABLE packages (
  package_name TEXT PRIMARY KEY,
  type_count   INTEGER NOT NULL
);
CREATE TABLE types (
  qualified_name TEXT PRIMARY KEY,
  simple_name    TEXT NOT NULL,
  package_name   TEXT NOT NULL REFERENCES packages(package_name),
  kind           TEXT NOT NULL,
  output_path    TEXT NOT NULL,
  source_path    TEXT NOT NULL,
  line_number    INTEGER NOT NULL
);
CREATE INDEX idx_types_simple_name ON types(simple_name);
`

// ExportSQLite writes the table to a SQLite database at path, replacing any
// previous export.
func ExportSQLite(ctx context.Context, path string, table *Table) error {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return fmt.Errorf("symbol db path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return fmt.Errorf("symbol db path %q is a directory, expected file", cleanPath)
	}
	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create symbol db directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return fmt.Errorf("open sqlite symbol db %q: %w", cleanPath, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin symbol export: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, symbolSchema); err != nil {
		return fmt.Errorf("create symbol schema: %w", err)
	}

	pkgStmt, err := tx.PrepareContext(ctx, `INSERT INTO packages(package_name, type_count) VALUES(?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare package insert: %w", err)
	}
	defer pkgStmt.Close()

	typeStmt, err := tx.PrepareContext(ctx, `INSERT INTO types(
  qualified_name, simple_name, package_name, kind, output_path, source_path, line_number
) VALUES(?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare type insert: %w", err)
	}
	defer typeStmt.Close()

	for _, pkg := range table.Packages() {
		entries := table.Package(pkg)
		if _, err := pkgStmt.ExecContext(ctx, pkg, len(entries)); err != nil {
			return fmt.Errorf("insert package %q: %w", pkg, err)
		}
		for _, e := range entries {
			if _, err := typeStmt.ExecContext(ctx,
				e.QualifiedName, e.SimpleName, e.PackageName, string(e.Kind),
				filepath.ToSlash(e.OutputPath), filepath.ToSlash(e.SourcePath), e.Line,
			); err != nil {
				return fmt.Errorf("insert type %q: %w", e.QualifiedName, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit symbol export: %w", err)
	}
	return nil
}
