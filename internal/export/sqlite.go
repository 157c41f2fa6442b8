package export

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver

	"github.com/erzurum-ulasim/routegeom/internal/logging"
)

//go:embed schema.sql
var ddl string

// SQLiteExporter writes the collection to a fresh SQLite database. The file
// is built under a temporary name and renamed over Path once complete.
type SQLiteExporter struct {
	Path string
}

func (e *SQLiteExporter) Export(ctx context.Context, c Collection) error {
	if IsGzip(e.Path) {
		return fmt.Errorf("export sqlite: compressed output is not supported: %s", e.Path)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(e.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(e.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary database for %s: %w", e.Path, err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	if err := writeDatabase(ctx, tmpPath, c); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, e.Path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", e.Path, err)
	}
	return nil
}

func writeDatabase(ctx context.Context, path string, c Collection) error {
	logger := slog.Default().With(slog.String("component", "sqlite_export"))

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening export database: %w", err)
	}
	defer logging.SafeCloseWithLogging(db, logger, "export_database")

	if err := performMigration(ctx, db); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer logging.SafeRollbackWithLogging(tx, logger, "export_lines")

	lineStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO lines (position, name, points, length_m, encoded) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(lineStmt, logger, "lines_statement")

	pointStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO points (line_position, seq, lat, lng) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer logging.SafeCloseWithLogging(pointStmt, logger, "points_statement")

	for i, l := range c.Lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := lineStmt.ExecContext(ctx, i, l.Name, len(l.Coords), l.Length(), l.Encode()); err != nil {
			return fmt.Errorf("inserting line %s: %w", l.Name, err)
		}
		for seq, p := range l.Coords {
			if _, err := pointStmt.ExecContext(ctx, i, seq, p.Lat, p.Lng); err != nil {
				return fmt.Errorf("inserting point %d of %s: %w", seq, l.Name, err)
			}
		}
	}

	for _, m := range c.Missing {
		for pos, id := range m.StopIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO missing_stops (line, position, stop_id) VALUES (?, ?, ?)`,
				m.Line, pos, id); err != nil {
				return fmt.Errorf("inserting missing stop %s: %w", id, err)
			}
		}
	}

	generatedAt := c.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES ('generated_at', ?)`,
		generatedAt.UTC().Format(time.RFC3339)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logging.LogOperation(logger, "sqlite_export_written",
		slog.String("path", path),
		slog.Int("lines", len(c.Lines)),
		slog.Int("missing", c.MissingCount()))
	return nil
}

func performMigration(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(ddl, "-- migrate") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", stmt, err)
		}
	}
	return nil
}
