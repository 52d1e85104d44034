// Package sqlite upserts payload envelopes into a single-file SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/hfsrb/hfsrb/internal/retry"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

const Name = "sqlite"

var identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Sink keeps one row per entity, keyed by entity ID. A row is only touched
// when the envelope checksum changes.
type Sink struct {
	db       *sql.DB
	table    string
	executor *retry.Executor
}

// Open creates the database file and table when missing.
func Open(ctx context.Context, path, table string) (*Sink, error) {
	if !identifierRE.MatchString(table) {
		return nil, fmt.Errorf("%w: sqlite table %q is not a plain identifier", hfsrb.ErrInvalidConfig, table)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; concurrent workers queue on the pool.
	db.SetMaxOpenConns(1)

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		entity_id     TEXT PRIMARY KEY,
		year          INTEGER NOT NULL,
		facility_type TEXT NOT NULL,
		facility_id   TEXT NOT NULL,
		schema_path   TEXT NOT NULL,
		source_path   TEXT NOT NULL,
		checksum      TEXT NOT NULL,
		document      TEXT NOT NULL,
		updated_at    TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
	)`, table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create %s table: %w", table, err)
	}

	return &Sink{
		db:       db,
		table:    table,
		executor: retry.NewExecutor(retry.NewSQLiteClassifier(), retry.NewExponentialBackoff(5)),
	}, nil
}

func (s *Sink) Name() string { return Name }

func (s *Sink) Write(ctx context.Context, p hfsrb.StoredPayload) error {
	query := fmt.Sprintf(`INSERT INTO %s
		(entity_id, year, facility_type, facility_id, schema_path, source_path, checksum, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			year = excluded.year,
			facility_type = excluded.facility_type,
			facility_id = excluded.facility_id,
			schema_path = excluded.schema_path,
			source_path = excluded.source_path,
			checksum = excluded.checksum,
			document = excluded.document,
			updated_at = strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now')
		WHERE checksum <> excluded.checksum`, s.table)

	return s.executor.Execute(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, query,
			p.EntityID.String(), p.Year, p.FacilityType, p.FacilityID,
			p.Schema, p.SourcePath, p.Checksum, string(p.Document))
		return err
	})
}

// Document returns the stored envelope and its checksum.
func (s *Sink) Document(ctx context.Context, entityID string) (document []byte, checksum string, err error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT document, checksum FROM %s WHERE entity_id = ?`, s.table), entityID)
	var doc string
	if err := row.Scan(&doc, &checksum); err != nil {
		return nil, "", err
	}
	return []byte(doc), checksum, nil
}

func (s *Sink) Close() error { return s.db.Close() }
