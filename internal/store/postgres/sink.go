// Package postgres upserts payload envelopes into a PostgreSQL table as jsonb.
package postgres

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hfsrb/hfsrb/internal/retry"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

const Name = "postgres"

var identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// DB is the subset of *pgxpool.Pool the sink uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Sink keeps one row per entity. Rows are only rewritten when the envelope
// checksum changes, so re-running a batch leaves updated_at untouched.
type Sink struct {
	db       DB
	table    string
	executor *retry.Executor
}

// New wraps db. table may be schema-qualified.
func New(db DB, table string, maxAttempts int) (*Sink, error) {
	if db == nil {
		panic("db cannot be nil")
	}
	if !identifierRE.MatchString(table) {
		return nil, fmt.Errorf("%w: postgres table %q is not a plain identifier", hfsrb.ErrInvalidConfig, table)
	}
	return &Sink{
		db:       db,
		table:    quoteTable(table),
		executor: retry.NewExecutor(retry.NewPostgresClassifier(), retry.NewExponentialBackoff(maxAttempts)),
	}, nil
}

func quoteTable(table string) string {
	for i := 0; i < len(table); i++ {
		if table[i] == '.' {
			return pgx.Identifier{table[:i], table[i+1:]}.Sanitize()
		}
	}
	return pgx.Identifier{table}.Sanitize()
}

// EnsureSchema creates the payload table when missing.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		entity_id     uuid PRIMARY KEY,
		year          integer NOT NULL,
		facility_type text NOT NULL,
		facility_id   text NOT NULL,
		schema_path   text NOT NULL,
		source_path   text NOT NULL,
		checksum      text NOT NULL,
		document      jsonb NOT NULL,
		updated_at    timestamptz NOT NULL DEFAULT now()
	)`, s.table))
	if err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

func (s *Sink) Name() string { return Name }

func (s *Sink) Write(ctx context.Context, p hfsrb.StoredPayload) error {
	query := fmt.Sprintf(`INSERT INTO %[1]s AS t
		(entity_id, year, facility_type, facility_id, schema_path, source_path, checksum, document)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
		ON CONFLICT (entity_id) DO UPDATE SET
			year = EXCLUDED.year,
			facility_type = EXCLUDED.facility_type,
			facility_id = EXCLUDED.facility_id,
			schema_path = EXCLUDED.schema_path,
			source_path = EXCLUDED.source_path,
			checksum = EXCLUDED.checksum,
			document = EXCLUDED.document,
			updated_at = now()
		WHERE t.checksum IS DISTINCT FROM EXCLUDED.checksum`, s.table)

	return s.executor.Execute(ctx, func(ctx context.Context) error {
		_, err := s.db.Exec(ctx, query,
			p.EntityID, p.Year, p.FacilityType, p.FacilityID,
			p.Schema, p.SourcePath, p.Checksum, string(p.Document))
		return err
	})
}

// Checksum returns the stored checksum for an entity.
func (s *Sink) Checksum(ctx context.Context, entityID any) (string, error) {
	var sum string
	err := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT checksum FROM %s WHERE entity_id = $1`, s.table), entityID).Scan(&sum)
	return sum, err
}

func (s *Sink) Close() error {
	s.db.Close()
	return nil
}
