package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls  []execCall
	errs   []error
	closed bool
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (f *fakeDB) Close() { f.closed = true }

func TestNew_TableValidation(t *testing.T) {
	tests := []struct {
		table   string
		wantErr bool
		quoted  string
	}{
		{"facility_payloads", false, `"facility_payloads"`},
		{"hfsrb.payloads", false, `"hfsrb"."payloads"`},
		{"payloads; drop table x", true, ""},
		{"", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			s, err := New(&fakeDB{}, tt.table, 0)
			if tt.wantErr {
				assert.True(t, errors.Is(err, hfsrb.ErrInvalidConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.quoted, s.table)
		})
	}
}

func TestSink_WriteUpserts(t *testing.T) {
	db := &fakeDB{}
	s, err := New(db, "facility_payloads", 0)
	require.NoError(t, err)

	id := uuid.New()
	p := hfsrb.StoredPayload{EntityID: id, Year: 2024, FacilityType: "ESRD", FacilityID: "0000042",
		Schema: "s.json", SourcePath: "d.json", Document: []byte(`{"a":1}`), Checksum: "abc"}
	require.NoError(t, s.Write(context.Background(), p))

	require.Len(t, db.calls, 1)
	call := db.calls[0]
	assert.True(t, strings.Contains(call.sql, `INSERT INTO "facility_payloads" AS t`))
	assert.Contains(t, call.sql, "WHERE t.checksum IS DISTINCT FROM EXCLUDED.checksum")
	assert.Equal(t, []any{id, 2024, "ESRD", "0000042", "s.json", "d.json", "abc", `{"a":1}`}, call.args)
}

func TestSink_WriteRetriesTransientErrors(t *testing.T) {
	db := &fakeDB{errs: []error{&pgconn.PgError{Code: "40P01"}}}
	s, err := New(db, "facility_payloads", 2)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), hfsrb.StoredPayload{}))
	assert.Len(t, db.calls, 2)
}

func TestSink_WriteFatalError(t *testing.T) {
	fatal := &pgconn.PgError{Code: "42501", Message: "permission denied"}
	db := &fakeDB{errs: []error{fatal}}
	s, err := New(db, "facility_payloads", 3)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Write(context.Background(), hfsrb.StoredPayload{}), fatal)
	assert.Len(t, db.calls, 1)
}

func TestSink_EnsureSchemaAndClose(t *testing.T) {
	db := &fakeDB{}
	s, err := New(db, "hfsrb.payloads", 0)
	require.NoError(t, err)

	require.NoError(t, s.EnsureSchema(context.Background()))
	assert.Contains(t, db.calls[0].sql, `CREATE TABLE IF NOT EXISTS "hfsrb"."payloads"`)
	assert.Contains(t, db.calls[0].sql, "document      jsonb NOT NULL")

	require.NoError(t, s.Close())
	assert.True(t, db.closed)
}
