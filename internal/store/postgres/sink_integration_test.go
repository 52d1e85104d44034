package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfsrb/hfsrb/internal/db"
	"github.com/hfsrb/hfsrb/internal/logging"
	"github.com/hfsrb/hfsrb/internal/store/postgres"
	"github.com/hfsrb/hfsrb/internal/testinfra"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

func TestSink_Integration(t *testing.T) {
	ctr := testinfra.Postgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	connector, err := db.NewConnector(db.Options{URL: ctr.ConnString, MaxAttempts: 2}, logging.NewNullLogger())
	require.NoError(t, err)
	pool, err := connector.Connect(ctx)
	require.NoError(t, err)

	sink, err := postgres.New(pool, "public.facility_payloads", 2)
	require.NoError(t, err)
	defer sink.Close()
	require.NoError(t, sink.EnsureSchema(ctx))
	require.NoError(t, sink.EnsureSchema(ctx), "EnsureSchema is idempotent")

	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("hospital/2024/0001234"))
	p := hfsrb.StoredPayload{
		EntityID:     id,
		Year:         2024,
		FacilityType: "Hospital",
		FacilityID:   "0001234",
		Schema:       "schemas/json/ahq-short.schema.json",
		SourcePath:   "/project/data/2024/Hospital/0001234-mercy/data.json",
		Document:     []byte(`{"meta": {}, "payload": {"facility_name": "Mercy"}}` + "\n"),
		Checksum:     "c1",
	}
	require.NoError(t, sink.Write(ctx, p))

	var name string
	var updated time.Time
	row := pool.QueryRow(ctx, `SELECT document->'payload'->>'facility_name', updated_at FROM public.facility_payloads WHERE entity_id = $1`, id)
	require.NoError(t, row.Scan(&name, &updated))
	assert.Equal(t, "Mercy", name)

	require.NoError(t, sink.Write(ctx, p))
	var again time.Time
	require.NoError(t, pool.QueryRow(ctx, `SELECT updated_at FROM public.facility_payloads WHERE entity_id = $1`, id).Scan(&again))
	assert.True(t, updated.Equal(again), "identical checksum leaves the row untouched")

	p.Document = []byte(`{"meta": {}, "payload": {"facility_name": "Mercy General"}}` + "\n")
	p.Checksum = "c2"
	require.NoError(t, sink.Write(ctx, p))

	sum, err := sink.Checksum(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "c2", sum)

	var rows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM public.facility_payloads`).Scan(&rows))
	assert.Equal(t, 1, rows)
}
