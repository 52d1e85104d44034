package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfsrb/hfsrb/internal/files/filesystem"
	"github.com/hfsrb/hfsrb/internal/files/scanner"
)

func identityFields(facilityType string) []string {
	switch facilityType {
	case "Hospital":
		return []string{"facility_name", "fein", "medicare_ccn"}
	case "ESRD":
		return []string{"facility_name"}
	}
	return nil
}

func TestIdentity(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/project")
	mfs.AddFile("data/2024/Hospital/a/data.json", "{}")
	mfs.AddFile("data/2024/Hospital/a/schema_payload.json",
		`{"payload": {"facility_name": "Mercy", "fein": "12-3456789", "medicare_ccn": "140001"}}`)
	mfs.AddFile("data/2024/Hospital/b/data.json", "{}")
	mfs.AddFile("data/2024/Hospital/b/schema_payload.json",
		`{"payload": {"facility_name": "  ", "fein": null}}`)
	mfs.AddFile("data/2023/ESRD/c/data.json", "{}")
	mfs.AddFile("data/2023/ESRD/c/schema_payload.json", `{"payload": {}}`)
	mfs.AddFile("data/2023/LTC/d/data.json", "{}")
	mfs.AddFile("data/2023/LTC/d/schema_payload.json", `{"payload": {}}`)
	mfs.AddFile("data/2023/ESRD/e/data.json", "{}")
	mfs.AddFile("data/2023/ESRD/e/schema_payload.json", `{"payload": [`)

	r, err := Identity(context.Background(), mfs, "/project/data", scanner.Filter{}, identityFields)
	require.NoError(t, err)

	assert.Equal(t, 3, r.Checked, "LTC has no identity fields and e is unreadable")
	assert.False(t, r.Complete())
	assert.Equal(t, []string{"/project/data/2023/ESRD/e/schema_payload.json"}, r.Unreadable)

	require.Len(t, r.Gaps, 2)
	assert.Equal(t, IdentityGap{
		Path:         "/project/data/2023/ESRD/c/schema_payload.json",
		FacilityType: "ESRD",
		Year:         2023,
		Facility:     "c",
		Missing:      []string{"facility_name"},
	}, r.Gaps[0])
	assert.Equal(t, []string{"facility_name", "fein", "medicare_ccn"}, r.Gaps[1].Missing)

	assert.Equal(t, map[string]int{"facility_name": 2, "fein": 1, "medicare_ccn": 1}, r.MissingByField)
	assert.Equal(t, []string{"facility_name", "fein", "medicare_ccn"}, r.Fields())
}

func TestIdentity_Filter(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/project")
	mfs.AddFile("data/2024/Hospital/a/data.json", "{}")
	mfs.AddFile("data/2024/Hospital/a/schema_payload.json", `{"payload": {}}`)

	r, err := Identity(context.Background(), mfs, "/project/data", scanner.Filter{Years: []int{2020}}, identityFields)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Checked)
	assert.True(t, r.Complete())
}
