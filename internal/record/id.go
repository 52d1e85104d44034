package record

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Namespace scopes entity IDs. Changing it re-keys every stored payload.
var Namespace = uuid.MustParse("4a1f3c2e-8d5b-5e7a-9c61-2f0b7d9e4a13")

// EntityID derives a stable identifier for one facility-year, so that
// re-running a mapping overwrites the same stored payload.
func EntityID(facilityType string, year int, facilityID string) uuid.UUID {
	name := strings.ToLower(strings.TrimSpace(facilityType)) + "/" + strconv.Itoa(year) + "/" + strings.TrimSpace(facilityID)
	return uuid.NewSHA1(Namespace, []byte(name))
}

// ID returns the entity's stable identifier.
func (e *Entity) ID() uuid.UUID {
	return EntityID(e.FacilityType(), e.Year(), e.FacilityID())
}
