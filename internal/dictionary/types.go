package dictionary

import "strings"

// Column names of the fields table.
const (
	ColFieldID       = "field_id"
	ColFieldLabel    = "field_label"
	ColFieldName     = "field_name"
	ColType          = "type"
	ColRequired      = "required"
	ColAllowedValues = "allowed_values"
	ColFormat        = "format"
	ColUnit          = "unit"
	ColSection       = "section/page"
	ColNotes         = "notes"
)

// Columns is the documented header of the fields table, in order.
var Columns = []string{
	ColFieldID, ColFieldLabel, ColFieldName, ColType, ColRequired,
	ColAllowedValues, ColFormat, ColUnit, ColSection, ColNotes,
}

// FieldSpec is one row of the fields table.
type FieldSpec struct {
	ID            string
	Label         string
	Name          string
	Type          string
	Required      bool
	AllowedValues string
	Format        string
	Unit          string
	Section       string
	Notes         string

	// Line is the 1-based source line of the row.
	Line int
}

// EnumSet is a named, ordered list of canonical codes.
type EnumSet struct {
	Name  string
	Codes []string
}

// Dictionary is a parsed field dictionary.
type Dictionary struct {
	Path   string
	Title  string
	Fields []FieldSpec
	Enums  []EnumSet
}

// Enum returns the codes of the named set. Lookup is case-insensitive and
// treats spaces as underscores.
func (d *Dictionary) Enum(name string) ([]string, bool) {
	key := EnumKey(name)
	for _, set := range d.Enums {
		if set.Name == key {
			return set.Codes, true
		}
	}
	return nil, false
}

// EnumKey normalizes an enumeration heading or reference to its lookup key.
func EnumKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
