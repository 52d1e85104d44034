package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/internal/transform"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// Metadata keys written by the ingestion step.
const (
	MetaYear                 = "year"
	MetaFacilityType         = "facility_type"
	MetaFacilityID           = "facility_id"
	MetaFacilityIDNormalized = "facility_id_normalized"
	MetaFacilityName         = "facility_name"
)

// Location is where a record sits in the data tree:
// data/<year>/<type>/<facility>/data.json.
type Location struct {
	Year         int
	FacilityType string
	Facility     string
}

// Entity is one facility's survey answers for one year.
type Entity struct {
	Path     string
	Location Location
	Fields   map[string]string
	Meta     *jsonvalue.Object

	doc *jsonvalue.Object
}

// DecodeOptions controls Decode.
type DecodeOptions struct {
	// NormalizeKeys rewrites field keys with NormalizeKey.
	NormalizeKeys bool
}

// DecodeError reports a data.json that is not a record.
type DecodeError struct {
	Path    string
	Message string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("record %s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("record %s: %s", e.Path, e.Message)
}

func (e *DecodeError) Unwrap() error {
	return hfsrb.ErrMalformedInput
}

// Decode parses a record document. Non-string field values are kept as their
// JSON text; null becomes "". Keys that collide after normalization keep the
// last value in document order.
func Decode(path string, loc Location, data []byte, opts DecodeOptions) (*Entity, error) {
	root, err := jsonvalue.Parse(data)
	if err != nil {
		return nil, &DecodeError{Path: path, Message: "invalid JSON", Err: err}
	}
	doc, ok := root.AsObject()
	if !ok {
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("root is a %s, not an object", root.Kind())}
	}

	e := &Entity{Path: path, Location: loc, Fields: map[string]string{}, doc: doc}

	if v, ok := doc.Get("fields"); ok && !v.IsNull() {
		fields, ok := v.AsObject()
		if !ok {
			return nil, &DecodeError{Path: path, Message: "fields must be an object"}
		}
		fields.Range(func(key string, v jsonvalue.Value) bool {
			if opts.NormalizeKeys {
				key = NormalizeKey(key)
			}
			e.Fields[key] = v.Text()
			return true
		})
	}

	e.Meta = jsonvalue.NewObject()
	if v, ok := doc.Get("meta"); ok && !v.IsNull() {
		meta, ok := v.AsObject()
		if !ok {
			return nil, &DecodeError{Path: path, Message: "meta must be an object"}
		}
		e.Meta = meta
	} else {
		doc.Set("meta", jsonvalue.ObjectOf(e.Meta))
	}

	return e, nil
}

// FacilityType returns meta.facility_type, falling back to the location.
func (e *Entity) FacilityType() string {
	if s := e.metaText(MetaFacilityType); s != "" {
		return s
	}
	return e.Location.FacilityType
}

// Year returns meta.year, falling back to the location.
func (e *Entity) Year() int {
	if n, err := strconv.Atoi(e.metaText(MetaYear)); err == nil {
		return n
	}
	return e.Location.Year
}

// FacilityID returns the normalized facility identifier: the ingested
// normalized id, else the digits of facility_id padded to seven, else the
// trimmed facility_id, else the facility directory name.
func (e *Entity) FacilityID() string {
	if s := e.metaText(MetaFacilityIDNormalized); s != "" {
		return s
	}
	raw := e.metaText(MetaFacilityID)
	if id, ok := transform.FacilityID(raw, transform.Options{}); ok {
		return id
	}
	if raw != "" {
		return raw
	}
	return e.Location.Facility
}

func (e *Entity) metaText(key string) string {
	v, ok := e.Meta.Get(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.Text())
}

// Encode renders the full record, including keys Decode does not interpret,
// with the current Meta.
func (e *Entity) Encode() ([]byte, error) {
	return jsonvalue.MarshalIndent(jsonvalue.ObjectOf(e.doc))
}
