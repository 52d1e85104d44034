package schema

import (
	"path"
	"strings"

	"github.com/hfsrb/hfsrb/internal/jsonvalue"
)

// role classifies what a node of a schema document is.
type role int

const (
	roleSchema     role = iota // a (sub)schema object
	roleSchemaMap              // name -> schema, e.g. "properties"
	roleSchemaList             // list of schemas, e.g. "allOf"
	roleData                   // keyword payload such as enum, default, examples
)

// schemaMapKeywords hold objects whose members are schemas keyed by name.
var schemaMapKeywords = map[string]bool{
	"properties":        true,
	"patternProperties": true,
	"definitions":       true,
	"$defs":             true,
}

// subschemaKeywords hold a single schema (or, for items, a list of schemas).
var subschemaKeywords = map[string]bool{
	"items":                true,
	"additionalItems":      true,
	"additionalProperties": true,
	"contains":             true,
	"propertyNames":        true,
	"not":                  true,
	"if":                   true,
	"then":                 true,
	"else":                 true,
}

var schemaListKeywords = map[string]bool{
	"allOf": true,
	"anyOf": true,
	"oneOf": true,
}

func classify(p jsonvalue.Path) role {
	r := roleSchema
	for _, seg := range p {
		switch r {
		case roleSchema:
			switch {
			case strings.HasPrefix(seg, "["):
				// tuple-form items
			case schemaMapKeywords[seg]:
				r = roleSchemaMap
			case subschemaKeywords[seg]:
			case schemaListKeywords[seg]:
				r = roleSchemaList
			default:
				r = roleData
			}
		case roleSchemaMap, roleSchemaList:
			r = roleSchema
		case roleData:
			return roleData
		}
	}
	return r
}

// Relax derives the ingestion variant of a compiled schema:
//   - "required" is removed from every schema object at every depth;
//   - properties named by cfg.NoisyFields lose "pattern" and "format";
//   - integer/number properties with a string-valued enum lose "enum";
//   - properties named by cfg.FreeTextFields lose "enum".
//
// The input is not modified.
func Relax(compiled jsonvalue.Value, cfg RelaxConfig) jsonvalue.Value {
	return jsonvalue.Rewrite(compiled, func(p jsonvalue.Path, v jsonvalue.Value) jsonvalue.Value {
		obj, ok := v.AsObject()
		if !ok || classify(p) != roleSchema {
			return v
		}

		obj.Delete("required")

		parent := p.Parent()
		if len(p) > 0 && parent.Last() == "properties" && classify(parent) == roleSchemaMap {
			relaxProperty(p.Last(), obj, cfg)
		}
		return v
	})
}

func relaxProperty(name string, prop *jsonvalue.Object, cfg RelaxConfig) {
	if matchesAny(cfg.NoisyFields, name) {
		prop.Delete("pattern")
		prop.Delete("format")
	}

	if isNumeric(prop) && hasStringEnum(prop) {
		prop.Delete("enum")
	}

	if matchesAny(cfg.FreeTextFields, name) {
		prop.Delete("enum")
	}
}

func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if pattern == name {
			return true
		}
		if ok, err := path.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

func isNumeric(prop *jsonvalue.Object) bool {
	for _, t := range Types(prop) {
		if t == "integer" || t == "number" {
			return true
		}
	}
	return false
}

func hasStringEnum(prop *jsonvalue.Object) bool {
	enum, ok := prop.Get("enum")
	if !ok {
		return false
	}
	items, _ := enum.AsArray()
	for _, item := range items {
		if _, isString := item.AsString(); isString {
			return true
		}
	}
	return false
}

// WithoutFormat returns a copy of doc with "format" removed from every schema
// object. Validation treats format as an annotation; properties that happen
// to be named "format" are kept.
func WithoutFormat(doc jsonvalue.Value) jsonvalue.Value {
	return jsonvalue.Rewrite(doc, func(p jsonvalue.Path, v jsonvalue.Value) jsonvalue.Value {
		if obj, ok := v.AsObject(); ok && classify(p) == roleSchema {
			obj.Delete("format")
		}
		return v
	})
}
