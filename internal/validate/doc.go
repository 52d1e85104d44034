// Package validate checks payloads against compiled JSON Schema documents.
//
// Schemas are compiled with santhosh-tekuri/jsonschema as draft-07 unless
// they declare otherwise. "format" is stripped before compilation so it stays
// an annotation, and x_* display keywords are ignored. Each leaf of the
// library's error tree becomes one Violation named after its keyword.
//
// Validation is diagnostic. A Validator never modifies the instance and its
// result never decides whether a payload is persisted.
package validate
