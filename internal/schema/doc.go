// Package schema compiles field dictionaries into JSON Schema (draft-07)
// documents and derives their permissive ingestion variants.
//
// Compile and Relax are pure functions of their input and configuration:
// identical input yields byte-identical output once serialized with
// jsonvalue.MarshalIndent. Property order follows dictionary row order.
//
// Relax only ever removes keywords. Anything that validates against a
// compiled schema also validates against its relaxed form.
package schema
