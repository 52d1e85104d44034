// Package jsonvalue provides an order-preserving JSON value model and a
// recursive visitor over it.
//
// A Value is a tagged variant of exactly three kinds:
//
//   - KindObject: string keys in insertion order mapped to values
//   - KindArray: an ordered list of values
//   - KindScalar: null, a boolean, a json.Number or a string
//
// Schemas, mapping documents, entity metadata and payloads are all held as
// Values so that documents round-trip with their authored key order intact
// and serialize byte-identically for identical input.
//
// Walk visits every node pre-order without modifying it. Rewrite rebuilds the
// tree post-order and hands each freshly built node to a callback, which makes
// structural transforms (such as stripping keywords at every nesting level)
// pure functions of their input.
package jsonvalue
