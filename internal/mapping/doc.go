// Package mapping resolves and executes mapping documents: the declarative
// rulesets that turn one entity's raw survey fields into the properties of
// its target schema.
//
// Rules run in a fixed order (direct, const, meta, sum, arrays, transforms)
// and later rules overwrite destinations written by earlier ones.
package mapping
