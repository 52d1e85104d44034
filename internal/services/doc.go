// Package services orchestrates the two phases of a run.
//
// Builder compiles every field dictionary into its schema and ingestion
// schema. Mapper then turns every entity record into a payload envelope:
// it resolves the mapping document and schema variant, applies the mapping,
// optionally validates the payload and hands the envelope to the sinks.
// Build runs both phases with the compile phase as a barrier.
//
// Per-item failures are collected in the returned reports and never abort a
// batch; only context cancellation stops one early.
package services
