// Package filesystem abstracts the project tree that hfsrb reads dictionaries,
// mappings and facility records from, and writes compiled schemas and
// payload envelopes to.
//
// Implementations:
//   - OSFileSystem: the real filesystem, with atomic writes
//   - MemoryFileSystem: an in-memory tree for tests
package filesystem
