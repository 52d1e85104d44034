// Package scanner discovers the inputs of a run in a project tree:
//
//   - field dictionaries at schemas/<name>/README.md
//   - entity records at data/<year>/<type>/<facility>/data.json
//   - payload envelopes written next to those records
//
// The scanner works through filesystem.FileSystemProvider, so tests run
// against an in-memory tree.
package scanner
