// Package record loads per-facility entity records (data.json) and builds
// the payload envelopes written back next to them.
package record
