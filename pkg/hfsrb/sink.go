package hfsrb

import (
	"context"

	"github.com/google/uuid"
)

// StoredPayload is one rendered payload envelope ready for persistence.
type StoredPayload struct {
	// EntityID is the deterministic identity of the facility-year record.
	EntityID uuid.UUID

	Year         int
	FacilityType string
	FacilityID   string

	// Schema is the schema path the payload was mapped against.
	Schema string

	// SourcePath is the data.json the envelope was produced from.
	SourcePath string

	// Document is the indented envelope JSON, newline terminated.
	Document []byte

	// Checksum is the SHA-256 of the normalized Document.
	Checksum string
}

// PayloadSink persists payload envelopes.
// Implementations must be safe for concurrent use by multiple goroutines;
// each StoredPayload is written by exactly one goroutine.
type PayloadSink interface {
	// Name identifies the sink in logs and reports.
	Name() string

	// Write persists a payload. Writing identical content twice must be a no-op
	// in effect.
	Write(ctx context.Context, p StoredPayload) error

	// Close releases resources held by the sink.
	Close() error
}
