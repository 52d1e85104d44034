package services

import (
	"encoding/json"
	"fmt"

	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// SchemaResolutionError reports a schema named by a mapping that cannot be
// read or parsed.
type SchemaResolutionError struct {
	Schema  string
	Mapping string
	Err     error
}

func (e *SchemaResolutionError) Error() string {
	if e.Mapping == "" {
		return fmt.Sprintf("schema %s: %v", e.Schema, e.Err)
	}
	return fmt.Sprintf("schema %s (from mapping %s): %v", e.Schema, e.Mapping, e.Err)
}

func (e *SchemaResolutionError) Unwrap() error {
	return hfsrb.ErrSchemaResolution
}

// ItemError is one failed item in a batch report.
type ItemError struct {
	Path string
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

func (e ItemError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Path  string `json:"path"`
		Error string `json:"error"`
		Exit  int    `json:"exit_code"`
	}{e.Path, e.Err.Error(), hfsrb.ExitCodeForError(e.Err)})
}
