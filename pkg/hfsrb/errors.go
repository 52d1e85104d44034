package hfsrb

import (
	"errors"
	"strings"
)

// Sentinel errors for the failure classes of a compile or mapping run.
// Typed errors in the internal packages unwrap to one of these so callers
// can classify failures with errors.Is().
//
// Example usage:
//
//	_, err := loader.Resolve("Hospital", 2024, "")
//	if errors.Is(err, hfsrb.ErrConfiguration) {
//	    // no mapping document for this combination, skip the item
//	}
var (
	// ErrInvalidConfig indicates the project configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfigNotFound indicates hfsrb.yaml does not exist in the project root.
	ErrConfigNotFound = errors.New("hfsrb.yaml not found")

	// ErrConfiguration indicates no mapping document resolves for a facility type, year and variant.
	ErrConfiguration = errors.New("mapping not found")

	// ErrSchemaResolution indicates a schema path named by a mapping is missing or unreadable.
	ErrSchemaResolution = errors.New("schema resolution failed")

	// ErrValidation indicates a payload does not satisfy its schema.
	ErrValidation = errors.New("validation failed")

	// ErrMalformedInput indicates a dictionary table or JSON document could not be parsed.
	ErrMalformedInput = errors.New("malformed input")

	// ErrSinkFailed indicates a payload could not be persisted.
	ErrSinkFailed = errors.New("sink write failed")

	// ErrPartialFailure indicates a batch finished but some items failed.
	ErrPartialFailure = errors.New("batch completed with failures")
)

var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrConfiguration):
		return ExitMappingNotFound
	case errors.Is(err, ErrSchemaResolution):
		return ExitSchemaMissing
	case errors.Is(err, ErrValidation):
		return ExitValidationFailed
	case errors.Is(err, ErrMalformedInput):
		return ExitMalformedInput
	case errors.Is(err, ErrSinkFailed):
		return ExitSinkFailed
	case errors.Is(err, ErrPartialFailure):
		return ExitPartialFailure
	}

	errStr := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}
