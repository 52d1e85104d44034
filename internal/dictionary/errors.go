package dictionary

import (
	"fmt"

	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// ParseError describes a structural problem in a dictionary document.
type ParseError struct {
	FilePath string // Path of the dictionary
	Line     int    // 1-based line number (0 if unknown)
	Field    string // field_name involved, if any
	Message  string // Primary error message
	Hint     string // Actionable suggestion for fixing
}

func (e *ParseError) Error() string {
	location := e.FilePath
	if e.Line > 0 {
		location = fmt.Sprintf("%s (line %d)", e.FilePath, e.Line)
	}

	msg := fmt.Sprintf("dictionary error in %s: %s", location, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("dictionary error in %s [field: %s]: %s", location, e.Field, e.Message)
	}

	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return hfsrb.ErrMalformedInput
}
