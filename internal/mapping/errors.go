package mapping

import (
	"fmt"
	"strings"

	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// ConfigurationError reports that no mapping document resolves for an entity.
type ConfigurationError struct {
	FacilityType string
	Year         int
	Variant      string
	Dir          string
	Candidates   []string
}

func (e *ConfigurationError) Error() string {
	subject := fmt.Sprintf("%s %d", e.FacilityType, e.Year)
	if e.Variant != "" {
		subject += fmt.Sprintf(" (variant %s)", e.Variant)
	}
	return fmt.Sprintf("no mapping for %s in %s; tried %s", subject, e.Dir, strings.Join(e.Candidates, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return hfsrb.ErrConfiguration
}

// DocumentError reports a mapping document that does not have the expected shape.
type DocumentError struct {
	Path    string
	Rule    string
	Message string
}

func (e *DocumentError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("mapping %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("mapping %s: %s: %s", e.Path, e.Rule, e.Message)
}

func (e *DocumentError) Unwrap() error {
	return hfsrb.ErrMalformedInput
}
