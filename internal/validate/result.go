package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

// Rule names the schema keyword a violation failed. Keywords without a
// constant here are reported under their own name.
type Rule string

const (
	RuleType     Rule = "type"
	RulePattern  Rule = "pattern"
	RuleRequired Rule = "required"
	RuleEnum     Rule = "enum"
	RuleMinimum  Rule = "minimum"
	RuleMaximum  Rule = "maximum"
	RuleSchema   Rule = "schema"
)

// Violation is one failed check.
type Violation struct {
	Path    string `json:"path"`
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	path := v.Path
	if path == "" {
		path = "(root)"
	}
	return fmt.Sprintf("%s: %s", path, v.Message)
}

// Result collects the violations of one validation.
type Result struct {
	Valid      bool        `json:"valid"`
	Violations []Violation `json:"violations"`
}

func newResult() Result {
	return Result{Valid: true, Violations: []Violation{}}
}

// AddViolation records a failure and marks the result invalid.
func (r *Result) AddViolation(path string, rule Rule, format string, args ...interface{}) {
	r.Valid = false
	r.Violations = append(r.Violations, Violation{
		Path:    path,
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *Result) HasViolations() bool {
	return len(r.Violations) > 0
}

// ErrorString joins all violations with semicolons.
func (r *Result) ErrorString() string {
	parts := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

func (r *Result) sort() {
	sort.SliceStable(r.Violations, func(i, j int) bool {
		a, b := r.Violations[i], r.Violations[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Rule < b.Rule
	})
}

// Error reports a failed validation. It unwraps to hfsrb.ErrValidation.
type Error struct {
	Schema     string
	Violations []Violation
}

func (e *Error) Error() string {
	r := Result{Violations: e.Violations}
	return fmt.Sprintf("%d violation(s) against %s: %s", len(e.Violations), e.Schema, r.ErrorString())
}

func (e *Error) Unwrap() error {
	return hfsrb.ErrValidation
}

// AsError returns nil for a valid result and an *Error otherwise.
func AsError(schemaPath string, r Result) error {
	if !r.HasViolations() {
		return nil
	}
	return &Error{Schema: schemaPath, Violations: r.Violations}
}
