package variant

import (
	"sort"
	"strings"

	"github.com/hfsrb/hfsrb/internal/jsonvalue"
)

// DefaultTarget is the schema suffix chosen when an entity carries no tag.
const DefaultTarget = "-short.schema.json"

// Rule configures variants for one facility type.
type Rule struct {
	// MetaKey is the entity metadata key holding the tag, e.g. "ahq_variant".
	MetaKey string `yaml:"meta_key"`
	// DefaultTarget is the candidate suffix used when no tag is present.
	DefaultTarget string `yaml:"default_target,omitempty"`
	// Targets maps a tag to its canonical schema file suffix. Tags without an
	// entry target "<tag>.schema.json".
	Targets map[string]string `yaml:"targets,omitempty"`
	// Tagging derives the tag from fields when the entity has none.
	Tagging *Tagging `yaml:"tagging,omitempty"`
}

// Tagging derives a tag either from a single threshold or from categories
// detected by field-name prefixes.
type Tagging struct {
	Threshold  *Threshold `yaml:"threshold,omitempty"`
	Categories []Category `yaml:"categories,omitempty"`
	Fallback   string     `yaml:"fallback,omitempty"`
}

// Threshold tags by the first parseable value among Fields.
type Threshold struct {
	Fields []string `yaml:"fields"`
	Min    int64    `yaml:"min"`
	Above  string   `yaml:"above"`
	Below  string   `yaml:"below"`
	// RecordAs, when set, names the metadata key the measured value is stored under.
	RecordAs string `yaml:"record_as,omitempty"`
}

// Category applies when any field name starts with one of Prefixes.
// It yields Tag, or evaluates Threshold when Tag is empty.
type Category struct {
	Name      string     `yaml:"name"`
	Prefixes  []string   `yaml:"prefixes"`
	Tag       string     `yaml:"tag,omitempty"`
	Threshold *Threshold `yaml:"threshold,omitempty"`
}

// Rules holds the per-type rules, keyed by lowercased facility type.
type Rules map[string]Rule

// NewRules normalizes the keys of byType.
func NewRules(byType map[string]Rule) Rules {
	r := make(Rules, len(byType))
	for t, rule := range byType {
		r[strings.ToLower(strings.TrimSpace(t))] = rule
	}
	return r
}

// For returns the rule for a facility type.
func (r Rules) For(facilityType string) (Rule, bool) {
	rule, ok := r[strings.ToLower(strings.TrimSpace(facilityType))]
	return rule, ok
}

// Types lists the facility types that have variants, sorted.
func (r Rules) Types() []string {
	types := make([]string, 0, len(r))
	for t := range r {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// TagOf returns the entity's current tag for facilityType, or "".
func (r Rules) TagOf(facilityType string, meta *jsonvalue.Object) string {
	rule, ok := r.For(facilityType)
	if !ok || rule.MetaKey == "" || meta == nil {
		return ""
	}
	v, ok := meta.Get(rule.MetaKey)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.Text())
}
