package variant

import (
	"strings"

	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/internal/transform"
)

// Decision is the outcome of tagging one entity.
type Decision struct {
	Tag string
	// Category names the matched category, if any.
	Category string
	// Measure is the value a threshold was evaluated on; valid when Measured.
	Measure  int64
	Measured bool
	RecordAs string
}

// Tagger applies Rules to entities.
type Tagger struct {
	rules Rules
}

// NewTagger creates a tagger over rules.
func NewTagger(rules Rules) *Tagger {
	return &Tagger{rules: rules}
}

// Decide computes the tag for an entity of facilityType. ok is false when the
// type has no tagging rule.
func (t *Tagger) Decide(facilityType string, fields map[string]string) (Decision, bool) {
	rule, ok := t.rules.For(facilityType)
	if !ok || rule.Tagging == nil {
		return Decision{}, false
	}
	return rule.Tagging.decide(fields), true
}

// Annotate writes the decided tag, and the recorded measure if any, into
// meta. It reports whether meta changed.
func (t *Tagger) Annotate(facilityType string, fields map[string]string, meta *jsonvalue.Object) (Decision, bool) {
	rule, ok := t.rules.For(facilityType)
	if !ok || rule.MetaKey == "" || rule.Tagging == nil {
		return Decision{}, false
	}
	d := rule.Tagging.decide(fields)

	changed := false
	if cur, ok := meta.Get(rule.MetaKey); !ok || cur.Text() != d.Tag {
		meta.Set(rule.MetaKey, jsonvalue.String(d.Tag))
		changed = true
	}
	if d.Measured && d.RecordAs != "" {
		if cur, ok := meta.Get(d.RecordAs); !ok || cur.Text() != jsonvalue.Int(d.Measure).Text() {
			meta.Set(d.RecordAs, jsonvalue.Int(d.Measure))
			changed = true
		}
	}
	return d, changed
}

func (tg *Tagging) decide(fields map[string]string) Decision {
	for _, c := range tg.Categories {
		if !hasPrefixedField(fields, c.Prefixes) {
			continue
		}
		if c.Tag != "" || c.Threshold == nil {
			return Decision{Tag: c.Tag, Category: c.Name}
		}
		d := c.Threshold.decide(fields)
		d.Category = c.Name
		return d
	}
	if tg.Threshold != nil {
		return tg.Threshold.decide(fields)
	}
	return Decision{Tag: tg.Fallback}
}

// decide reads the first field that is present and parses as an integer.
// An unknown measure counts as below the threshold.
func (th *Threshold) decide(fields map[string]string) Decision {
	d := Decision{Tag: th.Below, RecordAs: th.RecordAs}
	for _, key := range th.Fields {
		value, ok := fields[key]
		if !ok {
			continue
		}
		if n, ok := transform.ParseInt(value); ok {
			d.Measure, d.Measured = n, true
			break
		}
	}
	if d.Measured && d.Measure >= th.Min {
		d.Tag = th.Above
	}
	return d
}

func hasPrefixedField(fields map[string]string, prefixes []string) bool {
	for key := range fields {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				return true
			}
		}
	}
	return false
}
