package variant

import "strings"

// Candidates splits a "|"-delimited schema list, dropping blank entries.
func Candidates(schemas string) []string {
	var out []string
	for _, part := range strings.Split(schemas, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Target returns the schema suffix that tag selects under rule.
func (rule Rule) Target(tag string) string {
	if tag == "" {
		if rule.DefaultTarget != "" {
			return rule.DefaultTarget
		}
		return DefaultTarget
	}
	if t, ok := rule.Targets[tag]; ok && t != "" {
		return t
	}
	return tag + ".schema.json"
}

// Select chooses one schema path from schemas. A single candidate is returned
// as is; otherwise the first candidate ending with the tag's target wins,
// falling back to the first candidate.
func Select(schemas, tag string, rule Rule) string {
	candidates := Candidates(schemas)
	switch len(candidates) {
	case 0:
		return ""
	case 1:
		return candidates[0]
	}

	target := rule.Target(tag)
	for _, c := range candidates {
		if strings.HasSuffix(c, target) {
			return c
		}
	}
	return candidates[0]
}
