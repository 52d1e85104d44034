package schema

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hfsrb/hfsrb/internal/dictionary"
	"github.com/hfsrb/hfsrb/internal/jsonvalue"
	"github.com/hfsrb/hfsrb/pkg/hfsrb"
)

const otherSection = "Other"

var passthroughTypes = map[string]bool{
	"string":  true,
	"integer": true,
	"number":  true,
	"boolean": true,
	"array":   true,
	"object":  true,
}

// Compile turns a parsed dictionary into a JSON Schema object.
// Zero-valued settings in cfg fall back to DefaultCompilerConfig.
func Compile(d *dictionary.Dictionary, cfg CompilerConfig) jsonvalue.Value {
	cfg = cfg.withDefaults()

	properties := jsonvalue.NewObject()
	var required []jsonvalue.Value

	sectionOrder := make(map[string]int)
	order := 0

	for _, field := range d.Fields {
		prop := compileProperty(field, d, cfg)

		order++
		prop.Set("x_order", jsonvalue.Int(int64(order)))

		section := otherSection
		if s, ok := prop.Get("x_section"); ok {
			section = s.Text()
		}
		if _, seen := sectionOrder[section]; !seen {
			sectionOrder[section] = len(sectionOrder) + 1
		}
		prop.Set("x_section_order", jsonvalue.Int(int64(sectionOrder[section])))

		if field.Required {
			prop.Set("x_required", jsonvalue.Bool(true))
			required = append(required, jsonvalue.String(field.Name))
		}

		properties.Set(field.Name, jsonvalue.ObjectOf(prop))
	}

	root := jsonvalue.NewObject()
	root.Set("$schema", jsonvalue.String(hfsrb.SchemaDialect))
	root.Set("title", jsonvalue.String(d.Title))
	root.Set("type", jsonvalue.String("object"))
	root.Set("properties", jsonvalue.ObjectOf(properties))
	if len(required) > 0 {
		root.Set("required", jsonvalue.ArrayOf(required...))
	}
	return jsonvalue.ObjectOf(root)
}

func compileProperty(field dictionary.FieldSpec, d *dictionary.Dictionary, cfg CompilerConfig) *jsonvalue.Object {
	prop := jsonvalue.NewObject()

	typ := strings.ToLower(strings.TrimSpace(field.Type))
	format := strings.TrimSpace(field.Format)
	lowFormat := strings.ToLower(format)
	namesDateHint := cfg.DateHint != "" && strings.Contains(lowFormat, strings.ToLower(cfg.DateHint))

	switch {
	case passthroughTypes[typ]:
		prop.Set("type", jsonvalue.String(typ))
	case typ == "date" || typ == "datetime":
		prop.Set("type", jsonvalue.String("string"))
		switch {
		case namesDateHint:
			prop.Set("pattern", jsonvalue.String(cfg.DatePattern))
		case typ == "datetime":
			prop.Set("format", jsonvalue.String("date-time"))
		default:
			prop.Set("format", jsonvalue.String("date"))
		}
	default:
		// "enum" and unknown types
		prop.Set("type", jsonvalue.String("string"))
	}

	if codes, ok := resolveEnum(field.AllowedValues, d, cfg); ok {
		prop.Set("enum", stringArray(codes))
	}

	if format != "" {
		switch {
		case strings.HasPrefix(format, "^"):
			prop.Set("pattern", jsonvalue.String(format))
		case lowFormat == "email" || lowFormat == "uri":
			prop.Set("format", jsonvalue.String(lowFormat))
		case namesDateHint:
			prop.Set("pattern", jsonvalue.String(cfg.DatePattern))
		case lowFormat == "year" && typ == "integer":
			prop.Set("minimum", jsonvalue.Int(int64(cfg.YearMinimum)))
			prop.Set("maximum", jsonvalue.Int(int64(cfg.YearMaximum)))
		}
	}

	label := strings.TrimSpace(field.Label)
	var description []string
	if label != "" {
		description = append(description, label)
	}
	if section := strings.TrimSpace(field.Section); section != "" {
		description = append(description, "(Section/Page: "+section+")")
	}
	if notes := strings.TrimSpace(field.Notes); notes != "" {
		description = append(description, notes)
	}
	if len(description) > 0 {
		prop.Set("description", jsonvalue.String(strings.Join(description, " ")))
	}

	if label != "" {
		prop.Set("x_label", jsonvalue.String(label))
	}
	if section := sectionLabel(field.ID); section != "" {
		prop.Set("x_section", jsonvalue.String(section))
	}

	return prop
}

// resolveEnum looks allowed_values up as a named set (dictionary first, then
// configured sets) and otherwise treats a comma list as inline codes.
func resolveEnum(allowed string, d *dictionary.Dictionary, cfg CompilerConfig) ([]string, bool) {
	allowed = strings.TrimSpace(allowed)
	if allowed == "" {
		return nil, false
	}

	if codes, ok := d.Enum(allowed); ok {
		return codes, true
	}
	key := dictionary.EnumKey(allowed)
	names := make([]string, 0, len(cfg.EnumSets))
	for name := range cfg.EnumSets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if dictionary.EnumKey(name) == key {
			return cfg.EnumSets[name], true
		}
	}

	if !strings.Contains(allowed, ",") {
		return nil, false
	}
	var codes []string
	for _, token := range strings.Split(allowed, ",") {
		if token = strings.TrimSpace(token); token != "" {
			codes = append(codes, token)
		}
	}
	return codes, len(codes) > 0
}

// sectionLabel humanizes the first dotted segment of a field_id:
// "facility_info.name" becomes "Facility Info".
func sectionLabel(fieldID string) string {
	top, _, _ := strings.Cut(strings.TrimSpace(fieldID), ".")
	top = strings.NewReplacer("_", " ", "-", " ").Replace(top)
	top = strings.TrimSpace(top)
	if top == "" {
		return ""
	}
	return cases.Title(language.Und).String(top)
}

func stringArray(values []string) jsonvalue.Value {
	items := make([]jsonvalue.Value, len(values))
	for i, v := range values {
		items[i] = jsonvalue.String(v)
	}
	return jsonvalue.ArrayOf(items...)
}
