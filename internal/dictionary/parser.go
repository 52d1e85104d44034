package dictionary

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

const (
	fieldsHeading       = "fields"
	enumerationsHeading = "enumerations"
)

// Options tune dictionary parsing.
type Options struct {
	// MinCodeLength discards enumeration codes shorter than this many runes.
	// Values below 1 are treated as 1.
	MinCodeLength int
}

// Parse reads a dictionary document. path is used for error messages and as
// the title fallback (the name of the containing directory).
func Parse(path string, content []byte, opts Options) (*Dictionary, error) {
	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")

	dict := &Dictionary{
		Path:  path,
		Title: parseTitle(lines, path),
	}

	start := findFieldsTable(lines)
	if start < 0 {
		return nil, &ParseError{
			FilePath: path,
			Message:  "no Fields table found",
			Hint: "Add a \"## Fields\" heading followed by a pipe table:\n" +
				"  | " + strings.Join(Columns, " | ") + " |",
		}
	}

	fields, err := parseFieldsTable(path, lines, start)
	if err != nil {
		return nil, err
	}
	dict.Fields = fields
	dict.Enums = parseEnumerations(lines, opts)

	return dict, nil
}

func parseTitle(lines []string, path string) string {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			if title := strings.TrimSpace(strings.TrimLeft(trimmed, "#")); title != "" {
				return title
			}
		}
	}
	return filepath.Base(filepath.Dir(path))
}

// heading reports the level and text of a markdown ATX heading line.
func heading(line string) (level int, text string, ok bool) {
	trimmed := strings.TrimSpace(line)
	level = len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
	if level == 0 {
		return 0, "", false
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}
	return level, strings.TrimSpace(strings.TrimRight(strings.TrimSpace(rest), "#")), true
}

// findFieldsTable returns the index of the table header line under the first
// "Fields" heading (level 2 or deeper) that has one, or -1.
func findFieldsTable(lines []string) int {
	for i, line := range lines {
		level, text, ok := heading(line)
		if !ok || level < 2 || !strings.EqualFold(text, fieldsHeading) {
			continue
		}
		if j := tableAfter(lines, i+1); j >= 0 {
			return j
		}
	}
	return -1
}

// tableAfter returns the first non-blank line from start when it is a table
// row, or -1.
func tableAfter(lines []string, start int) int {
	for j := start; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == "" {
			continue
		}
		if _, _, isHeading := heading(lines[j]); isHeading || !strings.Contains(lines[j], "|") {
			return -1
		}
		return j
	}
	return -1
}

func parseFieldsTable(path string, lines []string, start int) ([]FieldSpec, error) {
	header := splitRow(lines[start])
	for i := range header {
		header[i] = strings.ToLower(header[i])
	}

	if !slices.Contains(header, ColFieldName) {
		return nil, &ParseError{
			FilePath: path,
			Line:     start + 1,
			Message:  "fields table header has no field_name column",
			Hint:     "Expected header: | " + strings.Join(Columns, " | ") + " |",
		}
	}

	i := start + 1
	if i < len(lines) && isSeparator(lines[i]) {
		i++
	}

	var fields []FieldSpec
	seen := make(map[string]int)

	for ; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || !strings.Contains(line, "|") {
			break
		}

		cells := splitRow(line)
		row := make(map[string]string, len(header))
		for j, col := range header {
			if j < len(cells) {
				row[col] = cells[j]
			}
		}

		field := FieldSpec{
			ID:            row[ColFieldID],
			Label:         row[ColFieldLabel],
			Name:          row[ColFieldName],
			Type:          row[ColType],
			Required:      strings.EqualFold(row[ColRequired], "yes"),
			AllowedValues: row[ColAllowedValues],
			Format:        row[ColFormat],
			Unit:          row[ColUnit],
			Section:       row[ColSection],
			Notes:         row[ColNotes],
			Line:          i + 1,
		}
		if field.Name == "" {
			continue
		}

		if firstLine, dup := seen[field.Name]; dup {
			return nil, &ParseError{
				FilePath: path,
				Line:     i + 1,
				Field:    field.Name,
				Message:  fmt.Sprintf("duplicate field_name (first declared on line %d)", firstLine),
				Hint:     "Each field_name becomes one schema property and must be unique within the dictionary.",
			}
		}
		seen[field.Name] = i + 1
		fields = append(fields, field)
	}

	return fields, nil
}

func parseEnumerations(lines []string, opts Options) []EnumSet {
	minLen := opts.MinCodeLength
	if minLen < 1 {
		minLen = 1
	}

	var sets []EnumSet
	index := make(map[string]int)
	current := -1
	sectionLevel := 0

	for _, line := range lines {
		level, text, isHeading := heading(line)
		if sectionLevel == 0 {
			if isHeading && level >= 2 && strings.EqualFold(text, enumerationsHeading) {
				sectionLevel = level
			}
			continue
		}
		if isHeading && level <= sectionLevel {
			break
		}
		if isHeading {
			key := EnumKey(text)
			pos, ok := index[key]
			if !ok {
				pos = len(sets)
				index[key] = pos
				sets = append(sets, EnumSet{Name: key})
			}
			current = pos
			continue
		}

		trimmed := strings.TrimSpace(line)
		item, ok := bulletText(trimmed)
		if !ok || current < 0 {
			continue
		}
		if code := enumCode(item); len([]rune(code)) >= minLen {
			sets[current].Codes = append(sets[current].Codes, code)
		}
	}

	return sets
}

func bulletText(line string) (string, bool) {
	for _, marker := range []string{"- ", "* "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}
	return "", false
}

// enumCode extracts "code" from "code — label" or "code - label".
func enumCode(item string) string {
	code, _, _ := strings.Cut(item, "—")
	code, _, _ = strings.Cut(code, "-")
	return strings.TrimSpace(code)
}

func splitRow(line string) []string {
	trimmed := strings.Trim(strings.TrimSpace(line), "|")
	cells := strings.Split(trimmed, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func isSeparator(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	return strings.Trim(trimmed, "|-: ") == ""
}
