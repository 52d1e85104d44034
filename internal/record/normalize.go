package record

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// NormalizeKey turns a spreadsheet header into a snake_case field key:
// "Total Beds (10/1/23)" becomes "total_beds_10_1_23".
func NormalizeKey(header string) string {
	h := strings.TrimSpace(strings.ReplaceAll(header, "\ufeff", ""))
	h = nonAlnum.ReplaceAllString(h, "_")
	return strings.ToLower(strings.Trim(h, "_"))
}
