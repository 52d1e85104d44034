// Package transform is the table of named value parsers and formatters used
// by mapping transforms and variant tagging.
//
// Every entry documents the input it accepts. A formatter returns ok=false
// for input outside that contract and callers keep the raw value.
package transform

import (
	"fmt"
	"math/big"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Options carries per-rule parameters.
type Options struct {
	// Pad left-pads digit strings with zeros to this length.
	Pad int
}

// Func formats value. ok is false when value is outside the accepted input.
type Func func(value string, opts Options) (out string, ok bool)

// Formatter describes one named formatter.
type Formatter struct {
	Name    string
	Accepts string
	Fn      Func
}

var registry = map[string]Formatter{
	"digits": {
		Name:    "digits",
		Accepts: "any text; non-digits are removed and the rest is zero-padded to pad",
		Fn:      Digits,
	},
	"upper": {
		Name:    "upper",
		Accepts: "any text",
		Fn:      func(v string, _ Options) (string, bool) { return strings.ToUpper(v), true },
	},
	"lower": {
		Name:    "lower",
		Accepts: "any text",
		Fn:      func(v string, _ Options) (string, bool) { return strings.ToLower(v), true },
	},
	"trim": {
		Name:    "trim",
		Accepts: "any text; surrounding whitespace is removed",
		Fn:      func(v string, _ Options) (string, bool) { return strings.TrimSpace(v), true },
	},
	"fein": {
		Name:    "fein",
		Accepts: "text containing exactly 9 digits, rendered NN-NNNNNNN",
		Fn:      FEIN,
	},
	"zip": {
		Name:    "zip",
		Accepts: "text containing exactly 5 or 9 digits, rendered ##### or #####-####",
		Fn:      ZIP,
	},
	"phone": {
		Name:    "phone",
		Accepts: "text containing exactly 10 digits, rendered (###) ###-####",
		Fn:      Phone,
	},
	"date": {
		Name:    "date",
		Accepts: "M/D/YY or M/D/YYYY with / or - separators, month 1-12, day 1-31, year 1900-2099",
		Fn:      Date,
	},
	"facility_id": {
		Name:    "facility_id",
		Accepts: "text containing at least one digit; digits zero-padded to 7 (or pad)",
		Fn:      FacilityID,
	},
}

// Lookup returns the named formatter.
func Lookup(name string) (Formatter, bool) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// Names lists the registered formatter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply runs the named formatter. An unknown name or rejected input returns
// the value unchanged with ok=false.
func Apply(name, value string, opts Options) (string, bool) {
	f, found := Lookup(name)
	if !found {
		return value, false
	}
	out, ok := f.Fn(value, opts)
	if !ok {
		return value, false
	}
	return out, true
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func leftPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// Digits keeps only ASCII digits and zero-pads the result to opts.Pad.
// Input without digits pads to all zeros, or stays empty without a pad.
func Digits(value string, opts Options) (string, bool) {
	return leftPad(onlyDigits(value), opts.Pad), true
}

func FEIN(value string, _ Options) (string, bool) {
	d := onlyDigits(value)
	if len(d) != 9 {
		return "", false
	}
	return d[:2] + "-" + d[2:], true
}

func ZIP(value string, _ Options) (string, bool) {
	d := onlyDigits(value)
	switch len(d) {
	case 5:
		return d, true
	case 9:
		return d[:5] + "-" + d[5:], true
	default:
		return "", false
	}
}

func Phone(value string, _ Options) (string, bool) {
	d := onlyDigits(value)
	if len(d) != 10 {
		return "", false
	}
	return fmt.Sprintf("(%s) %s-%s", d[:3], d[3:6], d[6:]), true
}

var datePattern = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})$`)

// Date normalizes to MM/DD/YYYY. Two-digit years below 50 are 20YY, others 19YY.
func Date(value string, _ Options) (string, bool) {
	m := datePattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return "", false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1900 || year > 2099 {
		return "", false
	}
	return fmt.Sprintf("%02d/%02d/%04d", month, day, year), true
}

// FacilityID keeps digits and zero-pads to 7, or to opts.Pad when set.
func FacilityID(value string, opts Options) (string, bool) {
	d := onlyDigits(value)
	if d == "" {
		return "", false
	}
	width := 7
	if opts.Pad > 0 {
		width = opts.Pad
	}
	return leftPad(d, width), true
}

// ParseInt reads an integer after removing every character other than digits
// and '-'. Empty or unparseable remainders (such as "1-2") are not numbers.
func ParseInt(value string) (int64, bool) {
	n, ok := ParseBigInt(value)
	if !ok || !n.IsInt64() {
		return 0, false
	}
	return n.Int64(), true
}

// ParseBigInt is ParseInt without the int64 range limit.
func ParseBigInt(value string) (*big.Int, bool) {
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(cleaned, 10)
	if !ok {
		return nil, false
	}
	return n, true
}
