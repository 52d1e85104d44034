package checksum

import (
	"testing"
)

func TestSHA256Calculator_CalculateRaw(t *testing.T) {
	calc := New()

	if got := calc.CalculateRaw(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("CalculateRaw(empty) = %s", got)
	}

	a := calc.CalculateRaw([]byte(`{"a": 1}`))
	b := calc.CalculateRaw([]byte(`{"a":1}`))
	if len(a) != 64 {
		t.Errorf("CalculateRaw() returned hash of length %d, expected 64", len(a))
	}
	if a == b {
		t.Error("raw checksums should differ on formatting")
	}
	if a != calc.CalculateRaw([]byte(`{"a": 1}`)) {
		t.Error("CalculateRaw() is not deterministic")
	}
}

func TestSHA256Calculator_CalculateNormalized(t *testing.T) {
	calc := New()

	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{"json whitespace ignored", "{\n  \"a\": 1,\n  \"b\": [1, 2]\n}\n", `{"a":1,"b":[1,2]}`, true},
		{"json key order matters", `{"a":1,"b":2}`, `{"b":2,"a":1}`, false},
		{"json values matter", `{"a":1}`, `{"a":2}`, false},
		{"text line endings ignored", "# Title\r\n\r\n| a |\r\n", "# Title\n\n| a |\n", true},
		{"text trailing spaces ignored", "line one   \nline two\t\n", "line one\nline two", true},
		{"text case matters", "# Title", "# title", false},
		{"malformed json falls back to text", "{\"a\": \n", "{\"a\":\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ha := calc.CalculateNormalized([]byte(tt.a))
			hb := calc.CalculateNormalized([]byte(tt.b))
			if (ha == hb) != tt.equal {
				t.Errorf("CalculateNormalized(%q) == CalculateNormalized(%q) is %v, want %v", tt.a, tt.b, ha == hb, tt.equal)
			}
		})
	}
}

func TestSHA256Calculator_ImplementsCalculator(t *testing.T) {
	var _ Calculator = New()
}
