package checksum

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/hfsrb/hfsrb/internal/jsonvalue"
)

// Calculator computes document checksums.
type Calculator interface {
	// CalculateRaw computes a checksum of the raw, unmodified content.
	CalculateRaw(content []byte) string

	// CalculateNormalized computes a checksum of the canonical form of content.
	CalculateNormalized(content []byte) string
}

// SHA256 implements Calculator with SHA-256. It is a zero-size type.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
func New() SHA256 {
	return SHA256{}
}

// CalculateRaw computes SHA-256 of raw content.
func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// CalculateNormalized computes SHA-256 of normalized content.
func (c SHA256) CalculateNormalized(content []byte) string {
	hash := sha256.Sum256(c.normalize(content))
	return hex.EncodeToString(hash[:])
}

func (c SHA256) normalize(content []byte) []byte {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		if v, err := jsonvalue.Parse(trimmed); err == nil {
			if compact, err := jsonvalue.Marshal(v); err == nil {
				return compact
			}
		}
	}
	return normalizeText(string(content))
}

func normalizeText(content string) []byte {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	var b strings.Builder
	b.Grow(len(content))
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimRight(line, " \t"))
	}
	return []byte(strings.TrimRight(b.String(), "\n"))
}
