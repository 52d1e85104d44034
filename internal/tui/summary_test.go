package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainPrinter_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.Summary("Mapping", []Line{
		{Label: "mapped", Value: "12", Status: StatusOK},
		{Label: "skipped", Value: "1", Status: StatusWarn},
		{Label: "failed", Value: "0"},
	})

	want := "Mapping\n" +
		"  mapped   12\n" +
		"  skipped  1\n" +
		"  failed   0\n"
	assert.Equal(t, want, buf.String())
}

func TestPlainPrinter_Item(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.Item(StatusOK, "%s compiled", "ahq-long")
	p.Item(StatusFail, "broken: %v", "duplicate field_name")
	p.Item(StatusWarn, "no mapping")
	p.Item(StatusInfo, "note")

	assert.Equal(t, "✓ ahq-long compiled\n✗ broken: duplicate field_name\n⚠ no mapping\n• note\n", buf.String())
}

func TestNewPrinter_BufferIsPlain(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Item(StatusOK, "done")
	assert.Equal(t, "✓ done\n", buf.String())
}
