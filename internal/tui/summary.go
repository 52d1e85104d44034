// Package tui renders run summaries for humans. Styling is applied only
// when the destination is a color-capable terminal; otherwise output is
// plain text suitable for logs.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Status classifies a summary line.
type Status int

const (
	StatusInfo Status = iota
	StatusOK
	StatusWarn
	StatusFail
)

// Line is one labelled value in a summary.
type Line struct {
	Label  string
	Value  string
	Status Status
}

// Printer writes summaries and item lines to one destination.
type Printer struct {
	w      io.Writer
	color  bool
	styles styles
}

// NewPrinter styles output only when ColorEnabled(w).
func NewPrinter(w io.Writer) *Printer {
	return newPrinter(w, ColorEnabled(w))
}

// NewPlainPrinter never styles output.
func NewPlainPrinter(w io.Writer) *Printer {
	return newPrinter(w, false)
}

func newPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color, styles: newStyles(lipgloss.NewRenderer(w))}
}

func (p *Printer) symbol(s Status) string {
	switch s {
	case StatusOK:
		return SymbolCheck
	case StatusWarn:
		return SymbolWarning
	case StatusFail:
		return SymbolCross
	}
	return SymbolBullet
}

func (p *Printer) paint(s Status, text string) string {
	if !p.color {
		return text
	}
	switch s {
	case StatusOK:
		return p.styles.success.Render(text)
	case StatusWarn:
		return p.styles.warning.Render(text)
	case StatusFail:
		return p.styles.failure.Render(text)
	}
	return text
}

// Item writes a single status line such as "✗ data/.../data.json: reason".
func (p *Printer) Item(s Status, format string, args ...any) {
	fmt.Fprintln(p.w, p.paint(s, p.symbol(s)+" "+fmt.Sprintf(format, args...)))
}

// Summary writes a titled block of aligned lines.
func (p *Printer) Summary(title string, lines []Line) {
	fmt.Fprintln(p.w, p.renderSummary(title, lines))
}

func (p *Printer) renderSummary(title string, lines []Line) string {
	width := 0
	for _, l := range lines {
		width = max(width, len(l.Label))
	}

	var b strings.Builder
	if p.color {
		b.WriteString(p.styles.title.Render(title))
	} else {
		b.WriteString(title)
	}
	for _, l := range lines {
		b.WriteString("\n")
		label := fmt.Sprintf("%-*s", width, l.Label)
		if p.color {
			label = p.styles.label.Render(label)
		}
		b.WriteString("  " + label + "  " + p.paint(l.Status, l.Value))
	}
	if !p.color {
		return b.String()
	}
	return p.styles.box.Render(b.String())
}
