package tui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// ColorEnabled reports whether output written to w should be styled.
//
// Returns false if:
//   - w is not a terminal (redirected output, pipes, CI logs)
//   - NO_COLOR is set (https://no-color.org)
//   - HFSRB_NO_COLOR=1 is set
//   - CI is set (common CI/CD convention)
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("HFSRB_NO_COLOR") == "1" {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width of w, or fallback when w is not a terminal.
func Width(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}
