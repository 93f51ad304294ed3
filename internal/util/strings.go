// Package util provides small text helpers shared by the terminal views.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "…"

// Truncate shortens s to at most width terminal columns, ending it with an
// ellipsis when something was cut. ANSI escape codes and wide characters are
// measured by their visible width. A width below 1 leaves s unchanged.
func Truncate(s string, width int) string {
	if width < 1 || lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, ellipsis)
}
