package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/drawbridge/internal/tui/styles"
	"github.com/Iron-Ham/drawbridge/internal/util"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting && !m.finished {
		return styles.WarningMsg.Render("run cancelled") + "\n"
	}

	var b strings.Builder
	b.WriteString(styles.Title.Render("drawbridge"))
	b.WriteString("\n")

	banner := styles.BridgeLowered.Render("BRIDGE LOWERED")
	if m.raised {
		banner = styles.BridgeRaised.Render("BRIDGE RAISED")
	}
	b.WriteString(banner)
	b.WriteString(styles.Muted.Render(fmt.Sprintf("  threshold %d ships · %d raises", m.critShips, m.raises)))
	b.WriteString("\n\n")

	deck := styles.Muted.Render("free")
	if m.occupant != "" {
		species, _, _ := strings.Cut(m.occupant, " ")
		deck = lipgloss.NewStyle().Foreground(styles.SpeciesColor(species)).Bold(true).
			Render(styles.SpeciesIcon(species) + " " + m.occupant)
	}

	// leave room for the box border and padding
	rowWidth := m.width - 6
	rows := []string{
		styles.Label.Render("deck") + deck,
		util.Truncate(styles.Label.Render("cars")+renderQueue(speciesCar, m.cars), rowWidth),
		util.Truncate(styles.Label.Render("ships")+renderQueue(speciesShip, m.ships), rowWidth),
	}
	b.WriteString(styles.ContentBox.Render(strings.Join(rows, "\n")))
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(m.Percent()))
	b.WriteString(styles.Muted.Render(fmt.Sprintf("  %d/%d", m.done, m.total)))
	b.WriteString("\n\n")

	for _, line := range m.events {
		b.WriteString(styles.Text.Render(util.Truncate(line, m.width)))
		b.WriteString("\n")
	}

	if m.finished {
		b.WriteString("\n")
		if m.err != "" {
			b.WriteString(styles.ErrorMsg.Render("finished with error: " + m.err))
		} else {
			b.WriteString(styles.SuccessMsg.Render(fmt.Sprintf("all done in %s", m.elapsed.Round(time.Millisecond))))
		}
		b.WriteString("\n")
	}

	b.WriteString(styles.HelpBar.Render(styles.HelpKey.Render("q") + " quit"))
	b.WriteString("\n")
	return b.String()
}

// renderQueue draws ids front first.
func renderQueue(species string, ids []int) string {
	if len(ids) == 0 {
		return styles.Muted.Render("empty")
	}
	style := lipgloss.NewStyle().Foreground(styles.SpeciesColor(species))
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = styles.SpeciesIcon(species) + strconv.Itoa(id)
	}
	return style.Render(strings.Join(parts, " "))
}
