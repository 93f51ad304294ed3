package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	SurfaceColor   = lipgloss.Color("#1F2937") // Dark surface
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray

	// Actor colors
	CarColor  = lipgloss.Color("#FBBF24") // Yellow
	ShipColor = lipgloss.Color("#60A5FA") // Blue

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)
	Text      = lipgloss.NewStyle().Foreground(TextColor)
	Car       = lipgloss.NewStyle().Foreground(CarColor)
	Ship      = lipgloss.NewStyle().Foreground(ShipColor)

	// Base styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	// Bridge orientation banners
	BridgeRaised = lipgloss.NewStyle().
			Bold(true).
			Foreground(SurfaceColor).
			Background(ShipColor).
			Padding(0, 2)

	BridgeLowered = lipgloss.NewStyle().
			Bold(true).
			Foreground(SurfaceColor).
			Background(SecondaryColor).
			Padding(0, 2)

	// Content area
	ContentBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	// Section label inside a box
	Label = lipgloss.NewStyle().
		Foreground(MutedColor).
		Width(8)

	// Help bar
	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	// Error message
	ErrorMsg = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// Success message
	SuccessMsg = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	// Warning message
	WarningMsg = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)
)

// SpeciesColor returns the color for an actor species ("car" or "ship").
func SpeciesColor(species string) lipgloss.Color {
	switch species {
	case "car":
		return CarColor
	case "ship":
		return ShipColor
	default:
		return MutedColor
	}
}

// SpeciesIcon returns the glyph drawn for an actor species.
func SpeciesIcon(species string) string {
	switch species {
	case "car":
		return "▣"
	case "ship":
		return "◭"
	default:
		return "·"
	}
}

// KindColor returns the color used to print an event of the given kind.
func KindColor(kind string) lipgloss.Color {
	switch kind {
	case "bridge.raised":
		return ShipColor
	case "bridge.lowered":
		return SecondaryColor
	case "actor.withdrawn":
		return WarningColor
	case "simulation.started", "simulation.finished":
		return PrimaryColor
	default:
		return TextColor
	}
}
