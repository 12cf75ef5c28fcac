package ui

import lipgloss "charm.land/lipgloss/v2"

type Theme struct {
	Header       lipgloss.Style
	Status       lipgloss.Style
	GridLine     lipgloss.Style
	GridCorner   lipgloss.Style
	Item         lipgloss.Style
	ItemDragging lipgloss.Style
	BoxBorder    lipgloss.Style
	BoxTitle     lipgloss.Style
	BoxBody      lipgloss.Style
	GhostOK      lipgloss.Style
	GhostBad     lipgloss.Style
	Overlay      lipgloss.Style
	OverlayTitle lipgloss.Style
	Accent       lipgloss.Style
	Warn         lipgloss.Style
	Muted        lipgloss.Style
	SidebarTitle lipgloss.Style
}

func DefaultTheme() Theme {
	return ThemeForVariant("modern_arcade")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "cozy_clean":
		return cozyCleanTheme()
	case "retro_terminal":
		return retroTerminalTheme()
	default:
		return modernArcadeTheme()
	}
}

func modernArcadeTheme() Theme {
	amber := lipgloss.Color("#FFC857")
	mint := lipgloss.Color("#67F0A8")
	brick := lipgloss.Color("#FF6F91")
	ink := lipgloss.Color("#0E1420")
	slate := lipgloss.Color("#1B2740")
	powder := lipgloss.Color("#EAF2FF")
	blue := lipgloss.Color("#5EEBFF")
	border := lipgloss.Color("#4B5F8A")

	return Theme{
		Header:       lipgloss.NewStyle().Background(ink).Foreground(powder).Padding(0, 1),
		Status:       lipgloss.NewStyle().Background(slate).Foreground(powder).Padding(0, 1),
		GridLine:     lipgloss.NewStyle().Foreground(border),
		GridCorner:   lipgloss.NewStyle().Foreground(slate),
		Item:         lipgloss.NewStyle().Foreground(ink).Background(amber).Bold(true),
		ItemDragging: lipgloss.NewStyle().Foreground(ink).Background(mint).Bold(true),
		BoxBorder:    lipgloss.NewStyle().Foreground(blue),
		BoxTitle:     lipgloss.NewStyle().Foreground(blue).Bold(true),
		BoxBody:      lipgloss.NewStyle().Foreground(powder),
		GhostOK:      lipgloss.NewStyle().Foreground(mint),
		GhostBad:     lipgloss.NewStyle().Foreground(brick),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Background(ink).
			Foreground(powder).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(blue).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(blue).Bold(true),
		Warn:         lipgloss.NewStyle().Foreground(brick).Bold(true),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#9CAAC6")),
		SidebarTitle: lipgloss.NewStyle().Foreground(amber).Bold(true),
	}
}

func cozyCleanTheme() Theme {
	honey := lipgloss.Color("#F2B872")
	sage := lipgloss.Color("#80C4A3")
	rose := lipgloss.Color("#D17A86")
	night := lipgloss.Color("#1E2430")
	slate := lipgloss.Color("#30394A")
	paper := lipgloss.Color("#F4F6FA")
	sky := lipgloss.Color("#86B6F6")

	return Theme{
		Header:       lipgloss.NewStyle().Background(night).Foreground(paper).Padding(0, 1),
		Status:       lipgloss.NewStyle().Background(slate).Foreground(paper).Padding(0, 1),
		GridLine:     lipgloss.NewStyle().Foreground(slate),
		GridCorner:   lipgloss.NewStyle().Foreground(slate),
		Item:         lipgloss.NewStyle().Foreground(night).Background(honey).Bold(true),
		ItemDragging: lipgloss.NewStyle().Foreground(night).Background(sage).Bold(true),
		BoxBorder:    lipgloss.NewStyle().Foreground(honey),
		BoxTitle:     lipgloss.NewStyle().Foreground(honey).Bold(true),
		BoxBody:      lipgloss.NewStyle().Foreground(paper),
		GhostOK:      lipgloss.NewStyle().Foreground(sage),
		GhostBad:     lipgloss.NewStyle().Foreground(rose),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(honey).
			Background(night).
			Foreground(paper).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(honey).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(sky).Bold(true),
		Warn:         lipgloss.NewStyle().Foreground(rose).Bold(true),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#A3ACC2")),
		SidebarTitle: lipgloss.NewStyle().Foreground(honey).Bold(true),
	}
}

func retroTerminalTheme() Theme {
	lime := lipgloss.Color("#9CF5A2")
	amber := lipgloss.Color("#E5D47A")
	red := lipgloss.Color("#FF6B6B")
	deep := lipgloss.Color("#07150A")
	forest := lipgloss.Color("#12301A")
	glow := lipgloss.Color("#C5F7C4")

	return Theme{
		Header:       lipgloss.NewStyle().Background(deep).Foreground(glow).Padding(0, 1),
		Status:       lipgloss.NewStyle().Background(forest).Foreground(glow).Padding(0, 1),
		GridLine:     lipgloss.NewStyle().Foreground(forest),
		GridCorner:   lipgloss.NewStyle().Foreground(forest),
		Item:         lipgloss.NewStyle().Foreground(deep).Background(lime).Bold(true),
		ItemDragging: lipgloss.NewStyle().Foreground(deep).Background(amber).Bold(true),
		BoxBorder:    lipgloss.NewStyle().Foreground(amber),
		BoxTitle:     lipgloss.NewStyle().Foreground(amber).Bold(true),
		BoxBody:      lipgloss.NewStyle().Foreground(glow),
		GhostOK:      lipgloss.NewStyle().Foreground(lime),
		GhostBad:     lipgloss.NewStyle().Foreground(red),
		Overlay: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(amber).
			Background(deep).
			Foreground(glow).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().Foreground(amber).Bold(true),
		Accent:       lipgloss.NewStyle().Foreground(lime).Bold(true),
		Warn:         lipgloss.NewStyle().Foreground(red).Bold(true),
		Muted:        lipgloss.NewStyle().Foreground(lipgloss.Color("#73A17A")),
		SidebarTitle: lipgloss.NewStyle().Foreground(amber).Bold(true),
	}
}
