package tui

import "github.com/charmbracelet/lipgloss"

type palette struct {
	fg, muted, accent, success, danger, info lipgloss.Color
	border                                   lipgloss.Color
}

var (
	lightPalette = palette{
		fg: "235", muted: "244", accent: "62", success: "28", danger: "160", info: "25", border: "250",
	}
	darkPalette = palette{
		fg: "252", muted: "241", accent: "141", success: "78", danger: "203", info: "75", border: "238",
	}
)

type styles struct {
	title, muted, selected, grabbed lipgloss.Style
	done, stat, tabActive, tab      lipgloss.Style
	toastSuccess, toastError        lipgloss.Style
	toastInfo, prompt, panel        lipgloss.Style
}

func newStyles(dark bool) styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}
	return styles{
		title:        lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		muted:        lipgloss.NewStyle().Foreground(p.muted),
		selected:     lipgloss.NewStyle().Bold(true).Foreground(p.accent),
		grabbed:      lipgloss.NewStyle().Bold(true).Foreground(p.info).Underline(true),
		done:         lipgloss.NewStyle().Foreground(p.muted).Strikethrough(true),
		stat:         lipgloss.NewStyle().Foreground(p.fg).Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(p.border),
		tabActive:    lipgloss.NewStyle().Bold(true).Foreground(p.accent).Underline(true),
		tab:          lipgloss.NewStyle().Foreground(p.muted),
		toastSuccess: lipgloss.NewStyle().Foreground(p.success),
		toastError:   lipgloss.NewStyle().Foreground(p.danger),
		toastInfo:    lipgloss.NewStyle().Foreground(p.info),
		prompt:       lipgloss.NewStyle().Bold(true).Foreground(p.danger),
		panel:        lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(p.border),
	}
}
