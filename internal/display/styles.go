package display

import "github.com/charmbracelet/lipgloss"

// Logo is printed by Banner and inside the lock panels.
const Logo = `                   _ __        __
 _   _____  ____ _(_) /_____ _/ /____
| | / / _ \/ __ ` + "`" + `/ / __/ __ ` + "`" + `/ __/ _ \
| |/ /  __/ /_/ / / /_/ /_/ / /_/  __/
|___/\___/\__, /_/\__/\__,_/\__/\___/
         /____/`

// ProjectURL is shown under the banner.
const ProjectURL = "github.com/silent-lad/homebrew-vegitate"

var (
	green  = lipgloss.Color("78")
	red    = lipgloss.Color("196")
	yellow = lipgloss.Color("220")
	gray   = lipgloss.Color("245")
	white  = lipgloss.Color("255")
)

type styles struct {
	logo      lipgloss.Style
	dim       lipgloss.Style
	check     lipgloss.Style
	warn      lipgloss.Style
	locked    lipgloss.Style
	unlocked  lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	timer     lipgloss.Style
	panel     lipgloss.Style
	errPanel  lipgloss.Style
	errTitle  lipgloss.Style
	errBody   lipgloss.Style
	statusRed lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		logo:      r.NewStyle().Foreground(green).Bold(true),
		dim:       r.NewStyle().Foreground(gray),
		check:     r.NewStyle().Foreground(green),
		warn:      r.NewStyle().Foreground(yellow),
		locked:    r.NewStyle().Foreground(red).Bold(true),
		unlocked:  r.NewStyle().Foreground(green).Bold(true),
		label:     r.NewStyle().Foreground(white).Bold(true).Width(16).Align(lipgloss.Right).PaddingRight(2),
		value:     r.NewStyle().Foreground(white),
		timer:     r.NewStyle().Foreground(green).Bold(true),
		statusRed: r.NewStyle().Foreground(red).Bold(true),

		panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(green).
			Padding(1, 3),

		errPanel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(red).
			Padding(1, 2),
		errTitle: r.NewStyle().Foreground(red).Bold(true),
		errBody:  r.NewStyle().Foreground(white),
	}
}
