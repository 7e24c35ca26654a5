package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agusx1211/ambience/internal/soundscape"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5FAFD7")).
			MarginBottom(1)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00AA00")).
		Bold(true).
		Width(12)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDDDDD"))

	layerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#D70000"))
)

// RenderRoster formats the soundscape list, one per line, in display order.
func RenderRoster(roster []soundscape.Info) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Soundscapes"))
	sb.WriteString("\n")
	for _, info := range roster {
		layers := ""
		if def, ok := soundscape.Lookup(info.ID); ok {
			names := make([]string, len(def.Layers))
			for i, l := range def.Layers {
				names[i] = l.Name
			}
			layers = strings.Join(names, ", ")
		}
		sb.WriteString("  ")
		sb.WriteString(info.Icon)
		sb.WriteString(" ")
		sb.WriteString(idStyle.Render(info.ID))
		sb.WriteString(labelStyle.Render(info.Label))
		if layers != "" {
			sb.WriteString("  ")
			sb.WriteString(layerStyle.Render("(" + layers + ")"))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func PrintRoster(roster []soundscape.Info) {
	fmt.Print(RenderRoster(roster))
}

func PrintError(msg string) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+msg)
}

func RenderVersion(version string) string {
	return titleStyle.Render("ambience " + version)
}

func PrintVersion(version string) {
	fmt.Println(RenderVersion(version))
}
