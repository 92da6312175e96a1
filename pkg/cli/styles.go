package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// table renders rows as left aligned columns sized to their widest cell
func table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); i < len(widths) && w > widths[i] {
				widths[i] = w
			}
		}
	}

	render := func(cells []string, style *lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			s := lipgloss.NewStyle().Width(widths[i] + 2)
			if style != nil {
				s = s.Inherit(*style)
			}
			parts[i] = s.Render(cell)
		}
		return strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " ")
	}

	lines := []string{render(header, &headerStyle)}
	for _, row := range rows {
		lines = append(lines, render(row, nil))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func check(ok bool) string {
	if ok {
		return okStyle.Render("yes")
	}
	return errStyle.Render("no")
}
