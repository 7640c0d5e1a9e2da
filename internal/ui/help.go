package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

// renderHelp renders the footer from "key desc" pairs.
func renderHelp(pairs []string, width int) string {
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		k, desc, _ := strings.Cut(p, " ")
		keys = append(keys, helpKey(k, desc))
	}
	return renderHelpLine(keys, width)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).MaxHeight(2).Render(line)
}

func sidebarHelp() []string {
	return []string{"j/k navigate", "enter open", "h collapse", "l/esc content", "ctrl+o sign out", "? help", "q quit"}
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	sections := []string{
		titleSection("Menu"),
		helpSection([]helpItem{
			{"j / k", "Move"},
			{"enter / l", "Open page or expand section"},
			{"h", "Collapse section"},
			{"h / ←", "From a page, back to the menu"},
			{"ctrl+o", "Sign out"},
		}),
		titleSection("Tables"),
		helpSection([]helpItem{
			{"j / k, gg / G", "Move, top, bottom"},
			{"ctrl+d / ctrl+u", "Half page down/up"},
			{"tab / shift+tab", "Cycle active column"},
			{"# then 1-9", "Jump to column"},
			{"s / S / o", "Sort asc, desc, cycle"},
			{"c / C", "Hide active column / show all"},
			{"n / N", "Filter by selected value / clear"},
			{"[ / ]", "Previous / next page"},
			{"m", "Load more (activity logs)"},
		}),
		titleSection("Records"),
		helpSection([]helpItem{
			{"enter", "Details"},
			{"a / e / d", "Add, edit, delete"},
			{"v", "Resolve warning"},
			{"+", "Add stock to item"},
			{"/", "Search"},
			{"f / x", "Edit filters / clear all"},
			{"r", "Reload"},
		}),
		titleSection("Dialogs"),
		helpSection([]helpItem{
			{"tab / shift+tab", "Next / previous field"},
			{"← / →", "Change option"},
			{"ctrl+s", "Save"},
			{"y / enter", "Confirm delete"},
			{"esc", "Cancel"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}
