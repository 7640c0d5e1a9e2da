package table

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"welfaredesk/internal/util"
)

// Styles used by the renderer.
type Styles struct {
	Header      lipgloss.Style
	ActiveLabel lipgloss.Style
	Row         lipgloss.Style
	Selected    lipgloss.Style
	Divider     lipgloss.Style
	Empty       lipgloss.Style
	Status      lipgloss.Style
	Spinner     lipgloss.Style
}

// DefaultStyles is an uncoloured style set.
func DefaultStyles() Styles {
	return Styles{
		Header:      lipgloss.NewStyle().Bold(true).Padding(0, 1),
		ActiveLabel: lipgloss.NewStyle().Underline(true),
		Row:         lipgloss.NewStyle().Padding(0, 1),
		Selected:    lipgloss.NewStyle().Reverse(true).Padding(0, 1),
		Divider:     lipgloss.NewStyle().Faint(true),
		Empty:       lipgloss.NewStyle().Italic(true).Padding(2, 4),
		Status:      lipgloss.NewStyle().Faint(true).Padding(0, 1),
		Spinner:     lipgloss.NewStyle(),
	}
}

const emptyCell = "—"

// View renders the table into width x height.
func (m *Model[T]) View(width, height int) string {
	visible := m.visibleColumnIndexes()
	if len(visible) == 0 {
		return m.styles.Empty.Width(width).Height(height).Render("No visible columns. Press C to show all columns.")
	}

	widths := make([]int, 0, len(visible))
	headers := make([]string, 0, len(visible))
	total := 0
	for _, idx := range visible {
		col := m.columns[idx]
		label := formatHeaderLabel(col.Header)
		if idx == m.activeColumn {
			label = m.styles.ActiveLabel.Render(label)
		}
		if m.sortKey == col.Key {
			if m.sortDesc {
				label += " ↓"
			} else {
				label += " ↑"
			}
		}
		cellWidth := max(col.width()+2, lipgloss.Width(label)+4)
		total += cellWidth
		widths = append(widths, cellWidth)
		headers = append(headers, label)
	}
	if extra := width - total - 2; extra > 0 {
		widths[len(widths)-1] += extra
	}

	header := renderRow(headers, widths, m.styles.Header)
	divider := m.styles.Divider.Render(renderDivider(widths))
	status := m.styles.Status.Render(m.statusLine())

	bodyHeight := max(1, height-lipgloss.Height(header)-1-lipgloss.Height(status))
	m.viewportHeight = bodyHeight

	var body string
	switch {
	case m.loading:
		noun := m.opts.Noun
		if noun == "" {
			noun = "rows"
		}
		body = m.styles.Empty.Render(fmt.Sprintf("%s Loading %s...", m.spinner.View(), noun))
	case len(m.PageRows()) == 0:
		msg := m.opts.Empty
		if msg == "" {
			msg = "Nothing here yet."
		}
		if m.filterKey != "" {
			msg = "No rows match the current filter."
		}
		body = m.styles.Empty.Render(msg)
	default:
		body = m.renderRows(visible, widths, bodyHeight)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, header, divider, body)
	spacer := lipgloss.NewStyle().Height(max(0, height-lipgloss.Height(content)-lipgloss.Height(status))).Render("")
	return lipgloss.JoinVertical(lipgloss.Left, content, spacer, status)
}

func (m *Model[T]) renderRows(visible, widths []int, height int) string {
	rows := m.PageRows()
	var lines []string
	for i := m.offset; i < len(rows) && i < m.offset+height; i++ {
		style := m.styles.Row
		if i == m.cursor {
			style = m.styles.Selected
		}
		cells := make([]string, 0, len(visible))
		for j, idx := range visible {
			col := m.columns[idx]
			cell := col.cell(rows[i])
			if strings.TrimSpace(cell) == "" {
				cell = emptyCell
			}
			cells = append(cells, util.TruncateString(cell, max(1, widths[j]-2)))
		}
		lines = append(lines, renderRow(cells, widths, style))
	}
	return strings.Join(lines, "\n")
}

func (m *Model[T]) statusLine() string {
	noun := m.opts.Noun
	if noun == "" {
		noun = "rows"
	}
	count := len(m.rows)
	if m.opts.Paging == ExternalPaging && m.total > 0 {
		count = m.total
	}
	parts := []string{fmt.Sprintf("%d %s", count, noun)}
	if n := len(m.PageRows()); n > 0 {
		parts = append(parts, fmt.Sprintf("row %d/%d", m.cursor+1, n))
	}
	if m.Pages() > 1 {
		parts = append(parts, fmt.Sprintf("page %d/%d", m.page, m.Pages()))
	}
	if m.filterKey != "" {
		parts = append(parts, fmt.Sprintf("filtered: %d/%d", len(m.rows), len(m.all)))
	}
	if meta := m.TableMeta(); meta != "" {
		parts = append(parts, meta)
	}
	return strings.Join(parts, "  ·  ")
}

func renderRow(cells []string, widths []int, style lipgloss.Style) string {
	parts := make([]string, 0, len(cells))
	for i, cell := range cells {
		if i >= len(widths) {
			continue
		}
		parts = append(parts, style.Width(widths[i]).Render(cell))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

func renderDivider(widths []int) string {
	total := 0
	for _, w := range widths {
		total += w
	}
	return strings.Repeat("─", total)
}

func formatHeaderLabel(label string) string {
	return strings.ToUpper(strings.ReplaceAll(label, "_", " "))
}
