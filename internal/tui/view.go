package tui

import (
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hylla/workboard/internal/app"
	"github.com/hylla/workboard/internal/domain"
	"github.com/hylla/workboard/internal/timeline"
)

// canvas cell owners other than bar indexes.
const (
	ownerEmpty = -1
	ownerToday = -2
	ownerCue   = -3
	ownerGrid  = -4
	ownerLabel = -5
)

// cell is one rendered canvas rune and what drew it.
type cell struct {
	r     rune
	owner int
}

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.renderContent())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderContent renders the full board screen, or a placeholder before the first resize.
func (m Model) renderContent() string {
	if !m.ready {
		return "loading..."
	}
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	state := m.board.State()
	board := m.board.View()

	sections := []string{
		m.renderTitle(board.Grid, state, accent, muted),
		m.renderColumnHeader(board.Grid, state.Scroll, accent, muted),
	}
	if len(board.Rows) == 0 {
		sections = append(sections, lipgloss.NewStyle().Foreground(muted).Render("No work centers."))
	}
	for idx, row := range board.Rows {
		sections = append(sections, m.renderRow(idx, row, board.Grid, state, accent, dim), "")
	}
	if n := len(board.Orphans); n > 0 {
		sections = append(sections, lipgloss.NewStyle().Foreground(lipgloss.Color("214")).
			Render(fmt.Sprintf("%d work order(s) reference unknown work centers", n)))
	}
	sections = append(sections, renderLegend(muted))
	if overlay := m.renderOverlay(state, accent, muted); overlay != "" {
		sections = append(sections, "", overlay)
	}
	if s := strings.TrimSpace(m.status); s != "" && s != "ready" {
		sections = append(sections, lipgloss.NewStyle().Foreground(dim).Render(s))
	}
	content := strings.Join(sections, "\n")

	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(m.help.View(m.keys))
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	return content + "\n" + helpLine
}

// renderTitle renders the title bar with zoom, window, and toast.
func (m Model) renderTitle(grid timeline.Grid, state app.BoardState, accent, muted color.Color) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render("workboard")
	meta := lipgloss.NewStyle().Foreground(muted).Render(fmt.Sprintf(
		" · %s view · %s to %s · today %s",
		grid.Zoom.Label(), grid.Start, grid.End, grid.Today,
	))
	line := title + meta
	if state.Toast.Visible {
		toast := lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(accent).
			Padding(0, 1).
			Render(state.Toast.Message)
		line += "  " + toast
	}
	return line
}

// renderColumnHeader renders the visible column labels above the rows.
func (m Model) renderColumnHeader(grid timeline.Grid, scroll int, accent, muted color.Color) string {
	cells := newCells(m.canvasCells())
	current := -1
	for idx, col := range grid.Columns {
		start := m.cellAt(col.StartOffsetPx, scroll)
		end := m.cellAt(col.StartOffsetPx+col.WidthPx-1, scroll)
		if end < 0 || start >= len(cells) {
			continue
		}
		owner := ownerLabel
		if col.IsCurrent {
			owner = idx
			current = idx
		}
		writeText(cells, max(start, 0), end, col.Label, owner)
	}
	header := padRight("Work center", labelWidth)
	return lipgloss.NewStyle().Foreground(muted).Render(header) + renderCells(cells, func(owner int) lipgloss.Style {
		if owner == current && owner >= 0 {
			return lipgloss.NewStyle().Bold(true).Foreground(accent)
		}
		return lipgloss.NewStyle().Foreground(muted)
	})
}

// renderRow renders one work center row with its bars, the today marker, and the placement cue.
func (m Model) renderRow(rowIdx int, row app.RowView, grid timeline.Grid, state app.BoardState, accent, dim color.Color) string {
	cells := newCells(m.canvasCells())
	for _, col := range grid.Columns {
		if c := m.cellAt(col.StartOffsetPx, state.Scroll); c >= 0 && c < len(cells) {
			cells[c] = cell{r: '┊', owner: ownerGrid}
		}
	}
	if c := m.cellAt(grid.TodayOffset, state.Scroll); c >= 0 && c < len(cells) {
		cells[c] = cell{r: '│', owner: ownerToday}
	}
	bars := sortedBars(row.Bars)
	for idx, bar := range bars {
		start := m.cellAt(bar.Left, state.Scroll)
		end := max(m.cellAt(bar.Right()-1, state.Scroll), start)
		if end < 0 || start >= len(cells) {
			continue
		}
		for c := max(start, 0); c <= min(end, len(cells)-1); c++ {
			cells[c] = cell{r: ' ', owner: idx}
		}
		writeText(cells, max(start, 0)+1, end, bar.Order.Name, idx)
	}
	if state.Hover.Active && state.Hover.WorkCenterID == row.WorkCenter.ID {
		if left, ok := m.board.PlacementCue(); ok {
			start := m.cellAt(left, state.Scroll)
			end := m.cellAt(left+timeline.CueContainerWidth-1, state.Scroll)
			writeText(cells, max(start, 0), end, "+ add order", ownerCue)
		}
	}

	selected := rowIdx == m.selectedRow
	marker := "  "
	if selected {
		marker = "› "
	}
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	if selected {
		labelStyle = labelStyle.Bold(true).Foreground(accent)
	}
	label := labelStyle.Render(padRight(marker+truncate(row.WorkCenter.Name, labelWidth-3), labelWidth))

	return label + renderCells(cells, func(owner int) lipgloss.Style {
		switch {
		case owner >= 0:
			order := bars[owner].Order
			style := lipgloss.NewStyle().
				Background(statusColor(order.Status)).
				Foreground(lipgloss.Color("16"))
			if selected && owner == m.selectedBar {
				style = style.Bold(true).Underline(true)
			}
			if state.OpenMenuID == order.ID {
				style = style.Reverse(true)
			}
			return style
		case owner == ownerToday:
			return lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		case owner == ownerCue:
			return lipgloss.NewStyle().Foreground(accent).Bold(true)
		case owner == ownerGrid:
			return lipgloss.NewStyle().Foreground(dim)
		default:
			return lipgloss.NewStyle()
		}
	})
}

// renderOverlay renders whichever modal surface is active.
func (m Model) renderOverlay(state app.BoardState, accent, muted color.Color) string {
	boxWidth := min(max(m.width-4, 30), 72)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(boxWidth)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	switch {
	case state.Panel.Open:
		return m.renderPanel(state.Panel, box, titleStyle, hintStyle)
	case m.mode == modeConfirmDelete:
		order, err := m.board.Store().Order(m.pendingDeleteID)
		name := m.pendingDeleteID
		if err == nil {
			name = order.Name
		}
		return box.Render(strings.Join([]string{
			titleStyle.Render("Delete work order"),
			fmt.Sprintf("Delete %s (%s)?", name, m.pendingDeleteID),
			hintStyle.Render("enter confirm • esc cancel"),
		}, "\n"))
	case m.mode == modeOrderInfo:
		order, err := m.board.Store().Order(m.infoOrderID)
		if err != nil {
			return box.Render(hintStyle.Render("work order not found"))
		}
		body := m.markdown.render(orderMarkdown(order, m.centerName(order.WorkCenterID)), boxWidth-4)
		return box.Render(body + "\n" + hintStyle.Render("e edit • esc close"))
	case state.OpenMenuID != "":
		order, err := m.board.Store().Order(state.OpenMenuID)
		if err != nil {
			return ""
		}
		lines := []string{titleStyle.Render(order.Name)}
		for idx, action := range menuActions {
			prefix := "  "
			if idx == m.menuIndex {
				prefix = "› "
			}
			lines = append(lines, prefix+action)
		}
		lines = append(lines, hintStyle.Render("enter select • esc close"))
		return box.Width(min(boxWidth, 36)).Render(strings.Join(lines, "\n"))
	}
	return ""
}

// renderPanel renders the details panel form.
func (m Model) renderPanel(panel app.PanelState, box, titleStyle, hintStyle lipgloss.Style) string {
	title := "New work order"
	if panel.Mode == app.PanelEdit {
		title = "Edit work order " + panel.Form.ID
	}
	lines := []string{titleStyle.Render(title)}
	if panel.Closing || m.formInputs == nil {
		lines = append(lines, hintStyle.Render("closing..."))
		return box.Faint(true).Render(strings.Join(lines, "\n"))
	}
	for idx, field := range orderFormFields {
		prefix := "  "
		if idx == m.formFocus {
			prefix = "› "
		}
		lines = append(lines, prefix+padRight(formLabel(field)+":", 13)+m.formInputs[idx].View())
	}
	lines = append(lines, hintStyle.Render("enter save • tab next field • esc cancel"))
	return box.Render(strings.Join(lines, "\n"))
}

// renderLegend renders the status color key.
func renderLegend(muted color.Color) string {
	parts := make([]string, 0, len(domain.Statuses()))
	for _, s := range domain.Statuses() {
		swatch := lipgloss.NewStyle().Foreground(statusColor(s)).Render("■")
		parts = append(parts, swatch+" "+lipgloss.NewStyle().Foreground(muted).Render(string(s)))
	}
	return strings.Join(parts, "  ")
}

// statusColor maps an order status to its bar color.
func statusColor(s domain.Status) color.Color {
	switch s {
	case domain.StatusInProgress:
		return lipgloss.Color("141")
	case domain.StatusComplete:
		return lipgloss.Color("78")
	case domain.StatusBlocked:
		return lipgloss.Color("214")
	default:
		return lipgloss.Color("75")
	}
}

// cellAt converts a canvas pixel offset to a cell index relative to scroll.
func (m Model) cellAt(px, scroll int) int {
	d := px - scroll
	if d < 0 {
		return -((-d + m.cellPx - 1) / m.cellPx)
	}
	return d / m.cellPx
}

// newCells returns n empty cells.
func newCells(n int) []cell {
	out := make([]cell, n)
	for i := range out {
		out[i] = cell{r: ' ', owner: ownerEmpty}
	}
	return out
}

// writeText writes text into cells[start..end] inclusive, truncating at end.
func writeText(cells []cell, start, end int, text string, owner int) {
	if start < 0 || start >= len(cells) {
		return
	}
	end = min(end, len(cells)-1)
	for _, r := range text {
		if start > end {
			return
		}
		cells[start] = cell{r: r, owner: owner}
		start++
	}
}

// renderCells renders runs of cells that share an owner with one style each.
func renderCells(cells []cell, styleFor func(owner int) lipgloss.Style) string {
	var (
		out   strings.Builder
		run   strings.Builder
		owner = ownerEmpty
	)
	flush := func() {
		if run.Len() == 0 {
			return
		}
		out.WriteString(styleFor(owner).Render(run.String()))
		run.Reset()
	}
	for i, c := range cells {
		if i == 0 || c.owner != owner {
			flush()
			owner = c.owner
		}
		run.WriteRune(c.r)
	}
	flush()
	return out.String()
}

// truncate shortens s to width runes with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
