package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/hylla/workboard/internal/domain"
)

// minMarkdownWrap keeps narrow terminals readable.
const minMarkdownWrap = 24

// markdownRenderer renders markdown for terminal views and recreates the renderer when wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render converts markdown input into ANSI-styled terminal text with the requested wrap width.
func (r *markdownRenderer) render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}

	wrapWidth := max(width, minMarkdownWrap)

	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return markdown
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(rendered, "\n")
}

// orderMarkdown describes one work order for the info view.
func orderMarkdown(order domain.WorkOrder, centerName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", order.Name)
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| ID | `%s` |\n", order.ID)
	fmt.Fprintf(&b, "| Work center | %s |\n", centerName)
	fmt.Fprintf(&b, "| Status | %s |\n", order.Status)
	fmt.Fprintf(&b, "| Start | %s |\n", order.StartDate)
	fmt.Fprintf(&b, "| End | %s |\n", order.EndDate)
	fmt.Fprintf(&b, "| Duration | %d days |\n", order.DurationDays())
	if desc := strings.TrimSpace(order.Description); desc != "" {
		fmt.Fprintf(&b, "\n%s\n", desc)
	}
	return b.String()
}
