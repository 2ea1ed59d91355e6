package timeline

import (
	"fmt"
	"math"
	"time"

	"github.com/hylla/workboard/internal/domain"
)

// DefaultWindowMonths is the lookback and lookahead used when GridOptions leaves them unset.
const DefaultWindowMonths = 6

// MaxWindowMonths is the largest lookback or lookahead a grid honors.
const MaxWindowMonths = 24

// scrollLeadPx keeps a sliver of the previous column visible when centring on today.
const scrollLeadPx = 20

// Column is one time bucket of the board header.
type Column struct {
	Key           string      `json:"key"`
	Label         string      `json:"label"`
	WidthPx       int         `json:"widthPx"`
	StartOffsetPx int         `json:"startOffsetPx"`
	IsCurrent     bool        `json:"isCurrent"`
	Start         domain.Date `json:"start"`
	End           domain.Date `json:"end"`
}

// Contains reports whether d falls inside the column's inclusive bucket.
func (c Column) Contains(d domain.Date) bool {
	return !d.Before(c.Start) && !d.After(c.End)
}

// GridOptions sizes the visible window around today.
type GridOptions struct {
	LookbackMonths  int
	LookaheadMonths int
}

func (o GridOptions) normalized() GridOptions {
	if o.LookbackMonths <= 0 {
		o.LookbackMonths = DefaultWindowMonths
	}
	if o.LookaheadMonths <= 0 {
		o.LookaheadMonths = DefaultWindowMonths
	}
	o.LookbackMonths = min(o.LookbackMonths, MaxWindowMonths)
	o.LookaheadMonths = min(o.LookaheadMonths, MaxWindowMonths)
	return o
}

// Grid is the computed time axis for one zoom level.
type Grid struct {
	Zoom        Zoom        `json:"zoom"`
	Start       domain.Date `json:"start"`
	End         domain.Date `json:"end"`
	Today       domain.Date `json:"today"`
	PxPerDay    float64     `json:"pxPerDay"`
	Columns     []Column    `json:"columns"`
	TotalWidth  int         `json:"totalWidthPx"`
	TodayOffset int         `json:"todayOffsetPx"`
}

// BuildGrid computes the column grid for the window surrounding now.
// The window starts on the first day of the month LookbackMonths before now
// and ends on the last day of the month LookaheadMonths after it.
func BuildGrid(now time.Time, zoom Zoom, opts GridOptions) Grid {
	if _, err := ParseZoom(string(zoom)); err != nil {
		zoom = ZoomMonth
	}
	opts = opts.normalized()
	today := domain.DateOf(now)
	start := today.FirstOfMonth(-opts.LookbackMonths)
	end := today.LastOfMonth(opts.LookaheadMonths)
	ppd := zoom.PxPerDay()

	var columns []Column
	switch zoom {
	case ZoomDay:
		columns = dayColumns(start, end, today, ppd)
	case ZoomWeek:
		columns = weekColumns(start, end, today, ppd)
	default:
		columns = monthColumns(start, end, today)
	}

	total := 0
	for _, col := range columns {
		total += col.WidthPx
	}
	return Grid{
		Zoom:        zoom,
		Start:       start,
		End:         end,
		Today:       today,
		PxPerDay:    ppd,
		Columns:     columns,
		TotalWidth:  total,
		TodayOffset: TodayOffset(now, start, ppd),
	}
}

func monthColumns(start, end, today domain.Date) []Column {
	out := make([]Column, 0, 13)
	offset := 0
	for cursor := start; !cursor.After(end); cursor = cursor.FirstOfMonth(1) {
		col := Column{
			Key:           cursor.Format("2006-01"),
			Label:         cursor.Format("Jan 2006"),
			WidthPx:       MonthColumnWidth,
			StartOffsetPx: offset,
			Start:         cursor,
			End:           cursor.LastOfMonth(0),
		}
		col.IsCurrent = col.Contains(today)
		out = append(out, col)
		offset += col.WidthPx
	}
	return out
}

func weekColumns(start, end, today domain.Date, ppd float64) []Column {
	width := int(math.Round(7 * ppd))
	out := make([]Column, 0, 60)
	offset := 0
	for cursor := start; !cursor.After(end); cursor = cursor.AddDays(7) {
		_, week := cursor.Time().ISOWeek()
		col := Column{
			Key:           "w-" + cursor.String(),
			Label:         fmt.Sprintf("W%d · %s", week, cursor.Format("Jan 2")),
			WidthPx:       width,
			StartOffsetPx: offset,
			Start:         cursor,
			End:           cursor.AddDays(6),
		}
		col.IsCurrent = col.Contains(today)
		out = append(out, col)
		offset += width
	}
	return out
}

func dayColumns(start, end, today domain.Date, ppd float64) []Column {
	width := int(math.Round(ppd))
	out := make([]Column, 0, domain.DaysBetween(start, end)+1)
	offset := 0
	for cursor := start; !cursor.After(end); cursor = cursor.AddDays(1) {
		out = append(out, Column{
			Key:           "d-" + cursor.String(),
			Label:         cursor.Format("Mon 2"),
			WidthPx:       width,
			StartOffsetPx: offset,
			IsCurrent:     cursor.Equal(today),
			Start:         cursor,
			End:           cursor,
		})
		offset += width
	}
	return out
}

// CurrentColumn returns the column flagged as containing today.
func (g Grid) CurrentColumn() (Column, bool) {
	for _, col := range g.Columns {
		if col.IsCurrent {
			return col, true
		}
	}
	return Column{}, false
}

// ColumnAt returns the column covering px.
func (g Grid) ColumnAt(px int) (Column, bool) {
	for _, col := range g.Columns {
		if px >= col.StartOffsetPx && px < col.StartOffsetPx+col.WidthPx {
			return col, true
		}
	}
	return Column{}, false
}

// ScrollTarget returns the horizontal scroll offset that brings today into view.
// It prefers the start of the current column and falls back to centring the today offset.
func (g Grid) ScrollTarget(viewportWidth int) int {
	target := g.TodayOffset - viewportWidth/2
	if col, ok := g.CurrentColumn(); ok {
		target = col.StartOffsetPx - scrollLeadPx
	}
	return g.ClampScroll(target, viewportWidth)
}

// ClampScroll bounds a scroll offset to the canvas.
func (g Grid) ClampScroll(offset, viewportWidth int) int {
	limit := max(g.TotalWidth-viewportWidth, 0)
	return min(max(offset, 0), limit)
}

// DateAt returns the calendar day rendered at px.
func (g Grid) DateAt(px int) domain.Date {
	return PixelToDate(px, g.Start, g.PxPerDay)
}

// OffsetOf returns the pixel offset of d.
func (g Grid) OffsetOf(d domain.Date) int {
	return DateToPixel(d, g.Start, g.PxPerDay)
}

// Bar places order on this grid.
func (g Grid) Bar(order domain.WorkOrder, minWidth int) Bar {
	return PlaceBar(order, g.Start, g.PxPerDay, minWidth)
}

// Bars places every order on this grid, keeping input order.
func (g Grid) Bars(orders []domain.WorkOrder, minWidth int) []Bar {
	out := make([]Bar, 0, len(orders))
	for _, order := range orders {
		out = append(out, g.Bar(order, minWidth))
	}
	return out
}
