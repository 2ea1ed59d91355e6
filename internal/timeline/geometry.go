package timeline

import (
	"math"
	"time"

	"github.com/hylla/workboard/internal/domain"
)

// Placement cue sizing used when hovering empty row space.
const (
	// CueProbeWidth is the width of the rectangle tested against existing bars.
	CueProbeWidth = MonthColumnWidth
	// CueContainerWidth is the rendered width of the cue.
	CueContainerWidth = 130
)

// pixelEpsilon absorbs float error when a pixel sits exactly on a day boundary.
const pixelEpsilon = 1e-9

// Bar is the horizontal placement of one work order.
type Bar struct {
	Order domain.WorkOrder `json:"order"`
	Left  int              `json:"leftPx"`
	Width int              `json:"widthPx"`
}

// Right returns the pixel just past the bar's right edge.
func (b Bar) Right() int {
	return b.Left + b.Width
}

// DateToPixel returns the offset of d from start. Dates before start yield negative offsets.
func DateToPixel(d, start domain.Date, pxPerDay float64) int {
	return int(math.Round(float64(domain.DaysBetween(start, d)) * pxPerDay))
}

// PixelToDate returns the calendar day rendered at px.
// Each day owns the pixels from half a pixel before its own offset up to the next day's,
// which makes PixelToDate(DateToPixel(d)) == d for every scale above one pixel per day.
func PixelToDate(px int, start domain.Date, pxPerDay float64) domain.Date {
	if pxPerDay <= 0 {
		return start
	}
	days := math.Floor((float64(px)+0.5)/pxPerDay + pixelEpsilon)
	return start.AddDays(int(days))
}

// BarLeft returns the left pixel offset of order from start without clamping.
func BarLeft(order domain.WorkOrder, start domain.Date, pxPerDay float64) int {
	return DateToPixel(order.StartDate, start, pxPerDay)
}

// BarWidth returns the inclusive-day width of order, floored at minWidth.
func BarWidth(order domain.WorkOrder, pxPerDay float64, minWidth int) int {
	days := domain.DaysBetween(order.StartDate, order.EndDate) + 1
	width := int(math.Round(float64(days) * pxPerDay))
	return max(width, minWidth)
}

// PlaceBar computes the bar for order.
func PlaceBar(order domain.WorkOrder, start domain.Date, pxPerDay float64, minWidth int) Bar {
	return Bar{
		Order: order,
		Left:  BarLeft(order, start, pxPerDay),
		Width: BarWidth(order, pxPerDay, minWidth),
	}
}

// TodayOffset returns the pixel offset of the instant now, including the elapsed fraction of the day.
func TodayOffset(now time.Time, start domain.Date, pxPerDay float64) int {
	today := domain.DateOf(now)
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	fraction := now.Sub(midnight).Hours() / 24
	days := float64(domain.DaysBetween(start, today)) + fraction
	return int(math.Round(days * pxPerDay))
}

// PlacementCue returns where the create cue should render for a pointer at mouseX in a row.
// The cue is hidden when a probe rectangle centred on the pointer touches any bar.
func PlacementCue(bars []Bar, mouseX int) (int, bool) {
	half := float64(CueProbeWidth) / 2
	probeLeft := float64(mouseX) - half
	probeRight := float64(mouseX) + half
	for _, bar := range bars {
		if probeLeft < float64(bar.Right()) && probeRight > float64(bar.Left) {
			return 0, false
		}
	}
	return mouseX - CueContainerWidth/2, true
}
