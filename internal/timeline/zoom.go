// Package timeline converts calendar dates to board pixels and builds the column grid.
package timeline

import (
	"errors"
	"strings"
)

// Zoom is the time-axis granularity of the board.
type Zoom string

// Zoom levels.
const (
	ZoomDay   Zoom = "day"
	ZoomWeek  Zoom = "week"
	ZoomMonth Zoom = "month"
)

// Fixed scale constants.
const (
	// MonthColumnWidth is the rendered width of every month column regardless of its length.
	MonthColumnWidth = 113
	// AverageMonthDays converts the month column width into a per-day scale.
	AverageMonthDays = 30
	// DayPxPerDay is the day-zoom scale.
	DayPxPerDay = 40
	// WeekPxPerDay is the week-zoom scale.
	WeekPxPerDay = 20
	// DefaultMinBarWidth keeps very short orders interactable.
	DefaultMinBarWidth = 24
)

// ErrInvalidZoom reports an unknown zoom level.
var ErrInvalidZoom = errors.New("invalid zoom level")

// Zooms returns the zoom levels from finest to coarsest.
func Zooms() []Zoom {
	return []Zoom{ZoomDay, ZoomWeek, ZoomMonth}
}

// ParseZoom normalizes a zoom level name.
func ParseZoom(raw string) (Zoom, error) {
	switch z := Zoom(strings.ToLower(strings.TrimSpace(raw))); z {
	case ZoomDay, ZoomWeek, ZoomMonth:
		return z, nil
	default:
		return "", ErrInvalidZoom
	}
}

// PxPerDay returns the horizontal scale for z. Unknown levels fall back to month.
func (z Zoom) PxPerDay() float64 {
	switch z {
	case ZoomDay:
		return DayPxPerDay
	case ZoomWeek:
		return WeekPxPerDay
	default:
		return float64(MonthColumnWidth) / AverageMonthDays
	}
}

// Label returns the display name, e.g. "Month".
func (z Zoom) Label() string {
	switch z {
	case ZoomDay:
		return "Day"
	case ZoomWeek:
		return "Week"
	case ZoomMonth:
		return "Month"
	default:
		return string(z)
	}
}

// Next cycles to the next coarser zoom, wrapping to day after month.
func (z Zoom) Next() Zoom {
	switch z {
	case ZoomDay:
		return ZoomWeek
	case ZoomWeek:
		return ZoomMonth
	default:
		return ZoomDay
	}
}
