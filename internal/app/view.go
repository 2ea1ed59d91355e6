package app

import (
	"github.com/hylla/workboard/internal/domain"
	"github.com/hylla/workboard/internal/timeline"
)

// RowView is one work center row with its placed bars.
type RowView struct {
	WorkCenter domain.WorkCenter `json:"workCenter"`
	Bars       []timeline.Bar    `json:"bars"`
}

// BoardView is a render-ready projection of the whole board.
type BoardView struct {
	Grid    timeline.Grid      `json:"grid"`
	Rows    []RowView          `json:"rows"`
	Orphans []domain.WorkOrder `json:"orphans"`
}

// BuildBoardView places every order on grid, grouped by work center in seed order.
// Orders whose work center is unknown are returned separately and never rendered in a row.
func BuildBoardView(centers []domain.WorkCenter, orders []domain.WorkOrder, grid timeline.Grid, minWidth int) BoardView {
	byCenter := make(map[string][]domain.WorkOrder, len(centers))
	known := make(map[string]struct{}, len(centers))
	for _, c := range centers {
		known[c.ID] = struct{}{}
	}
	orphans := make([]domain.WorkOrder, 0)
	for _, o := range orders {
		if _, ok := known[o.WorkCenterID]; !ok {
			orphans = append(orphans, o)
			continue
		}
		byCenter[o.WorkCenterID] = append(byCenter[o.WorkCenterID], o)
	}
	rows := make([]RowView, 0, len(centers))
	for _, c := range centers {
		rows = append(rows, RowView{
			WorkCenter: c,
			Bars:       grid.Bars(byCenter[c.ID], minWidth),
		})
	}
	return BoardView{Grid: grid, Rows: rows, Orphans: orphans}
}

// View projects the store through the board's current grid.
func (b *Board) View() BoardView {
	return BuildBoardView(b.store.WorkCenters(), b.store.Orders(), b.Grid(), b.cfg.MinBarWidth)
}
