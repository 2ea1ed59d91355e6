package tui

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	charmLog "github.com/charmbracelet/log"

	"github.com/hylla/workboard/internal/app"
	"github.com/hylla/workboard/internal/domain"
	"github.com/hylla/workboard/internal/timeline"
)

// Board layout defaults, in terminal cells unless noted.
const (
	defaultCellPx = 10
	labelWidth    = 20
	boardTop      = 2
	rowHeight     = 2
	changeBuffer  = 64
)

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeOrderInfo
	modeConfirmDelete
)

// orderFormFields stores order-form field keys in display/update order.
var orderFormFields = []string{"name", "work_center", "status", "start_date", "end_date", "description"}

// order-form field indexes used throughout keyboard/update logic.
const (
	formFieldName = iota
	formFieldWorkCenter
	formFieldStatus
	formFieldStart
	formFieldEnd
	formFieldDescription
)

// menuActions lists the per-order action menu entries.
var menuActions = []string{"Edit", "Delete"}

// boardChangedMsg carries one board or store notification into the update loop.
type boardChangedMsg struct {
	change app.Change
}

// actionMsg reports the outcome of a mutation command.
type actionMsg struct {
	status  string
	focusID string
	err     error
}

// Model is the terminal schedule board.
type Model struct {
	board           *app.Board
	keys            keyMap
	help            help.Model
	markdown        *markdownRenderer
	changes         chan app.Change
	unsubscribe     func()
	copyToClipboard func(string) error
	log             app.Logger
	cellPx          int
	actor           app.MutationActor

	ready    bool
	centered bool
	width    int
	height   int
	status   string

	mode            inputMode
	selectedRow     int
	selectedBar     int
	menuIndex       int
	infoOrderID     string
	pendingDeleteID string

	formInputs []textinput.Model
	formFocus  int
}

// NewModel constructs a board model over board and subscribes to its changes.
func NewModel(board *app.Board, opts ...Option) Model {
	changes := make(chan app.Change, changeBuffer)
	m := Model{
		board:           board,
		keys:            newKeyMap(),
		help:            help.New(),
		markdown:        &markdownRenderer{},
		changes:         changes,
		copyToClipboard: clipboard.WriteAll,
		log:             charmLog.New(io.Discard),
		cellPx:          defaultCellPx,
		status:          "loading...",
		selectedBar:     -1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.unsubscribe = board.Subscribe(func(c app.Change) {
		select {
		case changes <- c:
		default:
		}
	})
	m.clampSelection()
	return m
}

// Close stops listening for board changes.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

// waitForChange blocks until the board publishes a change.
func waitForChange(ch <-chan app.Change) tea.Cmd {
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return boardChangedMsg{change: change}
	}
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(max(0, msg.Width-2))
		m.board.SetViewport(m.viewportPx())
		if !m.centered {
			m.centered = true
			m.board.CenterOnToday()
		}
		if m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case boardChangedMsg:
		switch msg.change.Kind {
		case app.ChangeOrders, app.ChangeLoaded:
			m.clampSelection()
		case app.ChangePanel:
			if !m.board.State().Panel.Open {
				m.formInputs = nil
			}
		}
		return m, waitForChange(m.changes)

	case actionMsg:
		if msg.err != nil {
			if !app.IsExpectedRejection(msg.err) {
				m.log.Error("board action failed", "err", msg.err)
			}
			m.status = app.UserMessage(msg.err)
			return m, nil
		}
		m.clampSelection()
		if msg.focusID != "" {
			m.focusOrder(msg.focusID)
		}
		if msg.status != "" {
			m.status = msg.status
		}
		return m, nil

	case tea.KeyPressMsg:
		state := m.board.State()
		switch {
		case state.Panel.Open && !state.Panel.Closing && m.formInputs != nil:
			return m.handleFormKey(msg)
		case m.mode == modeConfirmDelete:
			return m.handleConfirmKey(msg)
		case m.mode == modeOrderInfo:
			return m.handleInfoKey(msg)
		case state.OpenMenuID != "":
			return m.handleMenuKey(msg, state.OpenMenuID)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	default:
		return m, nil
	}
}

// handleNormalModeKey handles board navigation and order actions.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.dismiss):
		if m.help.ShowAll {
			m.help.ShowAll = false
			return m, nil
		}
		if m.board.State().Toast.Visible {
			m.board.DismissToast()
		}
		m.board.LeaveRow()
		return m, nil
	case key.Matches(msg, m.keys.rowUp):
		m.moveRow(-1)
		return m, nil
	case key.Matches(msg, m.keys.rowDown):
		m.moveRow(1)
		return m, nil
	case key.Matches(msg, m.keys.nextOrder):
		m.moveBar(1)
		return m, nil
	case key.Matches(msg, m.keys.prevOrder):
		m.moveBar(-1)
		return m, nil
	case key.Matches(msg, m.keys.scrollLeft):
		m.board.ScrollBy(-m.scrollStep())
		return m, nil
	case key.Matches(msg, m.keys.scrollRight):
		m.board.ScrollBy(m.scrollStep())
		return m, nil
	case key.Matches(msg, m.keys.today):
		m.board.CenterOnToday()
		m.status = "today"
		return m, nil
	case key.Matches(msg, m.keys.zoomDay):
		return m.setZoom(timeline.ZoomDay)
	case key.Matches(msg, m.keys.zoomWeek):
		return m.setZoom(timeline.ZoomWeek)
	case key.Matches(msg, m.keys.zoomMonth):
		return m.setZoom(timeline.ZoomMonth)
	case key.Matches(msg, m.keys.cycleZoom):
		zoom := m.board.CycleZoom()
		m.status = "zoom: " + zoom.Label()
		return m, nil
	case key.Matches(msg, m.keys.newOrder):
		return m.startCreate(m.createAnchorPx())
	}

	order, ok := m.selectedOrder()
	if !ok {
		if key.Matches(msg, m.keys.editOrder, m.keys.orderInfo, m.keys.actionMenu, m.keys.deleteOrder, m.keys.copyID) {
			m.status = "no work order selected"
		}
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.editOrder):
		return m.startEdit(order.ID)
	case key.Matches(msg, m.keys.orderInfo):
		m.mode = modeOrderInfo
		m.infoOrderID = order.ID
		return m, nil
	case key.Matches(msg, m.keys.actionMenu):
		m.menuIndex = 0
		m.board.ToggleMenu(order.ID)
		return m, nil
	case key.Matches(msg, m.keys.deleteOrder):
		m.mode = modeConfirmDelete
		m.pendingDeleteID = order.ID
		m.status = "confirm delete"
		return m, nil
	case key.Matches(msg, m.keys.copyID):
		if err := m.copyToClipboard(order.ID); err != nil {
			m.status = "copy failed: " + err.Error()
			return m, nil
		}
		m.status = "copied " + order.ID
		return m, nil
	}
	return m, nil
}

// handleFormKey routes keys to the details panel form.
func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.board.CancelPanel()
		m.formInputs = nil
		m.status = "cancelled"
		return m, nil
	case "tab", "down":
		return m, m.focusFormField(m.formFocus + 1)
	case "shift+tab", "up":
		return m, m.focusFormField(m.formFocus - 1)
	case "enter":
		return m, m.submitForm()
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	m.board.UpdateForm(m.formValues())
	return m, cmd
}

// handleMenuKey handles the per-order action menu.
func (m Model) handleMenuKey(msg tea.KeyPressMsg, orderID string) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.dismiss), key.Matches(msg, m.keys.actionMenu):
		m.board.CloseMenu()
		return m, nil
	case key.Matches(msg, m.keys.rowUp):
		m.menuIndex = clamp(m.menuIndex-1, 0, len(menuActions)-1)
		return m, nil
	case key.Matches(msg, m.keys.rowDown):
		m.menuIndex = clamp(m.menuIndex+1, 0, len(menuActions)-1)
		return m, nil
	case msg.String() == "e":
		m.menuIndex = 0
	case key.Matches(msg, m.keys.deleteOrder):
		m.menuIndex = 1
	case msg.String() != "enter":
		return m, nil
	}
	if m.menuIndex == 0 {
		return m.startEdit(orderID)
	}
	return m, m.deleteOrder(orderID)
}

// handleConfirmKey handles the delete confirmation prompt.
func (m Model) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "y":
		id := m.pendingDeleteID
		m.mode = modeNone
		m.pendingDeleteID = ""
		return m, m.deleteOrder(id)
	case "esc", "n":
		m.mode = modeNone
		m.pendingDeleteID = ""
		m.status = "delete cancelled"
	}
	return m, nil
}

// handleInfoKey handles the order info view.
func (m Model) handleInfoKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.dismiss), key.Matches(msg, m.keys.orderInfo):
		m.mode = modeNone
		m.infoOrderID = ""
	case key.Matches(msg, m.keys.editOrder):
		id := m.infoOrderID
		m.mode = modeNone
		m.infoOrderID = ""
		return m.startEdit(id)
	}
	return m, nil
}

// handleMouseWheel pans the canvas.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp, tea.MouseWheelLeft:
		m.board.ScrollBy(-m.scrollStep())
	case tea.MouseWheelDown, tea.MouseWheelRight:
		m.board.ScrollBy(m.scrollStep())
	}
	return m, nil
}

// handleMouseClick selects bars and opens the create panel on empty row space.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll || m.mode != modeNone {
		return m, nil
	}
	state := m.board.State()
	if state.Panel.Open && !state.Panel.Closing {
		return m, nil
	}
	if state.OpenMenuID != "" {
		m.board.CloseMenu()
	}
	rowIdx, px, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	rows := m.board.View().Rows
	sameRow := m.selectedRow == rowIdx
	m.selectedRow = rowIdx
	bars := sortedBars(rows[rowIdx].Bars)
	for idx, bar := range bars {
		if px >= bar.Left && px < bar.Right() {
			if sameRow && m.selectedBar == idx && state.OpenMenuID == "" {
				m.menuIndex = 0
				m.board.ToggleMenu(bar.Order.ID)
			}
			m.selectedBar = idx
			return m, nil
		}
	}
	m.clampSelection()
	return m.startCreate(px)
}

// handleMouseMotion tracks the hover placement cue.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	rowIdx, px, ok := m.hitTest(msg.X, msg.Y)
	if !ok {
		if m.board.State().Hover.Active {
			m.board.LeaveRow()
		}
		return m, nil
	}
	rows := m.board.View().Rows
	m.board.HoverRow(rows[rowIdx].WorkCenter.ID, px)
	return m, nil
}

// hitTest maps a terminal position to a work center row and a canvas pixel offset.
func (m Model) hitTest(x, y int) (int, int, bool) {
	if x < labelWidth || y < boardTop {
		return 0, 0, false
	}
	rel := y - boardTop
	if rel%rowHeight != 0 {
		return 0, 0, false
	}
	rowIdx := rel / rowHeight
	if rowIdx >= len(m.board.Store().WorkCenters()) {
		return 0, 0, false
	}
	cell := x - labelWidth
	if cell >= m.canvasCells() {
		return 0, 0, false
	}
	px := m.board.State().Scroll + cell*m.cellPx + m.cellPx/2
	return rowIdx, px, true
}

// setZoom switches zoom and reports it in the status line.
func (m Model) setZoom(zoom timeline.Zoom) (tea.Model, tea.Cmd) {
	if _, err := m.board.SetZoom(zoom); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.status = "zoom: " + zoom.Label()
	m.ensureSelectedVisible()
	return m, nil
}

// startCreate opens the create panel for the selected row at px.
func (m Model) startCreate(px int) (tea.Model, tea.Cmd) {
	centers := m.board.Store().WorkCenters()
	if len(centers) == 0 {
		m.status = "no work centers"
		return m, nil
	}
	center := centers[clamp(m.selectedRow, 0, len(centers)-1)]
	panel := m.board.OpenCreate(center.ID, px)
	m.status = "new work order"
	return m, m.startForm(panel)
}

// startEdit opens the edit panel for orderID.
func (m Model) startEdit(orderID string) (tea.Model, tea.Cmd) {
	panel, err := m.board.OpenEdit(orderID)
	if err != nil {
		m.status = app.UserMessage(err)
		return m, nil
	}
	m.status = "edit work order"
	return m, m.startForm(panel)
}

// startForm builds the form inputs from the panel's working form.
func (m *Model) startForm(panel app.PanelState) tea.Cmd {
	form := panel.Form
	m.formInputs = []textinput.Model{
		newModalInput("", "order name", form.Name, 120),
		newModalInput("", "wc-001", form.WorkCenterID, 64),
		newModalInput("", "open | in progress | complete | blocked", form.Status, 24),
		newModalInput("", "YYYY-MM-DD", form.StartDate, 10),
		newModalInput("", "YYYY-MM-DD", form.EndDate, 10),
		newModalInput("", "optional", form.Description, 500),
	}
	return m.focusFormField(formFieldName)
}

// focusFormField focuses order form field.
func (m *Model) focusFormField(idx int) tea.Cmd {
	if len(m.formInputs) == 0 {
		return nil
	}
	idx = clamp(idx, 0, len(m.formInputs)-1)
	m.formFocus = idx
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	return m.formInputs[idx].Focus()
}

// formValues reads the current form inputs.
func (m Model) formValues() app.OrderForm {
	form := m.board.State().Panel.Form
	if len(m.formInputs) != len(orderFormFields) {
		return form
	}
	form.Name = m.formInputs[formFieldName].Value()
	form.WorkCenterID = m.formInputs[formFieldWorkCenter].Value()
	form.Status = m.formInputs[formFieldStatus].Value()
	form.StartDate = m.formInputs[formFieldStart].Value()
	form.EndDate = m.formInputs[formFieldEnd].Value()
	form.Description = m.formInputs[formFieldDescription].Value()
	return form
}

// submitForm saves the panel form through the board.
func (m Model) submitForm() tea.Cmd {
	board := m.board
	form := m.formValues()
	ctx := m.mutationContext()
	return func() tea.Msg {
		order, err := board.Submit(ctx, form)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "saved " + order.Name, focusID: order.ID}
	}
}

// deleteOrder removes orderID through the board.
func (m Model) deleteOrder(orderID string) tea.Cmd {
	board := m.board
	ctx := m.mutationContext()
	return func() tea.Msg {
		if err := board.Delete(ctx, orderID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "deleted " + orderID}
	}
}

// mutationContext attributes board mutations to the configured actor, if any.
func (m Model) mutationContext() context.Context {
	ctx := context.Background()
	if m.actor.ActorID == "" {
		return ctx
	}
	return app.WithMutationActor(ctx, m.actor)
}

// moveRow moves the row selection by delta.
func (m *Model) moveRow(delta int) {
	rows := m.board.View().Rows
	if len(rows) == 0 {
		return
	}
	m.selectedRow = clamp(m.selectedRow+delta, 0, len(rows)-1)
	m.selectedBar = 0
	m.clampSelection()
	m.ensureSelectedVisible()
}

// moveBar cycles the order selection within the current row.
func (m *Model) moveBar(delta int) {
	bars := m.currentBars()
	if len(bars) == 0 {
		m.selectedBar = -1
		return
	}
	m.selectedBar = (m.selectedBar + delta + len(bars)) % len(bars)
	m.ensureSelectedVisible()
}

// currentBars returns the selected row's bars ordered left to right.
func (m Model) currentBars() []timeline.Bar {
	rows := m.board.View().Rows
	if m.selectedRow < 0 || m.selectedRow >= len(rows) {
		return nil
	}
	return sortedBars(rows[m.selectedRow].Bars)
}

// selectedOrder returns the order under the bar selection.
func (m Model) selectedOrder() (domain.WorkOrder, bool) {
	bars := m.currentBars()
	if m.selectedBar < 0 || m.selectedBar >= len(bars) {
		return domain.WorkOrder{}, false
	}
	return bars[m.selectedBar].Order, true
}

// clampSelection keeps row and bar selection inside the current board.
func (m *Model) clampSelection() {
	rows := m.board.View().Rows
	if len(rows) == 0 {
		m.selectedRow = 0
		m.selectedBar = -1
		return
	}
	m.selectedRow = clamp(m.selectedRow, 0, len(rows)-1)
	bars := rows[m.selectedRow].Bars
	if len(bars) == 0 {
		m.selectedBar = -1
		return
	}
	m.selectedBar = clamp(m.selectedBar, 0, len(bars)-1)
}

// focusOrder selects the bar for orderID and scrolls it into view.
func (m *Model) focusOrder(orderID string) {
	for rowIdx, row := range m.board.View().Rows {
		for barIdx, bar := range sortedBars(row.Bars) {
			if bar.Order.ID == orderID {
				m.selectedRow = rowIdx
				m.selectedBar = barIdx
				m.ensureSelectedVisible()
				return
			}
		}
	}
}

// ensureSelectedVisible scrolls so the selected bar starts inside the viewport.
func (m *Model) ensureSelectedVisible() {
	bars := m.currentBars()
	if m.selectedBar < 0 || m.selectedBar >= len(bars) {
		return
	}
	bar := bars[m.selectedBar]
	state := m.board.State()
	if state.Viewport <= 0 {
		return
	}
	if bar.Left >= state.Scroll && bar.Left < state.Scroll+state.Viewport-m.cellPx {
		return
	}
	m.board.ScrollTo(bar.Left - 2*m.cellPx)
}

// createAnchorPx picks the canvas offset used to prefill a keyboard-created order.
func (m Model) createAnchorPx() int {
	state := m.board.State()
	rows := m.board.View().Rows
	if state.Hover.Active && m.selectedRow < len(rows) && state.Hover.WorkCenterID == rows[m.selectedRow].WorkCenter.ID {
		return state.Hover.MouseX
	}
	grid := m.board.Grid()
	if grid.TodayOffset >= state.Scroll && grid.TodayOffset < state.Scroll+state.Viewport {
		return grid.TodayOffset
	}
	return state.Scroll + state.Viewport/2
}

// canvasCells returns how many cells the timeline canvas spans.
func (m Model) canvasCells() int {
	return max(m.width-labelWidth, 0)
}

// viewportPx returns the canvas width in timeline pixels.
func (m Model) viewportPx() int {
	return m.canvasCells() * m.cellPx
}

// scrollStep returns the horizontal pan distance for one scroll key.
func (m Model) scrollStep() int {
	return max(m.viewportPx()/4, m.cellPx)
}

// sortedBars orders bars left to right.
func sortedBars(bars []timeline.Bar) []timeline.Bar {
	out := slices.Clone(bars)
	slices.SortStableFunc(out, func(a, b timeline.Bar) int {
		if a.Left != b.Left {
			return a.Left - b.Left
		}
		return strings.Compare(a.Order.ID, b.Order.ID)
	})
	return out
}

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// formLabel returns the display label for a form field key.
func formLabel(field string) string {
	switch field {
	case "work_center":
		return "Work center"
	case "start_date":
		return "Start date"
	case "end_date":
		return "End date"
	default:
		return strings.ToUpper(field[:1]) + field[1:]
	}
}

// centerName resolves a work center display name.
func (m Model) centerName(id string) string {
	center, err := m.board.Store().WorkCenter(id)
	if err != nil {
		return fmt.Sprintf("%s (unknown)", id)
	}
	return center.Name
}
