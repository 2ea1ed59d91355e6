package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hylla/workboard/internal/domain"
	"github.com/hylla/workboard/internal/timeline"
)

// Board interaction defaults.
const (
	DefaultToastDuration   = 4 * time.Second
	DefaultPanelCloseDelay = 250 * time.Millisecond
)

// PanelMode identifies what the details panel is editing.
type PanelMode string

// PanelMode values.
const (
	PanelCreate PanelMode = "create"
	PanelEdit   PanelMode = "edit"
)

// PanelState is the details panel as seen by renderers.
// Closing is true while the close animation delay is pending.
type PanelState struct {
	Open    bool
	Closing bool
	Mode    PanelMode
	Form    OrderForm
}

// Toast is a transient user-facing message.
type Toast struct {
	Message string
	Visible bool
}

// HoverState tracks the pointer over empty row space.
type HoverState struct {
	WorkCenterID string
	MouseX       int
	Active       bool
}

// BoardState is a copy of the controller's transient UI state.
type BoardState struct {
	Zoom       timeline.Zoom
	Panel      PanelState
	Toast      Toast
	OpenMenuID string
	Hover      HoverState
	Scroll     int
	Viewport   int
}

// BoardConfig holds settings and collaborators for a Board.
type BoardConfig struct {
	Now             Clock
	After           AfterFunc
	Logger          Logger
	Zoom            timeline.Zoom
	Grid            timeline.GridOptions
	MinBarWidth     int
	ToastDuration   time.Duration
	PanelCloseDelay time.Duration
}

// Board is the view controller: it turns gestures into store calls and keeps panel,
// toast, menu, hover and scroll state. All scheduling decisions are delegated to the store.
type Board struct {
	mu    sync.Mutex
	store *Store
	cfg   BoardConfig
	log   Logger

	grid       timeline.Grid
	panel      PanelState
	toast      Toast
	toastGen   uint64
	openMenuID string
	hover      HoverState
	scroll     int
	viewport   int

	toastTimer *DelayTimer
	panelTimer *DelayTimer

	observers   registry
	unsubscribe func()
}

// NewBoard constructs a controller over store and builds the initial grid.
func NewBoard(store *Store, cfg BoardConfig) *Board {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	if _, err := timeline.ParseZoom(string(cfg.Zoom)); err != nil {
		cfg.Zoom = timeline.ZoomMonth
	}
	if cfg.MinBarWidth <= 0 {
		cfg.MinBarWidth = timeline.DefaultMinBarWidth
	}
	if cfg.ToastDuration <= 0 {
		cfg.ToastDuration = DefaultToastDuration
	}
	if cfg.PanelCloseDelay <= 0 {
		cfg.PanelCloseDelay = DefaultPanelCloseDelay
	}
	b := &Board{
		store:      store,
		cfg:        cfg,
		log:        cfg.Logger,
		toastTimer: NewDelayTimer(cfg.After),
		panelTimer: NewDelayTimer(cfg.After),
	}
	b.grid = timeline.BuildGrid(cfg.Now(), cfg.Zoom, cfg.Grid)
	b.unsubscribe = store.Subscribe(func(c Change) {
		b.observers.publish(c)
	})
	return b
}

// Close stops forwarding store changes and cancels pending timers.
func (b *Board) Close() {
	b.unsubscribe()
	b.toastTimer.Cancel()
	b.panelTimer.Cancel()
}

// Store returns the underlying schedule store.
func (b *Board) Store() *Store {
	return b.store
}

// Subscribe registers fn for board and store changes.
func (b *Board) Subscribe(fn func(Change)) func() {
	return b.observers.subscribe(fn)
}

// State returns a copy of the transient UI state.
func (b *Board) State() BoardState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BoardState{
		Zoom:       b.grid.Zoom,
		Panel:      b.panel,
		Toast:      b.toast,
		OpenMenuID: b.openMenuID,
		Hover:      b.hover,
		Scroll:     b.scroll,
		Viewport:   b.viewport,
	}
}

// Grid returns the current column grid.
func (b *Board) Grid() timeline.Grid {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.grid
}

// Zoom returns the active zoom level.
func (b *Board) Zoom() timeline.Zoom {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.grid.Zoom
}

// SetZoom rebuilds the grid for zoom and recentres on today. It reports whether anything changed.
func (b *Board) SetZoom(zoom timeline.Zoom) (bool, error) {
	if _, err := timeline.ParseZoom(string(zoom)); err != nil {
		return false, err
	}
	b.mu.Lock()
	if b.grid.Zoom == zoom {
		b.openMenuID = ""
		b.mu.Unlock()
		return false, nil
	}
	b.grid = timeline.BuildGrid(b.cfg.Now(), zoom, b.cfg.Grid)
	b.scroll = b.grid.ScrollTarget(b.viewport)
	b.openMenuID = ""
	b.mu.Unlock()

	b.log.Debug("zoom changed", "zoom", zoom)
	b.observers.publish(Change{Kind: ChangeZoom})
	return true, nil
}

// CycleZoom advances to the next zoom level.
func (b *Board) CycleZoom() timeline.Zoom {
	next := b.Zoom().Next()
	_, _ = b.SetZoom(next)
	return next
}

// MinBarWidth returns the presentation floor for bar widths.
func (b *Board) MinBarWidth() int {
	return b.cfg.MinBarWidth
}

// Bars places every order of workCenterID on the current grid.
func (b *Board) Bars(workCenterID string) []timeline.Bar {
	grid := b.Grid()
	return grid.Bars(b.store.OrdersFor(workCenterID), b.cfg.MinBarWidth)
}

// SetViewport records the visible canvas width and re-clamps the scroll offset.
func (b *Board) SetViewport(width int) {
	b.mu.Lock()
	b.viewport = max(width, 0)
	b.scroll = b.grid.ClampScroll(b.scroll, b.viewport)
	b.mu.Unlock()
}

// CenterOnToday scrolls so today is visible.
func (b *Board) CenterOnToday() int {
	b.mu.Lock()
	b.scroll = b.grid.ScrollTarget(b.viewport)
	scroll := b.scroll
	b.mu.Unlock()
	b.observers.publish(Change{Kind: ChangeScroll})
	return scroll
}

// ScrollBy pans the canvas by delta pixels, clamped to its bounds.
func (b *Board) ScrollBy(delta int) int {
	b.mu.Lock()
	return b.scrollToLocked(b.scroll + delta)
}

// ScrollTo pans the canvas to offset, clamped to its bounds.
func (b *Board) ScrollTo(offset int) int {
	b.mu.Lock()
	return b.scrollToLocked(offset)
}

// scrollToLocked expects b.mu held and releases it.
func (b *Board) scrollToLocked(offset int) int {
	b.scroll = b.grid.ClampScroll(offset, b.viewport)
	scroll := b.scroll
	b.mu.Unlock()
	b.observers.publish(Change{Kind: ChangeScroll})
	return scroll
}

// OpenCreate opens the panel in create mode for workCenterID, prefilling the start
// date from the clicked canvas offset.
func (b *Board) OpenCreate(workCenterID string, px int) PanelState {
	b.mu.Lock()
	b.panelTimer.Cancel()
	start := b.grid.DateAt(px)
	b.panel = PanelState{
		Open: true,
		Mode: PanelCreate,
		Form: OrderForm{
			WorkCenterID: strings.TrimSpace(workCenterID),
			Status:       string(domain.StatusOpen),
			StartDate:    start.String(),
		},
	}
	b.openMenuID = ""
	b.hover = HoverState{}
	panel := b.panel
	b.mu.Unlock()

	b.log.Debug("create panel opened", "work_center_id", workCenterID, "start_date", start)
	b.observers.publish(Change{Kind: ChangePanel})
	return panel
}

// OpenEdit opens the panel in edit mode for an existing order.
func (b *Board) OpenEdit(orderID string) (PanelState, error) {
	order, err := b.store.Order(orderID)
	if err != nil {
		b.ShowToast(UserMessage(err))
		return PanelState{}, err
	}
	b.mu.Lock()
	b.panelTimer.Cancel()
	b.panel = PanelState{Open: true, Mode: PanelEdit, Form: OrderFormFor(order)}
	b.openMenuID = ""
	panel := b.panel
	b.mu.Unlock()

	b.observers.publish(Change{Kind: ChangePanel, OrderID: order.ID})
	return panel, nil
}

// UpdateForm replaces the panel's working form without submitting it.
func (b *Board) UpdateForm(form OrderForm) {
	b.mu.Lock()
	if !b.panel.Open {
		b.mu.Unlock()
		return
	}
	b.panel.Form = form
	b.mu.Unlock()
	b.observers.publish(Change{Kind: ChangePanel})
}

// CancelPanel starts the close animation without saving.
func (b *Board) CancelPanel() {
	b.closePanel()
}

// closePanel marks the panel closing and clears it after the close delay.
func (b *Board) closePanel() {
	b.mu.Lock()
	if !b.panel.Open || b.panel.Closing {
		b.mu.Unlock()
		return
	}
	b.panel.Closing = true
	b.panelTimer.Schedule(b.cfg.PanelCloseDelay, b.finishPanelClose)
	b.mu.Unlock()
	b.observers.publish(Change{Kind: ChangePanel})
}

func (b *Board) finishPanelClose() {
	b.mu.Lock()
	if !b.panel.Closing {
		b.mu.Unlock()
		return
	}
	b.panel = PanelState{}
	b.mu.Unlock()
	b.observers.publish(Change{Kind: ChangePanel})
}

// Submit validates the panel form and saves it through the store.
// Any rejection is surfaced as a toast and returned; the panel stays open.
func (b *Board) Submit(ctx context.Context, form OrderForm) (domain.WorkOrder, error) {
	b.mu.Lock()
	mode := b.panel.Mode
	if b.panel.Open {
		b.panel.Form = form
	}
	b.mu.Unlock()

	in, err := ParseOrderForm(form)
	if err != nil {
		b.ShowToast(UserMessage(err))
		return domain.WorkOrder{}, err
	}

	var order domain.WorkOrder
	if mode == PanelEdit {
		order, err = b.store.UpdateOrder(ctx, in)
	} else {
		in.ID = ""
		order, err = b.store.CreateOrder(ctx, in)
	}
	if err != nil {
		b.log.Info("work order rejected", "mode", mode, "err", err)
		b.ShowToast(UserMessage(err))
		return domain.WorkOrder{}, err
	}
	b.closePanel()
	return order, nil
}

// Delete removes an order and closes its menu.
func (b *Board) Delete(ctx context.Context, orderID string) error {
	b.CloseMenu()
	if err := b.store.DeleteOrder(ctx, orderID); err != nil {
		b.ShowToast(UserMessage(err))
		return err
	}
	return nil
}

// ShowToast displays message and schedules its dismissal, replacing any pending dismissal.
func (b *Board) ShowToast(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	b.mu.Lock()
	b.toast = Toast{Message: message, Visible: true}
	b.toastGen++
	gen := b.toastGen
	b.toastTimer.Schedule(b.cfg.ToastDuration, func() {
		b.expireToast(gen)
	})
	b.mu.Unlock()
	b.observers.publish(Change{Kind: ChangeToast})
}

// DismissToast hides the toast immediately.
func (b *Board) DismissToast() {
	b.mu.Lock()
	b.toastTimer.Cancel()
	b.toastGen++
	hidden := b.hideToastLocked()
	b.mu.Unlock()
	if hidden {
		b.observers.publish(Change{Kind: ChangeToast})
	}
}

// expireToast hides the toast shown as generation gen. A newer toast is left alone.
func (b *Board) expireToast(gen uint64) {
	b.mu.Lock()
	hidden := b.toastGen == gen && b.hideToastLocked()
	b.mu.Unlock()
	if hidden {
		b.observers.publish(Change{Kind: ChangeToast})
	}
}

func (b *Board) hideToastLocked() bool {
	if !b.toast.Visible {
		return false
	}
	b.toast = Toast{}
	return true
}

// ToggleMenu opens the action menu for id, closing any other. Toggling the open id closes it.
func (b *Board) ToggleMenu(id string) string {
	b.mu.Lock()
	if b.openMenuID == id {
		b.openMenuID = ""
	} else {
		b.openMenuID = id
	}
	open := b.openMenuID
	b.mu.Unlock()
	b.observers.publish(Change{Kind: ChangeMenu, OrderID: open})
	return open
}

// CloseMenu closes whichever menu is open.
func (b *Board) CloseMenu() {
	b.mu.Lock()
	if b.openMenuID == "" {
		b.mu.Unlock()
		return
	}
	b.openMenuID = ""
	b.mu.Unlock()
	b.observers.publish(Change{Kind: ChangeMenu})
}

// HoverRow records the pointer over workCenterID's row at canvas offset mouseX.
func (b *Board) HoverRow(workCenterID string, mouseX int) {
	b.mu.Lock()
	b.hover = HoverState{WorkCenterID: workCenterID, MouseX: mouseX, Active: workCenterID != ""}
	b.mu.Unlock()
	b.observers.publish(Change{Kind: ChangeHover})
}

// LeaveRow clears the hover state.
func (b *Board) LeaveRow() {
	b.HoverRow("", 0)
}

// PlacementCue returns where the create cue renders for the hovered row.
func (b *Board) PlacementCue() (int, bool) {
	hover := b.State().Hover
	if !hover.Active {
		return 0, false
	}
	return timeline.PlacementCue(b.Bars(hover.WorkCenterID), hover.MouseX)
}

// IsExpectedRejection reports whether err is a validation outcome rather than a defect.
func IsExpectedRejection(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrOverlap) ||
		errors.Is(err, ErrMissingRequiredFields) ||
		errors.Is(err, ErrUnknownWorkCenter) ||
		errors.Is(err, ErrNotFound)
}
