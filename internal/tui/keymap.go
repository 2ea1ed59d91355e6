package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	toggleHelp  key.Binding
	rowUp       key.Binding
	rowDown     key.Binding
	nextOrder   key.Binding
	prevOrder   key.Binding
	scrollLeft  key.Binding
	scrollRight key.Binding
	today       key.Binding
	zoomDay     key.Binding
	zoomWeek    key.Binding
	zoomMonth   key.Binding
	cycleZoom   key.Binding
	newOrder    key.Binding
	editOrder   key.Binding
	orderInfo   key.Binding
	actionMenu  key.Binding
	deleteOrder key.Binding
	copyID      key.Binding
	dismiss     key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		rowUp:       key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "work center up")),
		rowDown:     key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "work center down")),
		nextOrder:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next order")),
		prevOrder:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous order")),
		scrollLeft:  key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "scroll back")),
		scrollRight: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "scroll forward")),
		today:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		zoomDay:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "day zoom")),
		zoomWeek:    key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "week zoom")),
		zoomMonth:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "month zoom")),
		cycleZoom:   key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "cycle zoom")),
		newOrder:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new order")),
		editOrder:   key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit order")),
		orderInfo:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "order info")),
		actionMenu:  key.NewBinding(key.WithKeys("."), key.WithHelp(".", "order actions")),
		deleteOrder: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete order")),
		copyID:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy order id")),
		dismiss:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.newOrder, k.editOrder, k.actionMenu, k.cycleZoom, k.today, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.rowUp, k.rowDown, k.nextOrder, k.prevOrder, k.scrollLeft, k.scrollRight, k.today},
		{k.zoomDay, k.zoomWeek, k.zoomMonth, k.cycleZoom},
		{k.newOrder, k.editOrder, k.orderInfo, k.actionMenu, k.deleteOrder, k.copyID},
		{k.dismiss, k.toggleHelp, k.quit},
	}
}
