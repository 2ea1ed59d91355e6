package tui

import (
	"testing"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// TestKeyMapDefaults verifies the default board bindings.
func TestKeyMapDefaults(t *testing.T) {
	k := newKeyMap()
	cases := []struct {
		name    string
		binding key.Binding
		msg     tea.KeyPressMsg
	}{
		{"new order", k.newOrder, keyRune('n')},
		{"edit with e", k.editOrder, keyRune('e')},
		{"edit with enter", k.editOrder, tea.KeyPressMsg{Code: tea.KeyEnter}},
		{"cycle zoom", k.cycleZoom, keyRune('z')},
		{"delete", k.deleteOrder, keyRune('x')},
		{"next order", k.nextOrder, tea.KeyPressMsg{Code: tea.KeyTab}},
		{"row down arrow", k.rowDown, tea.KeyPressMsg{Code: tea.KeyDown}},
		{"quit", k.quit, keyRune('q')},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !key.Matches(tc.msg, tc.binding) {
				t.Fatalf("expected %q to match %#v", tc.msg.String(), tc.binding.Keys())
			}
		})
	}
}

// TestKeyMapHelpGroups verifies every binding is reachable from full help.
func TestKeyMapHelpGroups(t *testing.T) {
	k := newKeyMap()
	seen := map[string]bool{}
	for _, group := range k.FullHelp() {
		for _, b := range group {
			seen[b.Help().Desc] = true
		}
	}
	for _, want := range []string{"new order", "delete order", "copy order id", "day zoom", "today"} {
		if !seen[want] {
			t.Fatalf("expected %q in full help, got %#v", want, seen)
		}
	}
	if len(k.ShortHelp()) == 0 {
		t.Fatal("expected short help bindings")
	}
}
