package tui

import "github.com/hylla/workboard/internal/app"

// Option customizes a Model at construction.
type Option func(*Model)

// WithClipboard replaces the system clipboard writer used by the copy action.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyToClipboard = write
		}
	}
}

func WithLogger(logger app.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.log = logger
		}
	}
}

// WithCellWidth sets how many timeline pixels one terminal cell spans.
func WithCellWidth(px int) Option {
	return func(m *Model) {
		if px > 0 {
			m.cellPx = px
		}
	}
}

// WithActor attributes saves and deletes made from the board to actor.
func WithActor(actor app.MutationActor) Option {
	return func(m *Model) {
		m.actor = actor
	}
}
