package app

import (
	"context"
	"io"
	"time"

	charmLog "github.com/charmbracelet/log"

	"github.com/hylla/workboard/internal/domain"
)

// KeyValueStore persists opaque values under fixed keys.
// Get reports ok=false when the key has never been written.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// SeedSource supplies the cold-start work centers and work orders.
type SeedSource interface {
	WorkCenters() []domain.Envelope[domain.WorkCenter]
	WorkOrders() []domain.Envelope[domain.WorkOrder]
}

// ActivityLog records order-collection changes.
type ActivityLog interface {
	AppendChangeEvent(context.Context, domain.ChangeEvent) error
	ListChangeEvents(ctx context.Context, limit int) ([]domain.ChangeEvent, error)
}

// Logger is the structured logging surface used by the store and board.
// *charmbracelet/log.Logger satisfies it.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// discardLogger returns a logger that drops every record.
func discardLogger() Logger {
	return charmLog.New(io.Discard)
}
