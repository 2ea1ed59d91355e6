package domain

import "time"

// ChangeOperation describes a persisted activity operation for a work order.
type ChangeOperation string

// ChangeOperation values used by the local activity ledger.
const (
	ChangeOperationLoad   ChangeOperation = "load"
	ChangeOperationCreate ChangeOperation = "create"
	ChangeOperationUpdate ChangeOperation = "update"
	ChangeOperationDelete ChangeOperation = "delete"
	ChangeOperationImport ChangeOperation = "import"
)

// ChangeEvent represents a single activity-log entry for the order collection.
type ChangeEvent struct {
	ID           int64
	Operation    ChangeOperation
	WorkOrderID  string
	WorkCenterID string
	Metadata     map[string]string
	OccurredAt   time.Time
}
