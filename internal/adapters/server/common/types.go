// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"

	"github.com/hylla/workboard/internal/app"
	"github.com/hylla/workboard/internal/domain"
)

// ErrInvalidRequest reports malformed or incomplete transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrConflict reports a schedule collision with an existing order.
var ErrConflict = errors.New("schedule conflict")

// ErrUnknownWorkCenter reports a reference to a work center that does not exist.
var ErrUnknownWorkCenter = errors.New("unknown work center")

// ListWorkOrdersRequest filters the order listing.
type ListWorkOrdersRequest struct {
	WorkCenterID string `json:"work_center_id,omitempty"`
}

// SaveWorkOrderRequest captures create or update input as transport strings.
// On update, empty fields keep the stored value; Description is a pointer so it can be cleared.
type SaveWorkOrderRequest struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	WorkCenterID string  `json:"work_center_id"`
	Status       string  `json:"status,omitempty"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Description  *string `json:"description,omitempty"`
}

// TimelineRequest selects the zoom and reference day of a timeline projection.
type TimelineRequest struct {
	Zoom  string `json:"zoom,omitempty"`
	Today string `json:"today,omitempty"`
}

// AuditReport lists pre-existing schedule problems without repairing them.
type AuditReport struct {
	Overlaps       []domain.OverlapReport `json:"overlaps"`
	OrphanOrderIDs []string               `json:"orphan_order_ids"`
}

// BoardService is the transport-facing schedule surface.
type BoardService interface {
	ListWorkCenters(context.Context) ([]domain.WorkCenter, error)
	ListWorkOrders(context.Context, ListWorkOrdersRequest) ([]domain.WorkOrder, error)
	GetWorkOrder(context.Context, string) (domain.WorkOrder, error)
	CreateWorkOrder(context.Context, SaveWorkOrderRequest) (domain.WorkOrder, error)
	UpdateWorkOrder(context.Context, SaveWorkOrderRequest) (domain.WorkOrder, error)
	DeleteWorkOrder(context.Context, string) error
	Timeline(context.Context, TimelineRequest) (app.BoardView, error)
	Audit(context.Context) (AuditReport, error)
}

// ReadinessChecker reports whether backing storage is reachable.
type ReadinessChecker interface {
	Ping(context.Context) error
}
