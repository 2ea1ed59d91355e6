package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/workboard/internal/app"
	"github.com/hylla/workboard/internal/domain"
	"github.com/hylla/workboard/internal/timeline"
)

// AdapterOptions configures timeline projections served over transports.
type AdapterOptions struct {
	Now         func() time.Time
	DefaultZoom timeline.Zoom
	Grid        timeline.GridOptions
	MinBarWidth int
}

// StoreAdapter maps transport contracts onto app.Store operations.
type StoreAdapter struct {
	store *app.Store
	opts  AdapterOptions
}

// NewStoreAdapter builds one common adapter over a loaded store.
func NewStoreAdapter(store *app.Store, opts AdapterOptions) *StoreAdapter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if _, err := timeline.ParseZoom(string(opts.DefaultZoom)); err != nil {
		opts.DefaultZoom = timeline.ZoomMonth
	}
	if opts.MinBarWidth <= 0 {
		opts.MinBarWidth = timeline.DefaultMinBarWidth
	}
	return &StoreAdapter{store: store, opts: opts}
}

// ListWorkCenters returns every work center in seed order.
func (a *StoreAdapter) ListWorkCenters(ctx context.Context) ([]domain.WorkCenter, error) {
	if err := a.ready(ctx); err != nil {
		return nil, err
	}
	return a.store.WorkCenters(), nil
}

// ListWorkOrders returns orders, optionally narrowed to one work center.
func (a *StoreAdapter) ListWorkOrders(ctx context.Context, in ListWorkOrdersRequest) ([]domain.WorkOrder, error) {
	if err := a.ready(ctx); err != nil {
		return nil, err
	}
	centerID := strings.TrimSpace(in.WorkCenterID)
	if centerID == "" {
		return a.store.Orders(), nil
	}
	if _, err := a.store.WorkCenter(centerID); err != nil {
		return nil, fmt.Errorf("list work orders: %w", errors.Join(ErrUnknownWorkCenter, fmt.Errorf("work center %q", centerID)))
	}
	return a.store.OrdersFor(centerID), nil
}

// GetWorkOrder returns one order by id.
func (a *StoreAdapter) GetWorkOrder(ctx context.Context, id string) (domain.WorkOrder, error) {
	if err := a.ready(ctx); err != nil {
		return domain.WorkOrder{}, err
	}
	order, err := a.store.Order(strings.TrimSpace(id))
	if err != nil {
		return domain.WorkOrder{}, mapAppError("get work order", err)
	}
	return order, nil
}

// CreateWorkOrder validates a complete payload and inserts a new order.
func (a *StoreAdapter) CreateWorkOrder(ctx context.Context, in SaveWorkOrderRequest) (domain.WorkOrder, error) {
	if err := a.ready(ctx); err != nil {
		return domain.WorkOrder{}, err
	}
	form := app.OrderForm{
		ID:           in.ID,
		Name:         in.Name,
		WorkCenterID: in.WorkCenterID,
		Status:       in.Status,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
	}
	if in.Description != nil {
		form.Description = *in.Description
	}
	input, err := app.ParseOrderForm(form)
	if err != nil {
		return domain.WorkOrder{}, mapAppError("create work order", err)
	}
	order, err := a.store.CreateOrder(ctx, input)
	if err != nil {
		return domain.WorkOrder{}, mapAppError("create work order", err)
	}
	return order, nil
}

// UpdateWorkOrder merges the non-empty fields of in onto an existing order.
func (a *StoreAdapter) UpdateWorkOrder(ctx context.Context, in SaveWorkOrderRequest) (domain.WorkOrder, error) {
	if err := a.ready(ctx); err != nil {
		return domain.WorkOrder{}, err
	}
	input, err := parsePartialInput(in)
	if err != nil {
		return domain.WorkOrder{}, mapAppError("update work order", err)
	}
	if input.ID == "" {
		return domain.WorkOrder{}, fmt.Errorf("update work order: id is required: %w", ErrInvalidRequest)
	}
	order, err := a.store.UpdateOrder(ctx, input)
	if err != nil {
		return domain.WorkOrder{}, mapAppError("update work order", err)
	}
	return order, nil
}

// DeleteWorkOrder removes one order by id.
func (a *StoreAdapter) DeleteWorkOrder(ctx context.Context, id string) error {
	if err := a.ready(ctx); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("delete work order: id is required: %w", ErrInvalidRequest)
	}
	if err := a.store.DeleteOrder(ctx, id); err != nil {
		return mapAppError("delete work order", err)
	}
	return nil
}

// Timeline projects the store onto a grid for the requested zoom and day.
func (a *StoreAdapter) Timeline(ctx context.Context, in TimelineRequest) (app.BoardView, error) {
	if err := a.ready(ctx); err != nil {
		return app.BoardView{}, err
	}
	zoom := a.opts.DefaultZoom
	if raw := strings.TrimSpace(in.Zoom); raw != "" {
		parsed, err := timeline.ParseZoom(raw)
		if err != nil {
			return app.BoardView{}, fmt.Errorf("timeline: %w", errors.Join(ErrInvalidRequest, err))
		}
		zoom = parsed
	}
	now := a.opts.Now()
	if raw := strings.TrimSpace(in.Today); raw != "" {
		day, err := domain.ParseDate(raw)
		if err != nil {
			return app.BoardView{}, fmt.Errorf("timeline: today: %w", errors.Join(ErrInvalidRequest, err))
		}
		now = day.Time()
	}
	grid := timeline.BuildGrid(now, zoom, a.opts.Grid)
	return app.BuildBoardView(a.store.WorkCenters(), a.store.Orders(), grid, a.opts.MinBarWidth), nil
}

// Audit reports existing overlaps and dangling work-center references.
func (a *StoreAdapter) Audit(ctx context.Context) (AuditReport, error) {
	if err := a.ready(ctx); err != nil {
		return AuditReport{}, err
	}
	return AuditReport{
		Overlaps:       a.store.AuditOverlaps(),
		OrphanOrderIDs: a.store.AuditReferences(),
	}, nil
}

// ready fails closed when the adapter is unconfigured or the request is canceled.
func (a *StoreAdapter) ready(ctx context.Context) error {
	if a == nil || a.store == nil {
		return fmt.Errorf("store adapter is not configured: %w", ErrInvalidRequest)
	}
	return ctx.Err()
}

// parsePartialInput converts update strings into a merge payload.
func parsePartialInput(in SaveWorkOrderRequest) (app.SaveOrderInput, error) {
	out := app.SaveOrderInput{
		ID:           strings.TrimSpace(in.ID),
		Name:         strings.TrimSpace(in.Name),
		WorkCenterID: strings.TrimSpace(in.WorkCenterID),
		Description:  in.Description,
	}
	if raw := strings.TrimSpace(in.Status); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return app.SaveOrderInput{}, err
		}
		out.Status = status
	}
	if raw := strings.TrimSpace(in.StartDate); raw != "" {
		start, err := domain.ParseDate(raw)
		if err != nil {
			return app.SaveOrderInput{}, fmt.Errorf("start_date: %w", err)
		}
		out.StartDate = start
	}
	if raw := strings.TrimSpace(in.EndDate); raw != "" {
		end, err := domain.ParseDate(raw)
		if err != nil {
			return app.SaveOrderInput{}, fmt.Errorf("end_date: %w", err)
		}
		out.EndDate = end
	}
	return out, nil
}

// mapAppError maps app and domain errors into transport-facing sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, app.ErrOverlap):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrConflict, err))
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrUnknownWorkCenter):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrUnknownWorkCenter, err))
	case errors.Is(err, app.ErrMissingRequiredFields),
		errors.Is(err, domain.ErrInvalidDateRange),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidWorkCenterID):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
