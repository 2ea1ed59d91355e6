package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hylla/workboard/internal/adapters/seed"
	"github.com/hylla/workboard/internal/app"
	"github.com/hylla/workboard/internal/timeline"
)

// adapterNow anchors seed dates so wo-001 spans 2026-01-26..2026-03-27 on wc-001.
var adapterNow = time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)

// newSeededAdapter returns an adapter over an in-memory store loaded from seed data.
func newSeededAdapter(t *testing.T) (*StoreAdapter, *app.Store) {
	t.Helper()
	now := func() time.Time { return adapterNow }
	n := 0
	store := app.NewStore(nil, seed.NewProvider(now), app.StoreConfig{
		Clock: now,
		IDGen: func() string {
			n++
			return fmt.Sprintf("wo-new-%d", n)
		},
	})
	store.Load(context.Background())
	return NewStoreAdapter(store, AdapterOptions{Now: now}), store
}

func strPtr(s string) *string { return &s }

// TestStoreAdapterCreateWorkOrder verifies create defaults and id generation.
func TestStoreAdapterCreateWorkOrder(t *testing.T) {
	adapter, store := newSeededAdapter(t)
	order, err := adapter.CreateWorkOrder(context.Background(), SaveWorkOrderRequest{
		Name:         "Spindle Batch",
		WorkCenterID: "wc-005",
		StartDate:    "2026-01-01",
		EndDate:      "2026-01-10",
	})
	if err != nil {
		t.Fatalf("CreateWorkOrder() error = %v", err)
	}
	if order.ID != "wo-new-1" || order.Status != "Open" {
		t.Fatalf("unexpected order %#v", order)
	}
	if len(store.OrdersFor("wc-005")) != 2 {
		t.Fatalf("expected order appended to wc-005")
	}
}

// TestStoreAdapterErrorMapping verifies store rejections map onto transport sentinels.
func TestStoreAdapterErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		req  SaveWorkOrderRequest
		want error
	}{
		{
			name: "missing fields",
			req:  SaveWorkOrderRequest{WorkCenterID: "wc-001"},
			want: ErrInvalidRequest,
		},
		{
			name: "reversed range",
			req:  SaveWorkOrderRequest{Name: "x", WorkCenterID: "wc-005", StartDate: "2026-01-10", EndDate: "2026-01-01"},
			want: ErrInvalidRequest,
		},
		{
			name: "overlap",
			req:  SaveWorkOrderRequest{Name: "x", WorkCenterID: "wc-001", StartDate: "2026-03-27", EndDate: "2026-04-01"},
			want: ErrConflict,
		},
		{
			name: "unknown center",
			req:  SaveWorkOrderRequest{Name: "x", WorkCenterID: "wc-404", StartDate: "2026-01-01", EndDate: "2026-01-02"},
			want: ErrUnknownWorkCenter,
		},
		{
			name: "bad status",
			req:  SaveWorkOrderRequest{Name: "x", WorkCenterID: "wc-005", Status: "paused", StartDate: "2026-01-01", EndDate: "2026-01-02"},
			want: ErrInvalidRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			adapter, _ := newSeededAdapter(t)
			_, err := adapter.CreateWorkOrder(context.Background(), tc.req)
			if !errors.Is(err, tc.want) {
				t.Fatalf("CreateWorkOrder() error = %v, want %v", err, tc.want)
			}
		})
	}
}

// TestStoreAdapterOverlapKeepsConflictIDs verifies conflict ids survive the mapping.
func TestStoreAdapterOverlapKeepsConflictIDs(t *testing.T) {
	adapter, _ := newSeededAdapter(t)
	_, err := adapter.CreateWorkOrder(context.Background(), SaveWorkOrderRequest{
		Name: "x", WorkCenterID: "wc-001", StartDate: "2026-03-01", EndDate: "2026-04-10",
	})
	var overlap *app.OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected OverlapError, got %v", err)
	}
	ids := overlap.ConflictIDs()
	if len(ids) != 2 || ids[0] != "wo-001" || ids[1] != "wo-002" {
		t.Fatalf("unexpected conflict ids %#v", ids)
	}
}

// TestStoreAdapterUpdateMergesFields verifies partial updates keep stored values.
func TestStoreAdapterUpdateMergesFields(t *testing.T) {
	adapter, _ := newSeededAdapter(t)
	ctx := context.Background()
	order, err := adapter.UpdateWorkOrder(ctx, SaveWorkOrderRequest{ID: "wo-008", Status: "blocked", Description: strPtr("")})
	if err != nil {
		t.Fatalf("UpdateWorkOrder() error = %v", err)
	}
	if order.Name != "Ship Prep #8899" || order.Status != "Blocked" || order.Description != "" {
		t.Fatalf("unexpected merged order %#v", order)
	}
	if _, err := adapter.UpdateWorkOrder(ctx, SaveWorkOrderRequest{ID: "wo-404", Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := adapter.UpdateWorkOrder(ctx, SaveWorkOrderRequest{Name: "x"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for missing id, got %v", err)
	}
	if _, err := adapter.UpdateWorkOrder(ctx, SaveWorkOrderRequest{ID: "wo-008", EndDate: "soon"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for bad date, got %v", err)
	}
}

// TestStoreAdapterListAndDelete verifies listing filters and delete mapping.
func TestStoreAdapterListAndDelete(t *testing.T) {
	adapter, _ := newSeededAdapter(t)
	ctx := context.Background()

	centers, err := adapter.ListWorkCenters(ctx)
	if err != nil || len(centers) != 5 {
		t.Fatalf("ListWorkCenters() = %d, %v", len(centers), err)
	}
	orders, err := adapter.ListWorkOrders(ctx, ListWorkOrdersRequest{WorkCenterID: "wc-001"})
	if err != nil || len(orders) != 2 {
		t.Fatalf("ListWorkOrders(wc-001) = %d, %v", len(orders), err)
	}
	if _, err := adapter.ListWorkOrders(ctx, ListWorkOrdersRequest{WorkCenterID: "nope"}); !errors.Is(err, ErrUnknownWorkCenter) {
		t.Fatalf("expected ErrUnknownWorkCenter, got %v", err)
	}
	if err := adapter.DeleteWorkOrder(ctx, "wo-001"); err != nil {
		t.Fatalf("DeleteWorkOrder() error = %v", err)
	}
	if err := adapter.DeleteWorkOrder(ctx, "wo-001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := adapter.GetWorkOrder(ctx, "wo-001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
}

// TestStoreAdapterTimeline verifies zoom selection, today override, and validation.
func TestStoreAdapterTimeline(t *testing.T) {
	adapter, _ := newSeededAdapter(t)
	ctx := context.Background()

	view, err := adapter.Timeline(ctx, TimelineRequest{})
	if err != nil {
		t.Fatalf("Timeline() error = %v", err)
	}
	if view.Grid.Zoom != timeline.ZoomMonth || len(view.Rows) != 5 {
		t.Fatalf("unexpected default timeline %#v", view.Grid)
	}
	if len(view.Grid.Columns) != 13 {
		t.Fatalf("expected 13 month columns, got %d", len(view.Grid.Columns))
	}

	view, err = adapter.Timeline(ctx, TimelineRequest{Zoom: "day", Today: "2026-06-10"})
	if err != nil {
		t.Fatalf("Timeline(day) error = %v", err)
	}
	if view.Grid.Zoom != timeline.ZoomDay || view.Grid.Today.String() != "2026-06-10" {
		t.Fatalf("unexpected day timeline zoom=%s today=%s", view.Grid.Zoom, view.Grid.Today)
	}

	if _, err := adapter.Timeline(ctx, TimelineRequest{Zoom: "year"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for bad zoom, got %v", err)
	}
	if _, err := adapter.Timeline(ctx, TimelineRequest{Today: "later"}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for bad today, got %v", err)
	}
}

// TestStoreAdapterAudit verifies audit reflects the loaded collection.
func TestStoreAdapterAudit(t *testing.T) {
	adapter, _ := newSeededAdapter(t)
	report, err := adapter.Audit(context.Background())
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	if len(report.Overlaps) != 0 || len(report.OrphanOrderIDs) != 0 {
		t.Fatalf("expected clean seed audit, got %#v", report)
	}
}

// TestStoreAdapterRejectsCanceledContext verifies canceled requests fail closed.
func TestStoreAdapterRejectsCanceledContext(t *testing.T) {
	adapter, _ := newSeededAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := adapter.ListWorkCenters(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
