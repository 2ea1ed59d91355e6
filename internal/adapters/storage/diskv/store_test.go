package diskv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hylla/workboard/internal/adapters/seed"
	"github.com/hylla/workboard/internal/app"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "docs")
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.BasePath() != dir {
		t.Fatalf("unexpected base path %q", s.BasePath())
	}
	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}
	if err := s.Put(ctx, "workboard.work-orders", []byte(`[]`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(ctx, "workboard.work-orders", []byte(`[1]`)); err != nil {
		t.Fatalf("Put(overwrite) error = %v", err)
	}
	value, ok, err := s.Get(ctx, "workboard.work-orders")
	if err != nil || !ok || string(value) != `[1]` {
		t.Fatalf("Get() = %q, %v, %v", value, ok, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "workboard.work-orders")); err != nil {
		t.Fatalf("expected flat file on disk: %v", err)
	}
	if keys := s.Keys(ctx); len(keys) != 1 || keys[0] != "workboard.work-orders" {
		t.Fatalf("unexpected keys %#v", keys)
	}
}

func TestStoreHonorsCanceledContext(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Put(ctx, "k", []byte("v")); err == nil {
		t.Fatal("expected canceled context error")
	}
	if _, _, err := s.Get(ctx, "k"); err == nil {
		t.Fatal("expected canceled context error")
	}
}

func TestStoreRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty base path")
	}
}

func TestStoreBacksScheduleStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	now := time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC)
	provider := seed.NewProvider(func() time.Time { return now })

	kv, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	store := app.NewStore(kv, provider, app.StoreConfig{})
	store.Load(ctx)
	if err := store.DeleteOrder(ctx, "wo-001"); err != nil {
		t.Fatalf("DeleteOrder() error = %v", err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("Open(reopen) error = %v", err)
	}
	report := app.NewStore(reopened, provider, app.StoreConfig{}).Load(ctx)
	if report.Source != app.LoadSourceStorage || report.WorkOrders != 7 {
		t.Fatalf("expected 7 stored orders, got %#v", report)
	}
}
