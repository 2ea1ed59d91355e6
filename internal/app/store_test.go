package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hylla/workboard/internal/adapters/seed"
	"github.com/hylla/workboard/internal/domain"
)

type fakeKV struct {
	mu     sync.Mutex
	values map[string][]byte
	getErr error
	putErr error
	puts   int
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string][]byte{}}
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeKV) Put(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.values[key] = append([]byte(nil), value...)
	return nil
}

func (f *fakeKV) stored(t *testing.T, key string) []domain.Envelope[domain.WorkOrder] {
	t.Helper()
	f.mu.Lock()
	raw, ok := f.values[key]
	f.mu.Unlock()
	if !ok {
		t.Fatalf("expected key %q to be stored", key)
	}
	var envs []domain.Envelope[domain.WorkOrder]
	if err := json.Unmarshal(raw, &envs); err != nil {
		t.Fatalf("stored value is not an envelope array: %v", err)
	}
	return envs
}

type fakeSeed struct {
	centers []domain.WorkCenter
	orders  []domain.WorkOrder
}

func (f fakeSeed) WorkCenters() []domain.Envelope[domain.WorkCenter] {
	return domain.WrapAll(f.centers)
}

func (f fakeSeed) WorkOrders() []domain.Envelope[domain.WorkOrder] {
	return domain.WrapAll(f.orders)
}

type fakeActivity struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (f *fakeActivity) AppendChangeEvent(_ context.Context, ev domain.ChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev.ID = int64(len(f.events) + 1)
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeActivity) ListChangeEvents(_ context.Context, limit int) ([]domain.ChangeEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ChangeEvent, 0, len(f.events))
	for i := len(f.events) - 1; i >= 0; i-- {
		out = append(out, f.events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func date(raw string) domain.Date {
	return domain.MustParseDate(raw)
}

func testOrder(id, center, start, end string) domain.WorkOrder {
	return domain.WorkOrder{
		ID:           id,
		Name:         "Order " + id,
		WorkCenterID: center,
		Status:       domain.StatusOpen,
		StartDate:    date(start),
		EndDate:      date(end),
	}
}

func scenarioSeed() fakeSeed {
	return fakeSeed{
		centers: []domain.WorkCenter{
			{ID: "wc-1", Name: "CNC Milling", Color: "#3E40DB"},
			{ID: "wc-2", Name: "Laser Cutting", Color: "#5658FF"},
		},
		orders: []domain.WorkOrder{
			testOrder("wo-1", "wc-1", "2026-02-01", "2026-02-05"),
			testOrder("wo-2", "wc-2", "2026-02-01", "2026-02-28"),
		},
	}
}

func sequentialIDs() IDGenerator {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("gen-%d", n)
	}
}

func newScenarioStore(t *testing.T) (*Store, *fakeKV) {
	t.Helper()
	kv := newFakeKV()
	store := NewStore(kv, scenarioSeed(), StoreConfig{IDGen: sequentialIDs()})
	report := store.Load(context.Background())
	if report.Source != LoadSourceSeed {
		t.Fatalf("expected seed load for empty storage, got %q", report.Source)
	}
	return store, kv
}

func newInput(center, start, end string) SaveOrderInput {
	return SaveOrderInput{
		Name:         "New order",
		WorkCenterID: center,
		Status:       domain.StatusOpen,
		StartDate:    date(start),
		EndDate:      date(end),
	}
}

func TestStoreRejectsOverlapAndAcceptsNextDay(t *testing.T) {
	store, kv := newScenarioStore(t)
	ctx := context.Background()

	_, err := store.CreateOrder(ctx, newInput("wc-1", "2026-02-04", "2026-02-10"))
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("expected *OverlapError, got %T", err)
	}
	if ids := overlap.ConflictIDs(); len(ids) != 1 || ids[0] != "wo-1" {
		t.Fatalf("unexpected conflict ids %#v", ids)
	}
	if UserMessage(err) != MessageOverlap {
		t.Fatalf("unexpected user message %q", UserMessage(err))
	}
	if kv.puts != 0 {
		t.Fatalf("rejected save must not persist, got %d puts", kv.puts)
	}

	created, err := store.CreateOrder(ctx, newInput("wc-1", "2026-02-06", "2026-02-10"))
	if err != nil {
		t.Fatalf("CreateOrder(next day) error = %v", err)
	}
	if created.ID != "gen-1" {
		t.Fatalf("expected generated id gen-1, got %q", created.ID)
	}
	if got := len(store.OrdersFor("wc-1")); got != 2 {
		t.Fatalf("expected 2 orders on wc-1, got %d", got)
	}
	if reports := domain.FindOverlaps(store.OrdersFor("wc-1")); len(reports) != 0 {
		t.Fatalf("store accepted an overlapping order: %#v", reports)
	}
	if got := len(kv.stored(t, DefaultStorageKey)); got != 3 {
		t.Fatalf("expected 3 persisted orders, got %d", got)
	}
}

func TestStoreRejectsReversedRangeBeforeOverlap(t *testing.T) {
	store, kv := newScenarioStore(t)
	ctx := context.Background()

	_, err := store.CreateOrder(ctx, newInput("wc-1", "2026-02-10", "2026-02-05"))
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
	if UserMessage(err) != "Start date cannot be after end date." {
		t.Fatalf("unexpected user message %q", UserMessage(err))
	}

	// This reversed range would also intersect wo-1 if it were checked for overlap.
	_, err = store.CreateOrder(ctx, newInput("wc-1", "2026-02-05", "2026-02-03"))
	if !errors.Is(err, ErrInvalidDateRange) || errors.Is(err, ErrOverlap) {
		t.Fatalf("expected range error ahead of overlap, got %v", err)
	}
	if kv.puts != 0 {
		t.Fatalf("rejected save must not persist, got %d puts", kv.puts)
	}
}

func TestStoreDeleteRemovesExactlyOne(t *testing.T) {
	store, kv := newScenarioStore(t)
	ctx := context.Background()
	if _, err := store.CreateOrder(ctx, newInput("wc-1", "2026-03-01", "2026-03-05")); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	before := len(store.OrdersFor("wc-1"))

	if err := store.DeleteOrder(ctx, "wo-1"); err != nil {
		t.Fatalf("DeleteOrder() error = %v", err)
	}
	if got := len(store.OrdersFor("wc-1")); got != before-1 {
		t.Fatalf("expected %d orders after delete, got %d", before-1, got)
	}
	if _, err := store.Order("wo-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted order to be gone, got %v", err)
	}
	if got := len(kv.stored(t, DefaultStorageKey)); got != 2 {
		t.Fatalf("expected 2 persisted orders, got %d", got)
	}
	if err := store.DeleteOrder(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestStoreDeleteSkipsOverlapDetection(t *testing.T) {
	src := scenarioSeed()
	src.orders = append(src.orders,
		testOrder("wo-3", "wc-1", "2026-02-03", "2026-02-08"),
		testOrder("wo-4", "wc-1", "2026-03-01", "2026-03-02"),
	)
	kv := newFakeKV()
	store := NewStore(kv, src, StoreConfig{})
	if report := store.Load(context.Background()); len(report.Overlaps) == 0 {
		t.Fatal("expected the loaded wo-1/wo-3 overlap to be reported")
	}

	if err := store.DeleteOrder(context.Background(), "wo-4"); err != nil {
		t.Fatalf("DeleteOrder() with an unrelated overlap on the row error = %v", err)
	}
	if got := len(store.OrdersFor("wc-1")); got != 2 {
		t.Fatalf("expected wo-1 and wo-3 left on wc-1, got %d", got)
	}
	if got := len(kv.stored(t, DefaultStorageKey)); got != 3 {
		t.Fatalf("expected 3 persisted orders, got %d", got)
	}
}

func TestStoreCorruptedStorageFallsBackToSeed(t *testing.T) {
	now := time.Date(2026, time.February, 15, 9, 0, 0, 0, time.UTC)
	provider := seed.NewProvider(func() time.Time { return now })

	cases := map[string][]byte{
		"not json":      []byte("{{{"),
		"wrong shape":   []byte(`{"docId":"wo-1"}`),
		"null":          []byte("null"),
		"bad envelope":  []byte(`[{"docId":"x","docType":"work-order","data":{"id":"y","name":"n","workCenterId":"wc-001","status":"Open","startDate":"2026-02-01","endDate":"2026-02-02"}}]`),
		"invalid dates": []byte(`[{"docId":"x","docType":"work-order","data":{"id":"x","name":"n","workCenterId":"wc-001","status":"Open","startDate":"soon","endDate":"2026-02-02"}}]`),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			kv := newFakeKV()
			kv.values[DefaultStorageKey] = raw
			store := NewStore(kv, provider, StoreConfig{})
			report := store.Load(context.Background())
			if report.Source != LoadSourceSeed {
				t.Fatalf("expected seed fallback, got %q", report.Source)
			}
			if report.WorkCenters != 5 || report.WorkOrders != 8 {
				t.Fatalf("expected 5/8 seed counts, got %d/%d", report.WorkCenters, report.WorkOrders)
			}
			if len(store.Orders()) != 8 || len(store.WorkCenters()) != 5 {
				t.Fatalf("unexpected collections %d/%d", len(store.WorkCenters()), len(store.Orders()))
			}
		})
	}

	t.Run("read error", func(t *testing.T) {
		kv := newFakeKV()
		kv.getErr = errors.New("disk on fire")
		report := NewStore(kv, provider, StoreConfig{}).Load(context.Background())
		if report.Source != LoadSourceSeed || report.WorkOrders != 8 {
			t.Fatalf("unexpected report %#v", report)
		}
	})
}

func TestStoreLoadPrefersStoredOrders(t *testing.T) {
	store, kv := newScenarioStore(t)
	if _, err := store.CreateOrder(context.Background(), newInput("wc-2", "2026-03-01", "2026-03-02")); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	reloaded := NewStore(kv, scenarioSeed(), StoreConfig{})
	report := reloaded.Load(context.Background())
	if report.Source != LoadSourceStorage {
		t.Fatalf("expected storage load, got %q (%s)", report.Source, report.FallbackReason)
	}
	if report.WorkOrders != 3 {
		t.Fatalf("expected 3 stored orders, got %d", report.WorkOrders)
	}
	if got := reloaded.Orders()[2].ID; got != "gen-1" {
		t.Fatalf("expected collection order preserved, got %q last", got)
	}
}

func TestStoreIdenticalUpdateIsIdempotent(t *testing.T) {
	store, _ := newScenarioStore(t)
	before := store.Orders()
	current, err := store.Order("wo-1")
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	desc := current.Description
	updated, err := store.UpdateOrder(context.Background(), SaveOrderInput{
		ID:           current.ID,
		Name:         current.Name,
		WorkCenterID: current.WorkCenterID,
		Status:       current.Status,
		StartDate:    current.StartDate,
		EndDate:      current.EndDate,
		Description:  &desc,
	})
	if err != nil {
		t.Fatalf("UpdateOrder() error = %v", err)
	}
	if updated != current {
		t.Fatalf("expected unchanged order, got %#v", updated)
	}
	after := store.Orders()
	if len(after) != len(before) {
		t.Fatalf("order count changed from %d to %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("order %d changed: %#v -> %#v", i, before[i], after[i])
		}
	}
}

func TestStoreUpdateMergesUnspecifiedFields(t *testing.T) {
	store, _ := newScenarioStore(t)
	ctx := context.Background()
	desc := "first pass"
	if _, err := store.UpdateOrder(ctx, SaveOrderInput{ID: "wo-1", Description: &desc}); err != nil {
		t.Fatalf("UpdateOrder(description) error = %v", err)
	}
	updated, err := store.UpdateOrder(ctx, SaveOrderInput{ID: "wo-1", Name: "Renamed", Status: domain.StatusBlocked})
	if err != nil {
		t.Fatalf("UpdateOrder(name) error = %v", err)
	}
	if updated.Name != "Renamed" || updated.Status != domain.StatusBlocked {
		t.Fatalf("expected name/status applied, got %#v", updated)
	}
	if updated.StartDate.String() != "2026-02-01" || updated.EndDate.String() != "2026-02-05" {
		t.Fatalf("expected dates retained, got %s..%s", updated.StartDate, updated.EndDate)
	}
	if updated.Description != "first pass" {
		t.Fatalf("expected description retained, got %q", updated.Description)
	}
	if _, err := store.UpdateOrder(ctx, SaveOrderInput{ID: "missing", Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreUpdateMovingIntoConflictIsRejected(t *testing.T) {
	store, _ := newScenarioStore(t)
	_, err := store.UpdateOrder(context.Background(), SaveOrderInput{ID: "wo-1", WorkCenterID: "wc-2"})
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap moving onto busy center, got %v", err)
	}
	order, _ := store.Order("wo-1")
	if order.WorkCenterID != "wc-1" {
		t.Fatalf("rejected update must leave order untouched, got %#v", order)
	}
}

func TestStoreRejectsUnknownWorkCenterAndDuplicateCreate(t *testing.T) {
	store, _ := newScenarioStore(t)
	ctx := context.Background()
	if _, err := store.CreateOrder(ctx, newInput("wc-9", "2026-02-01", "2026-02-02")); !errors.Is(err, ErrUnknownWorkCenter) {
		t.Fatalf("expected ErrUnknownWorkCenter, got %v", err)
	}
	in := newInput("wc-2", "2026-05-01", "2026-05-02")
	in.ID = "wo-1"
	if _, err := store.CreateOrder(ctx, in); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected duplicate id rejection, got %v", err)
	}
	in.ID = "custom-7"
	created, err := store.SaveOrder(ctx, in)
	if err != nil {
		t.Fatalf("SaveOrder(custom id) error = %v", err)
	}
	if created.ID != "custom-7" {
		t.Fatalf("expected supplied id kept, got %q", created.ID)
	}
}

func TestStorePersistenceFailureIsSwallowed(t *testing.T) {
	store, kv := newScenarioStore(t)
	kv.putErr = errors.New("read-only")
	if _, err := store.CreateOrder(context.Background(), newInput("wc-1", "2026-03-01", "2026-03-02")); err != nil {
		t.Fatalf("expected save to succeed despite persistence failure, got %v", err)
	}
	if kv.puts != 1 {
		t.Fatalf("expected one persistence attempt, got %d", kv.puts)
	}
	if got := len(store.Orders()); got != 3 {
		t.Fatalf("expected in-memory collection updated, got %d", got)
	}
}

func TestStoreLoadAuditsWithoutRepairing(t *testing.T) {
	src := scenarioSeed()
	src.orders = append(src.orders,
		testOrder("wo-3", "wc-1", "2026-02-05", "2026-02-07"),
		testOrder("wo-4", "wc-9", "2026-02-05", "2026-02-07"),
	)
	store := NewStore(nil, src, StoreConfig{})
	report := store.Load(context.Background())
	if len(report.Overlaps) != 2 {
		t.Fatalf("expected both sides of the overlap reported, got %#v", report.Overlaps)
	}
	if len(report.OrphanOrderIDs) != 1 || report.OrphanOrderIDs[0] != "wo-4" {
		t.Fatalf("unexpected orphans %#v", report.OrphanOrderIDs)
	}
	if len(store.Orders()) != 4 {
		t.Fatalf("audit must not mutate the collection, got %d orders", len(store.Orders()))
	}
}

func TestStoreSerializesConcurrentSaves(t *testing.T) {
	store, _ := newScenarioStore(t)
	ctx := context.Background()
	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.CreateOrder(ctx, newInput("wc-1", "2026-04-01", "2026-04-03")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if succeeded != 1 {
		t.Fatalf("expected exactly one concurrent save to win, got %d", succeeded)
	}
	if reports := domain.FindOverlaps(store.Orders()); len(reports) != 0 {
		t.Fatalf("concurrent saves produced overlaps: %#v", reports)
	}
}

func TestStoreConcurrentCreatesWithSameIDInsertOnce(t *testing.T) {
	store, _ := newScenarioStore(t)
	ctx := context.Background()
	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, duplicates := 0, 0
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := newInput("wc-2", "2026-05-01", "2026-05-02")
			in.ID = "wo-shared"
			in.Name = fmt.Sprintf("Create %d", i)
			_, err := store.CreateOrder(ctx, in)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInvalidID):
				duplicates++
			default:
				t.Errorf("unexpected CreateOrder error %v", err)
			}
		}()
	}
	wg.Wait()
	if succeeded != 1 || duplicates != workers-1 {
		t.Fatalf("expected one insert and %d duplicate rejections, got %d and %d", workers-1, succeeded, duplicates)
	}
	if got := len(store.Orders()); got != 3 {
		t.Fatalf("expected 3 orders, got %d", got)
	}
}

func TestStoreUpdateAfterDeleteDoesNotRecreate(t *testing.T) {
	store, _ := newScenarioStore(t)
	ctx := context.Background()
	if err := store.DeleteOrder(ctx, "wo-1"); err != nil {
		t.Fatalf("DeleteOrder() error = %v", err)
	}
	in := newInput("wc-1", "2026-02-01", "2026-02-05")
	in.ID = "wo-1"
	if _, err := store.UpdateOrder(ctx, in); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Order("wo-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wo-1 to stay deleted, got %v", err)
	}
}

func TestStoreNotifiesAndRecordsActivity(t *testing.T) {
	activity := &fakeActivity{}
	store := NewStore(newFakeKV(), scenarioSeed(), StoreConfig{
		IDGen:    sequentialIDs(),
		Activity: activity,
		Clock:    func() time.Time { return time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC) },
	})
	var changes []Change
	unsubscribe := store.Subscribe(func(c Change) { changes = append(changes, c) })

	ctx := WithMutationActor(context.Background(), MutationActor{ActorID: "tui", ActorType: ActorTypeUser})
	store.Load(ctx)
	created, err := store.CreateOrder(ctx, newInput("wc-1", "2026-03-01", "2026-03-02"))
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if err := store.DeleteOrder(ctx, created.ID); err != nil {
		t.Fatalf("DeleteOrder() error = %v", err)
	}
	unsubscribe()
	if _, err := store.CreateOrder(ctx, newInput("wc-1", "2026-03-01", "2026-03-02")); err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if len(changes) != 3 {
		t.Fatalf("expected 3 changes before unsubscribe, got %#v", changes)
	}
	if changes[1].Operation != domain.ChangeOperationCreate || changes[1].OrderID != created.ID {
		t.Fatalf("unexpected create change %#v", changes[1])
	}
	if changes[2].Operation != domain.ChangeOperationDelete {
		t.Fatalf("unexpected delete change %#v", changes[2])
	}

	events, err := store.Activity(ctx, 2)
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	if len(events) != 2 || events[0].Operation != domain.ChangeOperationCreate || events[1].Operation != domain.ChangeOperationDelete {
		t.Fatalf("unexpected activity %#v", events)
	}
	if events[0].Metadata["actor_id"] != "tui" {
		t.Fatalf("expected actor attribution, got %#v", events[0].Metadata)
	}
}

func TestUserMessage(t *testing.T) {
	cases := map[error]string{
		nil:                           "",
		ErrInvalidDateRange:           MessageInvalidRange,
		&OverlapError{}:               MessageOverlap,
		ErrMissingRequiredFields:      MessageRequiredFields,
		ErrUnknownWorkCenter:          MessageUnknownCenter,
		ErrNotFound:                   MessageNotFound,
		errors.New("database locked"): MessageUnexpected,
	}
	for err, want := range cases {
		if got := UserMessage(err); got != want {
			t.Fatalf("UserMessage(%v) = %q, want %q", err, got, want)
		}
	}
	if !IsExpectedRejection(fmt.Errorf("wrapped: %w", ErrOverlap)) {
		t.Fatal("expected wrapped overlap to be an expected rejection")
	}
	if IsExpectedRejection(errors.New("boom")) {
		t.Fatal("unexpected error classified as rejection")
	}
}
