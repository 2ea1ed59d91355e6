package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hylla/workboard/internal/domain"
)

// DefaultStorageKey is the fixed key the order collection is persisted under.
const DefaultStorageKey = "workboard.work-orders"

// LoadSource names where the order collection came from.
type LoadSource string

// LoadSource values.
const (
	LoadSourceStorage LoadSource = "storage"
	LoadSourceSeed    LoadSource = "seed"
)

// StoreConfig holds optional collaborators and settings for a Store.
type StoreConfig struct {
	StorageKey string
	IDGen      IDGenerator
	Clock      Clock
	Logger     Logger
	Activity   ActivityLog
}

// LoadReport summarizes one Load call.
type LoadReport struct {
	Source         LoadSource             `json:"source"`
	FallbackReason string                 `json:"fallbackReason,omitempty"`
	WorkCenters    int                    `json:"workCenters"`
	WorkOrders     int                    `json:"workOrders"`
	Overlaps       []domain.OverlapReport `json:"overlaps"`
	OrphanOrderIDs []string               `json:"orphanOrderIds"`
}

// SaveOrderInput is the payload for create and update.
// Zero-valued fields on an update keep the stored value; Description uses a pointer
// so it can be cleared explicitly.
type SaveOrderInput struct {
	ID           string
	Name         string
	WorkCenterID string
	Status       domain.Status
	StartDate    domain.Date
	EndDate      domain.Date
	Description  *string
}

// Store owns the work center and work order collections.
// Every mutation runs under one lock that also covers persistence.
type Store struct {
	mu       sync.Mutex
	kv       KeyValueStore
	seed     SeedSource
	activity ActivityLog
	key      string
	idGen    IDGenerator
	clock    Clock
	log      Logger

	centers []domain.Envelope[domain.WorkCenter]
	orders  []domain.Envelope[domain.WorkOrder]

	observers registry
}

// NewStore constructs a store. kv may be nil for a purely in-memory store.
func NewStore(kv KeyValueStore, seed SeedSource, cfg StoreConfig) *Store {
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	if cfg.IDGen == nil {
		cfg.IDGen = func() string { return "" }
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	return &Store{
		kv:       kv,
		seed:     seed,
		activity: cfg.Activity,
		key:      cfg.StorageKey,
		idGen:    cfg.IDGen,
		clock:    cfg.Clock,
		log:      cfg.Logger,
	}
}

// StorageKey returns the key the order collection is persisted under.
func (s *Store) StorageKey() string {
	return s.key
}

// Load reads work centers from the seed source and orders from storage.
// Missing or unreadable stored orders fall back to seed orders; the failure is logged only.
// After loading, existing overlaps and dangling work-center references are audited and logged.
func (s *Store) Load(ctx context.Context) LoadReport {
	s.mu.Lock()
	report := LoadReport{Source: LoadSourceStorage}
	if s.seed != nil {
		s.centers = slices.Clone(s.seed.WorkCenters())
	}
	orders, reason := s.readStoredOrders(ctx)
	if reason != "" {
		report.Source = LoadSourceSeed
		report.FallbackReason = reason
		orders = nil
		if s.seed != nil {
			orders = slices.Clone(s.seed.WorkOrders())
		}
		s.log.Info("using seed work orders", "reason", reason, "key", s.key)
	}
	s.orders = orders
	report.WorkCenters = len(s.centers)
	report.WorkOrders = len(s.orders)
	report.Overlaps = s.auditOverlapsLocked()
	report.OrphanOrderIDs = s.auditReferencesLocked()
	s.recordLocked(ctx, domain.ChangeOperationLoad, "", "", map[string]string{
		"source": string(report.Source),
		"orders": fmt.Sprint(report.WorkOrders),
	})
	s.mu.Unlock()

	s.observers.publish(Change{Kind: ChangeLoaded, Operation: domain.ChangeOperationLoad})
	return report
}

// readStoredOrders returns stored orders or a non-empty fallback reason.
func (s *Store) readStoredOrders(ctx context.Context) ([]domain.Envelope[domain.WorkOrder], string) {
	if s.kv == nil {
		return nil, "no storage configured"
	}
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.log.Warn("read stored work orders failed", "key", s.key, "err", err)
		return nil, "read failed"
	}
	if !ok {
		return nil, "no stored work orders"
	}
	var envs []domain.Envelope[domain.WorkOrder]
	if err := json.Unmarshal(raw, &envs); err != nil {
		s.log.Warn("stored work orders are corrupt", "key", s.key, "err", err)
		return nil, "corrupt stored work orders"
	}
	if envs == nil {
		s.log.Warn("stored work orders are not an array", "key", s.key)
		return nil, "corrupt stored work orders"
	}
	for _, env := range envs {
		if err := validateOrderEnvelope(env); err != nil {
			s.log.Warn("stored work order is invalid", "key", s.key, "doc_id", env.DocID, "err", err)
			return nil, "corrupt stored work orders"
		}
	}
	return envs, ""
}

func validateOrderEnvelope(env domain.Envelope[domain.WorkOrder]) error {
	if err := env.Validate(); err != nil {
		return err
	}
	return env.Data.Validate()
}

// auditOverlapsLocked logs every pre-existing overlap without repairing it.
func (s *Store) auditOverlapsLocked() []domain.OverlapReport {
	reports := domain.FindOverlaps(domain.Unwrap(s.orders))
	for _, r := range reports {
		s.log.Warn("overlap detected",
			"work_center_id", r.WorkCenterID,
			"order_id", r.OrderID,
			"order_name", r.OrderName,
			"conflicts", strings.Join(r.ConflictIDs, ","),
		)
	}
	return reports
}

// auditReferencesLocked logs orders whose work center is unknown.
func (s *Store) auditReferencesLocked() []string {
	orphans := make([]string, 0)
	for _, env := range s.orders {
		if s.centerIndexLocked(env.Data.WorkCenterID) >= 0 {
			continue
		}
		orphans = append(orphans, env.Data.ID)
		s.log.Warn("work order references unknown work center", "order_id", env.Data.ID, "work_center_id", env.Data.WorkCenterID)
	}
	return orphans
}

// AuditOverlaps re-runs the pairwise overlap audit on the current collection.
func (s *Store) AuditOverlaps() []domain.OverlapReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auditOverlapsLocked()
}

// AuditReferences returns ids of orders whose work center does not exist.
func (s *Store) AuditReferences() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.auditReferencesLocked()
}

// WorkCenters returns the work centers in seed order.
func (s *Store) WorkCenters() []domain.WorkCenter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Unwrap(s.centers)
}

// WorkCenter returns one work center by id.
func (s *Store) WorkCenter(id string) (domain.WorkCenter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.centerIndexLocked(strings.TrimSpace(id))
	if idx < 0 {
		return domain.WorkCenter{}, ErrUnknownWorkCenter
	}
	return s.centers[idx].Data, nil
}

// Orders returns every order in collection order.
func (s *Store) Orders() []domain.WorkOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Unwrap(s.orders)
}

// OrderEnvelopes returns the envelope form of every order.
func (s *Store) OrderEnvelopes() []domain.Envelope[domain.WorkOrder] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.orders)
}

// OrdersFor returns the orders assigned to workCenterID in collection order.
func (s *Store) OrdersFor(workCenterID string) []domain.WorkOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ordersForLocked(workCenterID, "")
}

func (s *Store) ordersForLocked(workCenterID, excludeID string) []domain.WorkOrder {
	out := make([]domain.WorkOrder, 0)
	for _, env := range s.orders {
		if env.Data.WorkCenterID != workCenterID {
			continue
		}
		if excludeID != "" && env.Data.ID == excludeID {
			continue
		}
		out = append(out, env.Data)
	}
	return out
}

// Order returns one order by id.
func (s *Store) Order(id string) (domain.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.orderIndexLocked(strings.TrimSpace(id))
	if idx < 0 {
		return domain.WorkOrder{}, ErrNotFound
	}
	return s.orders[idx].Data, nil
}

// saveMode constrains whether a save may insert, update, or both.
type saveMode int

const (
	saveUpsert saveMode = iota
	saveInsertOnly
	saveUpdateOnly
)

// CreateOrder inserts a new order. A supplied id that already exists is rejected.
func (s *Store) CreateOrder(ctx context.Context, in SaveOrderInput) (domain.WorkOrder, error) {
	return s.save(ctx, in, saveInsertOnly)
}

// UpdateOrder replaces an existing order using merge semantics.
func (s *Store) UpdateOrder(ctx context.Context, in SaveOrderInput) (domain.WorkOrder, error) {
	return s.save(ctx, in, saveUpdateOnly)
}

// SaveOrder validates and applies a create or update.
// The pipeline is: date range, peers on the same work center excluding the order itself,
// overlap detection, then in-place merge for known ids or append for new ones.
func (s *Store) SaveOrder(ctx context.Context, in SaveOrderInput) (domain.WorkOrder, error) {
	return s.save(ctx, in, saveUpsert)
}

func (s *Store) save(ctx context.Context, in SaveOrderInput, mode saveMode) (domain.WorkOrder, error) {
	s.mu.Lock()
	order, op, err := s.saveLocked(ctx, in, mode)
	s.mu.Unlock()
	if err != nil {
		return domain.WorkOrder{}, err
	}
	s.observers.publish(Change{Kind: ChangeOrders, Operation: op, OrderID: order.ID})
	return order, nil
}

func (s *Store) saveLocked(ctx context.Context, in SaveOrderInput, mode saveMode) (domain.WorkOrder, domain.ChangeOperation, error) {
	id := strings.TrimSpace(in.ID)
	idx := -1
	if id != "" {
		idx = s.orderIndexLocked(id)
	}
	switch {
	case mode == saveInsertOnly && idx >= 0:
		return domain.WorkOrder{}, "", fmt.Errorf("%w: order %q already exists", domain.ErrInvalidID, id)
	case mode == saveUpdateOnly && idx < 0:
		return domain.WorkOrder{}, "", ErrNotFound
	}

	candidate := domain.WorkOrder{ID: id}
	op := domain.ChangeOperationCreate
	if idx >= 0 {
		candidate = s.orders[idx].Data
		op = domain.ChangeOperationUpdate
	}
	mergeOrderInput(&candidate, in)

	if !candidate.StartDate.IsZero() && !candidate.EndDate.IsZero() {
		if err := domain.ValidateRange(candidate.StartDate, candidate.EndDate); err != nil {
			return domain.WorkOrder{}, "", err
		}
	}
	if candidate.WorkCenterID != "" && s.centerIndexLocked(candidate.WorkCenterID) < 0 {
		return domain.WorkOrder{}, "", fmt.Errorf("%w: %q", ErrUnknownWorkCenter, candidate.WorkCenterID)
	}

	peers := s.ordersForLocked(candidate.WorkCenterID, candidate.ID)
	if conflicts := domain.DetectOverlaps(candidate, peers); len(conflicts) > 0 {
		overlap := &OverlapError{Candidate: candidate, Conflicts: conflicts}
		s.log.Warn("work order rejected: overlap", "order_name", candidate.Name, "work_center_id", candidate.WorkCenterID, "conflicts", strings.Join(overlap.ConflictIDs(), ","))
		return domain.WorkOrder{}, "", overlap
	}

	if idx < 0 && candidate.ID == "" {
		candidate.ID = s.freshIDLocked()
	}
	order, err := domain.NewWorkOrder(domain.WorkOrderInput{
		ID:           candidate.ID,
		Name:         candidate.Name,
		WorkCenterID: candidate.WorkCenterID,
		Status:       candidate.Status,
		StartDate:    candidate.StartDate,
		EndDate:      candidate.EndDate,
		Description:  candidate.Description,
	})
	if err != nil {
		return domain.WorkOrder{}, "", err
	}

	if idx >= 0 {
		s.orders[idx] = domain.Wrap(order)
	} else {
		s.orders = append(s.orders, domain.Wrap(order))
	}
	s.persistLocked(ctx)
	s.recordLocked(ctx, op, order.ID, order.WorkCenterID, nil)
	s.log.Debug("work order saved", "operation", op, "order_id", order.ID, "work_center_id", order.WorkCenterID)
	return order, op, nil
}

// mergeOrderInput copies the non-zero fields of in onto order.
func mergeOrderInput(order *domain.WorkOrder, in SaveOrderInput) {
	if name := strings.TrimSpace(in.Name); name != "" {
		order.Name = name
	}
	if center := strings.TrimSpace(in.WorkCenterID); center != "" {
		order.WorkCenterID = center
	}
	if in.Status != "" {
		order.Status = in.Status
	}
	if !in.StartDate.IsZero() {
		order.StartDate = in.StartDate
	}
	if !in.EndDate.IsZero() {
		order.EndDate = in.EndDate
	}
	if in.Description != nil {
		order.Description = strings.TrimSpace(*in.Description)
	}
}

// freshIDLocked returns a generated id not already present in the collection.
func (s *Store) freshIDLocked() string {
	for range 8 {
		id := strings.TrimSpace(s.idGen())
		if id != "" && s.orderIndexLocked(id) < 0 {
			return id
		}
	}
	return fmt.Sprintf("wo-%d", s.clock().UnixNano())
}

// DeleteOrder removes an order. Removal never runs an overlap check.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	s.mu.Lock()
	idx := s.orderIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	removed := s.orders[idx].Data
	s.orders = slices.Delete(s.orders, idx, idx+1)
	s.persistLocked(ctx)
	s.recordLocked(ctx, domain.ChangeOperationDelete, removed.ID, removed.WorkCenterID, nil)
	s.mu.Unlock()

	s.log.Debug("work order deleted", "order_id", removed.ID)
	s.observers.publish(Change{Kind: ChangeOrders, Operation: domain.ChangeOperationDelete, OrderID: removed.ID})
	return nil
}

// ReplaceOrders swaps the whole order collection, reporting but never repairing overlaps.
func (s *Store) ReplaceOrders(ctx context.Context, envs []domain.Envelope[domain.WorkOrder]) ([]domain.OverlapReport, error) {
	seen := map[string]struct{}{}
	for _, env := range envs {
		if err := validateOrderEnvelope(env); err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSnapshot, env.DocID, err)
		}
		if _, dup := seen[env.DocID]; dup {
			return nil, fmt.Errorf("%w: duplicate order %q", ErrInvalidSnapshot, env.DocID)
		}
		seen[env.DocID] = struct{}{}
	}

	s.mu.Lock()
	s.orders = slices.Clone(envs)
	reports := s.auditOverlapsLocked()
	s.auditReferencesLocked()
	s.persistLocked(ctx)
	s.recordLocked(ctx, domain.ChangeOperationImport, "", "", map[string]string{"orders": fmt.Sprint(len(envs))})
	s.mu.Unlock()

	s.observers.publish(Change{Kind: ChangeOrders, Operation: domain.ChangeOperationImport})
	return reports, nil
}

// Activity returns the most recent activity entries when a ledger is configured.
func (s *Store) Activity(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if s.activity == nil {
		return []domain.ChangeEvent{}, nil
	}
	return s.activity.ListChangeEvents(ctx, limit)
}

// Subscribe registers fn for every store change and returns an unsubscribe func.
func (s *Store) Subscribe(fn func(Change)) func() {
	return s.observers.subscribe(fn)
}

// persistLocked writes the full order collection. Failures are logged and swallowed.
func (s *Store) persistLocked(ctx context.Context) {
	if s.kv == nil {
		return
	}
	raw, err := json.Marshal(s.orders)
	if err != nil {
		s.log.Error("encode work orders failed", "err", err)
		return
	}
	if err := s.kv.Put(ctx, s.key, raw); err != nil {
		s.log.Error("persist work orders failed", "key", s.key, "err", err)
	}
}

// recordLocked appends one activity entry. Failures are logged and swallowed.
func (s *Store) recordLocked(ctx context.Context, op domain.ChangeOperation, orderID, centerID string, extra map[string]string) {
	if s.activity == nil {
		return
	}
	meta := actorMetadata(ctx)
	for k, v := range extra {
		meta[k] = v
	}
	err := s.activity.AppendChangeEvent(ctx, domain.ChangeEvent{
		Operation:    op,
		WorkOrderID:  orderID,
		WorkCenterID: centerID,
		Metadata:     meta,
		OccurredAt:   s.clock().UTC(),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error("record activity failed", "operation", op, "err", err)
	}
}

func (s *Store) orderIndexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.orders, func(env domain.Envelope[domain.WorkOrder]) bool {
		return env.Data.ID == id
	})
}

func (s *Store) centerIndexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.centers, func(env domain.Envelope[domain.WorkCenter]) bool {
		return env.Data.ID == id
	})
}
