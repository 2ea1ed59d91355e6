package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hylla/workboard/internal/domain"
)

// SnapshotVersion defines the snapshot format version.
const SnapshotVersion = "workboard.snapshot.v1"

// Snapshot is a portable copy of both envelope collections.
type Snapshot struct {
	Version     string                               `json:"version"`
	ExportedAt  time.Time                            `json:"exported_at"`
	WorkCenters []domain.Envelope[domain.WorkCenter] `json:"work_centers"`
	WorkOrders  []domain.Envelope[domain.WorkOrder]  `json:"work_orders"`
}

// ImportReport summarizes one snapshot import.
type ImportReport struct {
	WorkOrders     int                    `json:"workOrders"`
	Overlaps       []domain.OverlapReport `json:"overlaps"`
	OrphanOrderIDs []string               `json:"orphanOrderIds"`
}

// ExportSnapshot copies the current collections.
func (s *Store) ExportSnapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Version:     SnapshotVersion,
		ExportedAt:  s.clock().UTC(),
		WorkCenters: slices.Clone(s.centers),
		WorkOrders:  slices.Clone(s.orders),
	}
}

// ImportSnapshot replaces the order collection with the snapshot's orders.
// Work centers stay as seeded; snapshot work centers are validated but not applied.
// Overlaps and unknown work-center references are reported, never repaired.
func (s *Store) ImportSnapshot(ctx context.Context, snap Snapshot) (ImportReport, error) {
	if err := snap.Validate(); err != nil {
		return ImportReport{}, err
	}
	overlaps, err := s.ReplaceOrders(ctx, snap.WorkOrders)
	if err != nil {
		return ImportReport{}, err
	}
	return ImportReport{
		WorkOrders:     len(snap.WorkOrders),
		Overlaps:       overlaps,
		OrphanOrderIDs: s.AuditReferences(),
	}, nil
}

// Validate checks the version, every envelope and id uniqueness.
func (snap *Snapshot) Validate() error {
	if snap.Version != "" && snap.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, snap.Version)
	}
	centerIDs := map[string]struct{}{}
	for i, env := range snap.WorkCenters {
		if err := env.Validate(); err != nil {
			return fmt.Errorf("%w: work_centers[%d]: %w", ErrInvalidSnapshot, i, err)
		}
		if strings.TrimSpace(env.Data.Name) == "" {
			return fmt.Errorf("%w: work_centers[%d].name is required", ErrInvalidSnapshot, i)
		}
		if _, exists := centerIDs[env.DocID]; exists {
			return fmt.Errorf("%w: duplicate work center id %q", ErrInvalidSnapshot, env.DocID)
		}
		centerIDs[env.DocID] = struct{}{}
	}
	orderIDs := map[string]struct{}{}
	for i, env := range snap.WorkOrders {
		if err := validateOrderEnvelope(env); err != nil {
			return fmt.Errorf("%w: work_orders[%d]: %w", ErrInvalidSnapshot, i, err)
		}
		if _, exists := orderIDs[env.DocID]; exists {
			return fmt.Errorf("%w: duplicate work order id %q", ErrInvalidSnapshot, env.DocID)
		}
		orderIDs[env.DocID] = struct{}{}
	}
	return nil
}
