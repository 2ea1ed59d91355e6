// Package seed provides the cold-start work centers and work orders.
package seed

import (
	"time"

	"github.com/hylla/workboard/internal/domain"
)

// Provider returns fixed seed content. Order dates are relative to the provider clock
// so a fresh board always has work around today.
type Provider struct {
	now func() time.Time
}

// NewProvider constructs a seed provider. A nil clock uses time.Now.
func NewProvider(now func() time.Time) *Provider {
	if now == nil {
		now = time.Now
	}
	return &Provider{now: now}
}

type centerSeed struct {
	id, name, description, color string
}

var centerSeeds = []centerSeed{
	{"wc-001", "CNC Milling", "Computer-controlled milling machines for precision parts", "#3E40DB"},
	{"wc-002", "Laser Cutting", "High-precision laser cutting station", "#5658FF"},
	{"wc-003", "Assembly Line A", "Primary assembly line for sub-components", "#2E7D32"},
	{"wc-004", "Quality Control", "End-of-line quality inspection station", "#E65100"},
	{"wc-005", "Packaging", "Final packaging and shipping preparation", "#6A1B9A"},
}

type orderSeed struct {
	id, name, center string
	status           domain.Status
	startOffset      int
	endOffset        int
	description      string
}

var orderSeeds = []orderSeed{
	{"wo-001", "Shaft Batch #1201", "wc-001", domain.StatusInProgress, -20, 40, "Machining 200 drive shafts for Q3 delivery"},
	{"wo-002", "Gear Housing #0987", "wc-001", domain.StatusInProgress, 50, 110, "Milling gear housings, awaiting raw material"},
	{"wo-003", "Panel Cut #3344", "wc-002", domain.StatusComplete, -60, -15, "Steel panels for enclosures, completed"},
	{"wo-004", "Bracket Set #5567", "wc-002", domain.StatusInProgress, -5, 55, "Cutting mounting brackets for Assembly Line A"},
	{"wo-005", "Motor Assembly #7712", "wc-003", domain.StatusBlocked, 5, 65, "Blocked until brackets arrive from Laser Cutting"},
	{"wo-006", "Inspection Lot #4455", "wc-004", domain.StatusComplete, -50, -10, "Inspection of CNC batch, all passed"},
	{"wo-007", "Inspection Lot #4460", "wc-004", domain.StatusInProgress, 10, 70, "Scheduled QC for upcoming shaft batch"},
	{"wo-008", "Ship Prep #8899", "wc-005", domain.StatusOpen, 20, 80, "Packaging for client AcmeCorp shipment"},
}

// WorkCenters returns the seeded work centers in display order.
func (p *Provider) WorkCenters() []domain.Envelope[domain.WorkCenter] {
	out := make([]domain.WorkCenter, 0, len(centerSeeds))
	for _, s := range centerSeeds {
		out = append(out, domain.WorkCenter{ID: s.id, Name: s.name, Description: s.description, Color: s.color})
	}
	return domain.WrapAll(out)
}

// WorkOrders returns the seeded work orders with dates anchored on today.
func (p *Provider) WorkOrders() []domain.Envelope[domain.WorkOrder] {
	today := domain.DateOf(p.now())
	out := make([]domain.WorkOrder, 0, len(orderSeeds))
	for _, s := range orderSeeds {
		out = append(out, domain.WorkOrder{
			ID:           s.id,
			Name:         s.name,
			WorkCenterID: s.center,
			Status:       s.status,
			StartDate:    today.AddDays(s.startOffset),
			EndDate:      today.AddDays(s.endOffset),
			Description:  s.description,
		})
	}
	return domain.WrapAll(out)
}
