package seed

import (
	"testing"
	"time"

	"github.com/hylla/workboard/internal/domain"
)

func TestProviderContentIsConsistent(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
	p := NewProvider(func() time.Time { return now })

	centers := p.WorkCenters()
	orders := p.WorkOrders()
	if len(centers) != 5 {
		t.Fatalf("expected 5 work centers, got %d", len(centers))
	}
	if len(orders) != 8 {
		t.Fatalf("expected 8 work orders, got %d", len(orders))
	}

	known := map[string]struct{}{}
	for _, env := range centers {
		if err := env.Validate(); err != nil {
			t.Fatalf("work center envelope %q invalid: %v", env.DocID, err)
		}
		known[env.Data.ID] = struct{}{}
	}
	statuses := map[domain.Status]bool{}
	for _, env := range orders {
		if err := env.Validate(); err != nil {
			t.Fatalf("work order envelope %q invalid: %v", env.DocID, err)
		}
		if err := env.Data.Validate(); err != nil {
			t.Fatalf("work order %q invalid: %v", env.DocID, err)
		}
		if _, ok := known[env.Data.WorkCenterID]; !ok {
			t.Fatalf("work order %q references unknown center %q", env.DocID, env.Data.WorkCenterID)
		}
		statuses[env.Data.Status] = true
	}
	for _, status := range domain.Statuses() {
		if !statuses[status] {
			t.Fatalf("expected seed to cover status %q", status)
		}
	}
	if reports := domain.FindOverlaps(domain.Unwrap(orders)); len(reports) != 0 {
		t.Fatalf("expected overlap-free seed, got %#v", reports)
	}
}

func TestProviderDatesAreRelativeToToday(t *testing.T) {
	now := time.Date(2026, time.March, 10, 23, 30, 0, 0, time.UTC)
	orders := NewProvider(func() time.Time { return now }).WorkOrders()
	first := orders[0].Data
	if got := first.StartDate.String(); got != "2026-02-18" {
		t.Fatalf("start = %s, want 2026-02-18", got)
	}
	if got := first.EndDate.String(); got != "2026-04-19" {
		t.Fatalf("end = %s, want 2026-04-19", got)
	}
}
