package domain

// RangesOverlap reports whether two inclusive calendar ranges share at least one day.
func RangesOverlap(s1, e1, s2, e2 Date) bool {
	return !s1.After(e2) && !s2.After(e1)
}

// DetectOverlaps returns every peer whose range collides with candidate.
// Peers sharing the candidate's id are skipped, so editing never conflicts with itself.
// Orders ending and starting on the same day collide.
func DetectOverlaps(candidate WorkOrder, peers []WorkOrder) []WorkOrder {
	out := make([]WorkOrder, 0)
	for _, peer := range peers {
		if candidate.ID != "" && peer.ID == candidate.ID {
			continue
		}
		if RangesOverlap(candidate.StartDate, candidate.EndDate, peer.StartDate, peer.EndDate) {
			out = append(out, peer)
		}
	}
	return out
}

// OverlapReport names one order and the ids of the orders it collides with.
type OverlapReport struct {
	WorkCenterID string   `json:"workCenterId"`
	OrderID      string   `json:"orderId"`
	OrderName    string   `json:"orderName"`
	ConflictIDs  []string `json:"conflictIds"`
}

// FindOverlaps audits orders pairwise within each work center.
// Reports keep the input order and only include orders with at least one conflict.
func FindOverlaps(orders []WorkOrder) []OverlapReport {
	byCenter := map[string][]WorkOrder{}
	for _, order := range orders {
		byCenter[order.WorkCenterID] = append(byCenter[order.WorkCenterID], order)
	}
	reports := make([]OverlapReport, 0)
	for _, order := range orders {
		conflicts := DetectOverlaps(order, byCenter[order.WorkCenterID])
		if len(conflicts) == 0 {
			continue
		}
		ids := make([]string, 0, len(conflicts))
		for _, c := range conflicts {
			ids = append(ids, c.ID)
		}
		reports = append(reports, OverlapReport{
			WorkCenterID: order.WorkCenterID,
			OrderID:      order.ID,
			OrderName:    order.Name,
			ConflictIDs:  ids,
		})
	}
	return reports
}
