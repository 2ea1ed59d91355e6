package domain

import "strings"

// WorkOrder is a scheduled task with an inclusive date range on one work center.
type WorkOrder struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	WorkCenterID string `json:"workCenterId"`
	Status       Status `json:"status"`
	StartDate    Date   `json:"startDate"`
	EndDate      Date   `json:"endDate"`
	Description  string `json:"description,omitempty"`
}

// WorkOrderInput holds the fields used to construct a work order.
type WorkOrderInput struct {
	ID           string
	Name         string
	WorkCenterID string
	Status       Status
	StartDate    Date
	EndDate      Date
	Description  string
}

// NewWorkOrder constructs a validated work order.
func NewWorkOrder(in WorkOrderInput) (WorkOrder, error) {
	order := WorkOrder{
		ID:           strings.TrimSpace(in.ID),
		Name:         strings.TrimSpace(in.Name),
		WorkCenterID: strings.TrimSpace(in.WorkCenterID),
		Status:       in.Status,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Description:  strings.TrimSpace(in.Description),
	}
	if order.Status == "" {
		order.Status = StatusOpen
	}
	if err := order.Validate(); err != nil {
		return WorkOrder{}, err
	}
	return order, nil
}

// Validate checks field presence, status membership and date ordering.
func (o WorkOrder) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(o.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(o.WorkCenterID) == "" {
		return ErrInvalidWorkCenterID
	}
	if !o.Status.Valid() {
		return ErrInvalidStatus
	}
	if o.StartDate.IsZero() || o.EndDate.IsZero() {
		return ErrInvalidDate
	}
	return ValidateRange(o.StartDate, o.EndDate)
}

// ValidateRange rejects ranges whose start falls after their end.
func ValidateRange(start, end Date) error {
	if start.After(end) {
		return ErrInvalidDateRange
	}
	return nil
}

// DurationDays returns the inclusive number of calendar days the order spans.
func (o WorkOrder) DurationDays() int {
	return DaysBetween(o.StartDate, o.EndDate) + 1
}

// Contains reports whether d falls within the order's inclusive range.
func (o WorkOrder) Contains(d Date) bool {
	return !d.Before(o.StartDate) && !d.After(o.EndDate)
}

// EntityID returns the work order identity.
func (o WorkOrder) EntityID() string {
	return o.ID
}
