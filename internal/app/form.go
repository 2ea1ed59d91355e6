package app

import (
	"fmt"
	"strings"

	"github.com/hylla/workboard/internal/domain"
)

// OrderForm is the raw text captured by the details panel.
type OrderForm struct {
	ID           string
	Name         string
	WorkCenterID string
	Status       string
	StartDate    string
	EndDate      string
	Description  string
}

// OrderFormFor fills a form from an existing order.
func OrderFormFor(order domain.WorkOrder) OrderForm {
	return OrderForm{
		ID:           order.ID,
		Name:         order.Name,
		WorkCenterID: order.WorkCenterID,
		Status:       string(order.Status),
		StartDate:    order.StartDate.String(),
		EndDate:      order.EndDate.String(),
		Description:  order.Description,
	}
}

// MissingFields returns the labels of required fields that are empty or unparsable.
func (f OrderForm) MissingFields() []string {
	_, _, missing := f.requiredFields()
	return missing
}

// requiredFields parses both dates once and collects the labels of required fields that failed.
func (f OrderForm) requiredFields() (domain.Date, domain.Date, []string) {
	missing := make([]string, 0, 3)
	if strings.TrimSpace(f.Name) == "" {
		missing = append(missing, "Name")
	}
	start, err := domain.ParseDate(f.StartDate)
	if err != nil {
		missing = append(missing, "Start Date")
	}
	end, err := domain.ParseDate(f.EndDate)
	if err != nil {
		missing = append(missing, "End Date")
	}
	return start, end, missing
}

// ParseOrderForm turns a submitted form into a complete save payload.
// The store never sees a payload missing a required field.
func ParseOrderForm(f OrderForm) (SaveOrderInput, error) {
	start, end, missing := f.requiredFields()
	if len(missing) > 0 {
		return SaveOrderInput{}, fmt.Errorf("%w: %s", ErrMissingRequiredFields, strings.Join(missing, ", "))
	}
	if strings.TrimSpace(f.WorkCenterID) == "" {
		return SaveOrderInput{}, domain.ErrInvalidWorkCenterID
	}
	status := domain.StatusOpen
	if strings.TrimSpace(f.Status) != "" {
		parsed, err := domain.ParseStatus(f.Status)
		if err != nil {
			return SaveOrderInput{}, err
		}
		status = parsed
	}
	description := strings.TrimSpace(f.Description)
	return SaveOrderInput{
		ID:           strings.TrimSpace(f.ID),
		Name:         strings.TrimSpace(f.Name),
		WorkCenterID: strings.TrimSpace(f.WorkCenterID),
		Status:       status,
		StartDate:    start,
		EndDate:      end,
		Description:  &description,
	}, nil
}
