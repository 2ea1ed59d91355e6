package domain

import "strings"

// WorkCenter is a schedulable lane that work orders are assigned to.
type WorkCenter struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// NewWorkCenter constructs a validated work center.
func NewWorkCenter(id, name, description, color string) (WorkCenter, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" {
		return WorkCenter{}, ErrInvalidID
	}
	if name == "" {
		return WorkCenter{}, ErrInvalidName
	}
	return WorkCenter{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(description),
		Color:       strings.TrimSpace(color),
	}, nil
}

// EntityID returns the work center identity.
func (c WorkCenter) EntityID() string {
	return c.ID
}
