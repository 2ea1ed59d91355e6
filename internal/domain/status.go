package domain

import "strings"

// Status represents the lifecycle status of a work order.
type Status string

// Status values. The wire strings match the persisted document format.
const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In progress"
	StatusComplete   Status = "Complete"
	StatusBlocked    Status = "Blocked"
)

// Statuses returns every status in display order.
func Statuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusComplete, StatusBlocked}
}

// ParseStatus normalizes free-form status input.
func ParseStatus(raw string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	switch key {
	case "open":
		return StatusOpen, nil
	case "in progress", "inprogress":
		return StatusInProgress, nil
	case "complete", "completed", "done":
		return StatusComplete, nil
	case "blocked":
		return StatusBlocked, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Valid reports whether s is one of the closed set of statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusComplete, StatusBlocked:
		return true
	default:
		return false
	}
}

// Slug returns a stable lowercase identifier, e.g. "in-progress".
func (s Status) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(s)), " ", "-")
}
