package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/workboard/internal/domain"
)

// ErrNotFound and related errors describe expected store rejections.
var (
	ErrNotFound              = errors.New("not found")
	ErrOverlap               = errors.New("work order overlaps an existing order")
	ErrUnknownWorkCenter     = errors.New("unknown work center")
	ErrMissingRequiredFields = errors.New("missing required fields")
	ErrInvalidSnapshot       = errors.New("invalid snapshot")

	// ErrInvalidDateRange is returned when a start date falls after its end date.
	ErrInvalidDateRange = domain.ErrInvalidDateRange
)

// User-facing messages for expected rejections.
const (
	MessageInvalidRange   = "Start date cannot be after end date."
	MessageOverlap        = "This work order overlaps with an existing order on the same work center."
	MessageRequiredFields = "Please fill all required fields (Name, Start Date, End Date)."
	MessageUnknownCenter  = "The selected work center does not exist."
	MessageNotFound       = "The work order no longer exists."
	MessageUnexpected     = "Something went wrong. Please try again."
)

// OverlapError carries every order that collided with a rejected candidate.
type OverlapError struct {
	Candidate domain.WorkOrder
	Conflicts []domain.WorkOrder
}

// Error returns the diagnostic form listing each conflicting id.
func (e *OverlapError) Error() string {
	ids := e.ConflictIDs()
	return fmt.Sprintf("%s: %q on %s conflicts with %s", ErrOverlap, e.Candidate.Name, e.Candidate.WorkCenterID, strings.Join(ids, ", "))
}

// Is matches ErrOverlap.
func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlap
}

// ConflictIDs returns the ids of the colliding orders in detection order.
func (e *OverlapError) ConflictIDs() []string {
	ids := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		ids = append(ids, c.ID)
	}
	return ids
}

// UserMessage maps an error to the short message shown in a toast.
// Overlaps are reported generically; the conflicting ids stay in logs.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInvalidDateRange):
		return MessageInvalidRange
	case errors.Is(err, ErrOverlap):
		return MessageOverlap
	case errors.Is(err, ErrMissingRequiredFields),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrInvalidDate):
		return MessageRequiredFields
	case errors.Is(err, ErrUnknownWorkCenter), errors.Is(err, domain.ErrInvalidWorkCenterID):
		return MessageUnknownCenter
	case errors.Is(err, ErrNotFound):
		return MessageNotFound
	default:
		return MessageUnexpected
	}
}
