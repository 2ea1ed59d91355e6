package domain

import "errors"

var (
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidName         = errors.New("invalid name")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidDateRange    = errors.New("start date is after end date")
	ErrInvalidWorkCenterID = errors.New("invalid work center id")
	ErrInvalidDocType      = errors.New("invalid doc type")
	ErrEnvelopeMismatch    = errors.New("envelope doc id does not match data id")
)
