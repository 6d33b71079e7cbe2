package measure

import "errors"

// Domain errors for the measure package.
var (
	// ErrInvalidUnit is returned when a unit string is not recognised.
	ErrInvalidUnit = errors.New("measure: invalid unit")

	// ErrInvalidRecord is returned when a record envelope cannot be decoded.
	ErrInvalidRecord = errors.New("measure: invalid record")

	// ErrInvalidTrigger is returned when a trigger command is not recognised.
	ErrInvalidTrigger = errors.New("measure: invalid trigger type")
)
