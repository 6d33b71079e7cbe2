package transducer

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-transducers/internal/measure"
)

// Domain errors for the transducer package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, transducer.ErrValidation) {
//	    // reject the request
//	}
var (
	// ErrValidation is returned when a required value is missing:
	// an empty name on construction or rename, or nil data.
	ErrValidation = errors.New("transducer: validation failed")

	// ErrUnitMismatch is returned when a set point's unit differs from
	// the expected unit. The concrete error is *UnitMismatchError.
	ErrUnitMismatch = errors.New("transducer: unit mismatch")

	// ErrUnitNotAllowed is returned when a set point's unit is not a
	// reporting unit of the quantity named by the sensor_measure metadata key.
	ErrUnitNotAllowed = errors.New("transducer: unit not allowed for sensor measure")

	// ErrTransducerNotFound is returned when a transducer ID or name does not exist.
	ErrTransducerNotFound = errors.New("transducer: not found")

	// ErrTransducerExists is returned when a name is already taken.
	ErrTransducerExists = errors.New("transducer: already exists")
)

// UnitMismatchError carries both units of a rejected set point.
type UnitMismatchError struct {
	Got  measure.Unit
	Want measure.Unit
}

func (e *UnitMismatchError) Error() string {
	return fmt.Sprintf("transducer: set point unit %q does not match expected unit %q", e.Got, e.Want)
}

// Is makes errors.Is(err, ErrUnitMismatch) succeed.
func (e *UnitMismatchError) Is(target error) bool {
	return target == ErrUnitMismatch
}
