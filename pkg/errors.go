package rootable

import (
	"errors"
	"fmt"
)

// Error categories. Every typed error below reports one of them through Is,
// so callers can decide between aborting and skipping with errors.Is.
var (
	// ErrConfiguration marks fatal setup errors: bad window sizes, sensors
	// missing from the catalog. They are never retried.
	ErrConfiguration = errors.New("configuration error")
	// ErrDataIntegrity marks per-event input problems.
	ErrDataIntegrity = errors.New("data integrity error")
)

// ErrInvalidWindowSize is returned when a window dimension is even or not
// strictly smaller than the sensor extent.
type ErrInvalidWindowSize struct {
	USize, VSize   int
	UCells, VCells int
}

func (e *ErrInvalidWindowSize) Error() string {
	return fmt.Sprintf("invalid window size %dx%d for sensor of %dx%d cells: dimensions must be odd and smaller than the sensor",
		e.USize, e.VSize, e.UCells, e.VCells)
}

func (e *ErrInvalidWindowSize) Is(target error) bool { return target == ErrConfiguration }

// ErrUnknownSensor is returned when a sensor ID is not in the catalog.
type ErrUnknownSensor struct {
	SensorID SensorID
}

func (e *ErrUnknownSensor) Error() string {
	return fmt.Sprintf("unknown sensor id %d", e.SensorID)
}

func (e *ErrUnknownSensor) Is(target error) bool { return target == ErrConfiguration }

// ErrRelationLengthMismatch is returned when a truth relation does not
// carry one value per non-missing reconstructed object.
type ErrRelationLengthMismatch struct {
	Values   int
	Expected int
	Total    int
}

func (e *ErrRelationLengthMismatch) Error() string {
	return fmt.Sprintf("truth relation has %d values, expected %d for %d objects",
		e.Values, e.Expected, e.Total)
}

func (e *ErrRelationLengthMismatch) Is(target error) bool { return target == ErrDataIntegrity }

// ErrDuplicatePixel is returned when the same cell appears twice on one
// sensor with different charges.
type ErrDuplicatePixel struct {
	U, V          int
	First, Second int32
}

func (e *ErrDuplicatePixel) Error() string {
	return fmt.Sprintf("duplicate pixel (%d, %d) with charges %d and %d", e.U, e.V, e.First, e.Second)
}

func (e *ErrDuplicatePixel) Is(target error) bool { return target == ErrDataIntegrity }

// ErrArrayLengthMismatch is returned when parallel input arrays differ in length.
type ErrArrayLengthMismatch struct {
	Array    string
	Length   int
	Expected int
}

func (e *ErrArrayLengthMismatch) Error() string {
	return fmt.Sprintf("array %q has length %d, expected %d", e.Array, e.Length, e.Expected)
}

func (e *ErrArrayLengthMismatch) Is(target error) bool { return target == ErrDataIntegrity }

// ErrPixelOutOfRange is returned for cell indices outside the sensor.
type ErrPixelOutOfRange struct {
	U, V           int
	UCells, VCells int
}

func (e *ErrPixelOutOfRange) Error() string {
	return fmt.Sprintf("pixel (%d, %d) outside sensor of %dx%d cells", e.U, e.V, e.UCells, e.VCells)
}

func (e *ErrPixelOutOfRange) Is(target error) bool { return target == ErrDataIntegrity }

// ErrNegativeCharge is returned for digits with a negative charge.
type ErrNegativeCharge struct {
	U, V   int
	Charge int32
}

func (e *ErrNegativeCharge) Error() string {
	return fmt.Sprintf("pixel (%d, %d) has negative charge %d", e.U, e.V, e.Charge)
}

func (e *ErrNegativeCharge) Is(target error) bool { return target == ErrDataIntegrity }

// ErrWindowGrowth is returned when a window still has charge on a border
// that is not a sensor edge but cannot grow any further.
type ErrWindowGrowth struct {
	SeedU, SeedV int
	USize, VSize int
}

func (e *ErrWindowGrowth) Error() string {
	return fmt.Sprintf("window around (%d, %d) cannot grow past %dx%d", e.SeedU, e.SeedV, e.USize, e.VSize)
}

func (e *ErrWindowGrowth) Is(target error) bool { return target == ErrDataIntegrity }

// EventError reports which event, sensor and stage failed.
type EventError struct {
	Event    int
	SensorID SensorID
	Stage    string
	Err      error
}

func (e *EventError) Error() string {
	if e.SensorID == 0 {
		return fmt.Sprintf("event %d, %s: %v", e.Event, e.Stage, e.Err)
	}
	return fmt.Sprintf("event %d, sensor %d, %s: %v", e.Event, e.SensorID, e.Stage, e.Err)
}

func (e *EventError) Unwrap() error { return e.Err }

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error { return e.Err }

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error { return e.Err }

// ErrTruthIndexOutOfRange is returned when a truth link points past the
// particle table.
type ErrTruthIndexOutOfRange struct {
	Index     int
	Particles int
}

func (e *ErrTruthIndexOutOfRange) Error() string {
	return fmt.Sprintf("truth link %d outside particle table of %d entries", e.Index, e.Particles)
}

func (e *ErrTruthIndexOutOfRange) Is(target error) bool { return target == ErrDataIntegrity }
