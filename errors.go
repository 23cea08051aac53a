package bme280

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches one of these
// through errors.Is.
var (
	ErrBusTransfer  = errors.New("bme280: bus transfer failed")
	ErrProtocol     = errors.New("bme280: unexpected chip id")
	ErrLogic        = errors.New("bme280: register layout violated")
	ErrTimeout      = errors.New("bme280: timeout")
	ErrNotReady     = errors.New("bme280: device not ready")
	ErrSessionInUse = errors.New("bme280: bus session already open")
)

// BusError describes a failed or short register transfer.
type BusError struct {
	Op  string
	Reg byte
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("bme280: %s register %#02x: %v", e.Op, e.Reg, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

// Is reports BusError as ErrBusTransfer regardless of the underlying cause.
func (e *BusError) Is(target error) bool { return target == ErrBusTransfer }
