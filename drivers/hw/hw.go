// Package hw defines the hardware access contract the rest of the system
// consumes: debiased pin reads for switch inputs and duty writes for servo
// outputs. Implementations live in sibling driver packages; tests and the
// simulator use Mem.
package hw

import "servoswitch-go/errcode"

// PinReader reads the level of one input pin.
type PinReader interface {
	ReadPin(pin int) (bool, error)
}

// DutyWriter commands one servo output channel.
// Duty is the pulse width in microseconds within the 50Hz frame.
type DutyWriter interface {
	WriteDuty(channel int, duty uint16) error
}

// Driver is the combined hardware surface.
type Driver interface {
	PinReader
	DutyWriter
}

// Split combines independent input and output devices into one Driver,
// e.g. GPIO character-device switches with a PCA9685 servo controller.
type Split struct {
	PinReader
	DutyWriter
}

// ErrUnavailable reports that the hardware access subsystem is gone.
// It is fatal: no further input or output is possible.
var ErrUnavailable error = &errcode.E{C: errcode.DriverFatal, Op: "hw", Msg: "hardware access unavailable"}
