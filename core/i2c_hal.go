// Package core holds the hardware abstraction used by the sensor driver:
// the I2C bus interface, its adapters, and the clock used for settle delays.
package core

import (
	"errors"
	"fmt"
	"time"
)

// I2CAddress is a 7-bit I2C device address.
type I2CAddress uint8

// Wire returns the transaction address byte (7-bit address shifted left one bit).
func (a I2CAddress) Wire() uint8 {
	return uint8(a&0x7F) << 1
}

func (a I2CAddress) String() string {
	return fmt.Sprintf("0x%02X", uint8(a))
}

// Begin is the condition a transfer starts with.
type Begin uint8

const (
	BeginStart   Begin = iota // START condition
	BeginRestart              // repeated START, continues a held transaction
)

// End is the condition a transfer finishes with.
type End uint8

const (
	EndStop         End = iota // STOP condition, bus released on the wire
	EndAwaitRestart            // no STOP, the next transfer must begin with a restart
)

var (
	// ErrTimeout is returned when a transfer does not complete within its timeout.
	ErrTimeout = errors.New("i2c: transfer timed out")

	// ErrNack is returned when the addressed device does not acknowledge.
	ErrNack = errors.New("i2c: device did not acknowledge")

	// ErrNoTransaction is returned by a restart read that has no held write before it.
	ErrNoTransaction = errors.New("i2c: restart without a pending transaction")
)

// I2CBus is the abstract I2C interface the driver uses.
//
// Callers hold exclusive ownership between Acquire and Release. Addresses
// passed to Tx and Rx are transaction address bytes (see I2CAddress.Wire).
type I2CBus interface {
	// Acquire blocks until the caller owns the bus.
	Acquire()

	// Release gives up bus ownership.
	Release()

	// Tx writes data to the device.
	Tx(addr uint8, data []byte, begin Begin, end End, timeout time.Duration) error

	// Rx reads len(buf) bytes from the device into buf.
	Rx(addr uint8, buf []byte, begin Begin, end End, timeout time.Duration) error
}
