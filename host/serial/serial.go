// Package serial opens the UART used by the console presentation.
package serial

import (
	"io"
)

// Port is a serial line carrying console frames out and key bytes in.
type Port interface {
	io.ReadWriteCloser

	// Flush discards bytes received but not yet read.
	Flush() error
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the console defaults for device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device: device,
		Baud:   115200,
	}
}
