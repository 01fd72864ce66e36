//go:build !tinygo

package core

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// PeriphBus is an I2CBus backed by a periph.io host bus (Linux i2c-dev and friends).
type PeriphBus struct {
	*TxBus
	bus i2c.Bus
}

// NewPeriphBus wraps an already opened periph.io bus.
func NewPeriphBus(bus i2c.Bus) *PeriphBus {
	return &PeriphBus{TxBus: NewTxBus(bus), bus: bus}
}

// OpenPeriphBus initializes the periph host drivers and opens the named bus.
// An empty name opens the first available bus. A zero speed keeps the
// bus default.
func OpenPeriphBus(name string, speedKHz int) (*PeriphBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bc, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}

	if speedKHz > 0 {
		if err := bc.SetSpeed(physic.Frequency(speedKHz) * physic.KiloHertz); err != nil {
			_ = bc.Close()
			return nil, fmt.Errorf("set i2c bus speed %d kHz: %w", speedKHz, err)
		}
	}

	return NewPeriphBus(bc), nil
}

func (p *PeriphBus) String() string {
	return p.bus.String()
}

// Close closes the underlying bus when it supports closing.
func (p *PeriphBus) Close() error {
	if c, ok := p.bus.(i2c.BusCloser); ok {
		return c.Close()
	}
	return nil
}
