package core

import (
	"tinygo.org/x/drivers"
)

// NewTinyGoBus adapts a TinyGo drivers.I2C (for example machine.I2C0) to I2CBus.
func NewTinyGoBus(bus drivers.I2C) *TxBus {
	return NewTxBus(bus)
}
