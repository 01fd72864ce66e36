//go:build rp2040

package main

import (
	"errors"
	"machine"

	"mpureader/core"
)

// i2cBusConfig selects the RP2040 controller and pins the sensor is wired to.
type i2cBusConfig struct {
	Bus       uint8
	SDA       machine.Pin
	SCL       machine.Pin
	Frequency uint32
}

// defaultI2C is I2C0 on the default pins: SDA=GP4, SCL=GP5.
var defaultI2C = i2cBusConfig{
	Bus:       0,
	SDA:       machine.GP4,
	SCL:       machine.GP5,
	Frequency: 400 * machine.KHz,
}

// openI2C configures the controller and wraps it as a core bus.
func openI2C(cfg i2cBusConfig) (*core.TxBus, error) {
	var i2c *machine.I2C
	switch cfg.Bus {
	case 0:
		i2c = machine.I2C0
	case 1:
		// I2C1 - Default pins: SDA=GP6, SCL=GP7
		i2c = machine.I2C1
	default:
		return nil, errors.New("unsupported I2C bus ID")
	}

	err := i2c.Configure(machine.I2CConfig{
		Frequency: cfg.Frequency,
		SDA:       cfg.SDA,
		SCL:       cfg.SCL,
	})
	if err != nil {
		return nil, err
	}
	return core.NewTinyGoBus(i2c), nil
}
