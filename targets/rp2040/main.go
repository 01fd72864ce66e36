//go:build rp2040

// Firmware for an RP2040 board with an MPU-6050 on I2C0. The menu is served
// as text frames over the USB serial console.
package main

import (
	"context"
	"machine"
	"time"

	log "github.com/sirupsen/logrus"

	"mpureader/acquisition"
	"mpureader/core"
	"mpureader/mpu6050"
	"mpureader/ui"
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	console := usbConsole{}

	logger := log.New()
	logger.Out = console
	logger.Level = log.WarnLevel

	bus, err := openI2C(defaultI2C)
	if err != nil {
		logger.Errorln("i2c:", err)
		halt()
	}

	dev := mpu6050.New(bus, mpu6050.WithClock(core.SystemClock{}))
	loop, err := acquisition.New(dev, mpu6050.DefaultConfig(), acquisition.WithLogger(logger))
	if err != nil {
		logger.Errorln("acquisition:", err)
		halt()
	}

	ctx := context.Background()
	go loop.Run(ctx)

	keys := ui.ReadKeys(ctx, console)
	for {
		// There is nothing to exit to; Back on the main screen restarts the
		// menu.
		view := ui.NewConsole(console, ui.WithClear(true), ui.WithCRLF(true))
		ui.Drive(ctx, loop, view, keys, logger)
	}
}

func halt() {
	for {
		time.Sleep(time.Second)
	}
}

// usbConsole reads and writes the USB CDC serial port.
type usbConsole struct{}

// Read blocks until at least one byte is available.
func (usbConsole) Read(p []byte) (int, error) {
	for machine.Serial.Buffered() == 0 {
		// Yield to avoid a busy loop
		time.Sleep(time.Millisecond)
	}
	n := 0
	for n < len(p) && machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return n, err
		}
		p[n] = b
		n++
	}
	return n, nil
}

func (usbConsole) Write(p []byte) (int, error) {
	return machine.Serial.Write(p)
}
