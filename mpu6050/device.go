// Package mpu6050 drives an InvenSense MPU-6050 accelerometer/gyroscope over I2C.
//
// The driver issues the reset/wake/configure sequence and the 14-byte
// measurement burst read. It holds no configuration of its own: callers pass
// the Config to apply and the address to read from.
package mpu6050

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"mpureader/core"
)

var (
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("mpu6050: invalid configuration")

	// ErrShortBurst is returned when a burst buffer is not BurstLen bytes.
	ErrShortBurst = errors.New("mpu6050: short measurement burst")
)

// Config is the device configuration: bus address and full-scale range
// indices (0..3) for the accelerometer and gyroscope.
type Config struct {
	Address    core.I2CAddress
	AccelRange uint8
	GyroRange  uint8
}

// DefaultConfig returns address 0x68, +/- 4g and +/- 500 deg/s.
func DefaultConfig() Config {
	return Config{
		Address:    AddressLow,
		AccelRange: 1,
		GyroRange:  1,
	}
}

// Validate checks the address and both range indices.
func (c Config) Validate() error {
	if c.Address != AddressLow && c.Address != AddressHigh {
		return fmt.Errorf("%w: address %s, expected %s or %s", ErrInvalidConfig, c.Address, AddressLow, AddressHigh)
	}
	if c.AccelRange >= RangeCount {
		return fmt.Errorf("%w: accel range index %d", ErrInvalidConfig, c.AccelRange)
	}
	if c.GyroRange >= RangeCount {
		return fmt.Errorf("%w: gyro range index %d", ErrInvalidConfig, c.GyroRange)
	}
	return nil
}

// RawSample is one decoded measurement burst.
type RawSample struct {
	AccX, AccY, AccZ    int16
	Temp                int16
	GyroX, GyroY, GyroZ int16
}

// DecodeRawSample parses a big-endian burst ordered
// acc x,y,z, temp, gyro x,y,z.
func DecodeRawSample(buf []byte) (RawSample, error) {
	if len(buf) != BurstLen {
		return RawSample{}, fmt.Errorf("%w: %d bytes", ErrShortBurst, len(buf))
	}
	field := func(i int) int16 {
		return int16(binary.BigEndian.Uint16(buf[2*i:]))
	}
	return RawSample{
		AccX:  field(0),
		AccY:  field(1),
		AccZ:  field(2),
		Temp:  field(3),
		GyroX: field(4),
		GyroY: field(5),
		GyroZ: field(6),
	}, nil
}

// ConfigureError reports the configuration step that failed. Steps are
// numbered 1..6 in the order Configure issues them.
type ConfigureError struct {
	Step     int
	Register uint8
	Err      error
}

func (e *ConfigureError) Error() string {
	return fmt.Sprintf("mpu6050: configure step %d (register 0x%02X): %v", e.Step, e.Register, e.Err)
}

func (e *ConfigureError) Unwrap() error {
	return e.Err
}

// Device is an MPU-6050 on a bus.
type Device struct {
	bus     core.I2CBus
	clock   core.Clock
	timeout time.Duration
	settle  time.Duration
}

// Option customizes a Device.
type Option func(*Device)

// WithTimeout sets the per-operation bus timeout.
func WithTimeout(d time.Duration) Option {
	return func(dev *Device) { dev.timeout = d }
}

// WithSettleDelay sets the wait after DEVICE_RESET.
func WithSettleDelay(d time.Duration) Option {
	return func(dev *Device) { dev.settle = d }
}

// WithClock sets the clock used for the settle delay.
func WithClock(c core.Clock) Option {
	return func(dev *Device) { dev.clock = c }
}

// New returns a Device on bus.
func New(bus core.I2CBus, opts ...Option) *Device {
	d := &Device{
		bus:     bus,
		clock:   core.SystemClock{},
		timeout: DefaultTimeout,
		settle:  DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Configure resets the device and applies cfg. The first failing write
// aborts the sequence and is returned as a *ConfigureError.
func (d *Device) Configure(cfg Config) error {
	steps := []struct {
		reg, val uint8
		settle   bool
	}{
		{RegPwrMgmt1, PwrMgmt1Reset, true},
		{RegPwrMgmt1, ClockSelPLLXGyro, false},
		{RegSmplrtDiv, SmplrtDivNone, false},
		{RegConfig, DLPFCfg20Hz, false},
		{RegAccelConfig, AccelConfigValue(cfg.AccelRange), false},
		{RegGyroConfig, GyroConfigValue(cfg.GyroRange), false},
	}

	for i, s := range steps {
		if err := d.writeRegister(cfg.Address, s.reg, s.val); err != nil {
			return &ConfigureError{Step: i + 1, Register: s.reg, Err: err}
		}
		if s.settle {
			d.clock.Sleep(d.settle)
		}
	}
	return nil
}

// ReadBurst reads the 14-byte measurement block from the device at addr.
// The register select and the read share one bus ownership and are joined
// by a repeated start.
func (d *Device) ReadBurst(addr core.I2CAddress) (RawSample, error) {
	var buf [BurstLen]byte

	d.bus.Acquire()
	err := d.bus.Tx(addr.Wire(), []byte{RegAccelXoutH}, core.BeginStart, core.EndAwaitRestart, d.timeout)
	if err == nil {
		err = d.bus.Rx(addr.Wire(), buf[:], core.BeginRestart, core.EndStop, d.timeout)
		if err != nil {
			err = fmt.Errorf("mpu6050: read burst: %w", err)
		}
	} else {
		err = fmt.Errorf("mpu6050: select register 0x%02X: %w", RegAccelXoutH, err)
	}
	d.bus.Release()

	if err != nil {
		return RawSample{}, err
	}
	return DecodeRawSample(buf[:])
}

// writeRegister writes one register in its own bus ownership.
func (d *Device) writeRegister(addr core.I2CAddress, reg, val uint8) error {
	d.bus.Acquire()
	defer d.bus.Release()
	return d.bus.Tx(addr.Wire(), []byte{reg, val}, core.BeginStart, core.EndStop, d.timeout)
}
