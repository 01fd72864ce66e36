package mpu6050

import (
	"time"

	"mpureader/core"
)

// Bus addresses selected by the AD0 pin.
const (
	AddressLow  core.I2CAddress = 0x68 // AD0 low, default
	AddressHigh core.I2CAddress = 0x69 // AD0 high
)

// Registers.
const (
	RegSmplrtDiv   = 0x19 // Sample Rate Divider
	RegConfig      = 0x1A // Configuration (DLPF)
	RegGyroConfig  = 0x1B // Gyroscope Configuration
	RegAccelConfig = 0x1C // Accelerometer Configuration
	RegAccelXoutH  = 0x3B // first byte of the measurement burst
	RegPwrMgmt1    = 0x6B // Power Management 1
)

// Register values.
const (
	PwrMgmt1Reset    = 0x80 // DEVICE_RESET
	ClockSelPLLXGyro = 0x01 // PLL with X axis gyroscope reference
	SmplrtDivNone    = 0x00 // 1 kHz sample rate with DLPF enabled
	DLPFCfg20Hz      = 0x04 // ~20 Hz accel/gyro bandwidth

	// FS_SEL / AFS_SEL occupy bits 4:3 of the gyro/accel config registers.
	fullScaleShift = 3
	fullScaleMask  = 0x03
)

// BurstLen is the size of the accel+temp+gyro measurement block.
const BurstLen = 14

// Timing.
const (
	DefaultTimeout     = 100 * time.Millisecond // per bus operation
	DefaultSettleDelay = 100 * time.Millisecond // after DEVICE_RESET
)

// RangeCount is the number of full-scale selections for each sensor.
const RangeCount = 4

var accelRangeLabels = [RangeCount]string{"+/- 2g", "+/- 4g", "+/- 8g", "+/- 16g"}

var gyroRangeLabels = [RangeCount]string{"+/- 250", "+/- 500", "+/- 1000", "+/- 2000"}

// AccelConfigValue returns the ACCEL_CONFIG value selecting range index i.
func AccelConfigValue(i uint8) uint8 {
	return (i & fullScaleMask) << fullScaleShift
}

// GyroConfigValue returns the GYRO_CONFIG value selecting range index i.
func GyroConfigValue(i uint8) uint8 {
	return (i & fullScaleMask) << fullScaleShift
}

// AccelRangeLabel is the display name of accelerometer range index i.
func AccelRangeLabel(i uint8) string {
	if int(i) < len(accelRangeLabels) {
		return accelRangeLabels[i]
	}
	return "?"
}

// GyroRangeLabel is the display name of gyroscope range index i, in deg/s.
func GyroRangeLabel(i uint8) string {
	if int(i) < len(gyroRangeLabels) {
		return gyroRangeLabels[i]
	}
	return "?"
}
