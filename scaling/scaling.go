// Package scaling converts raw MPU-6050 counts into physical units and
// tracks per-axis acceleration peaks.
package scaling

import (
	"math"

	"mpureader/mpu6050"
)

// Accelerometer sensitivity in LSB/g per range index (+/- 2, 4, 8, 16 g).
var accelSensitivity = [mpu6050.RangeCount]float64{16384.0, 8192.0, 4096.0, 2048.0}

// Gyroscope sensitivity in LSB/(deg/s) per range index (+/- 250, 500, 1000, 2000).
var gyroSensitivity = [mpu6050.RangeCount]float64{131.0, 65.5, 32.8, 16.4}

const (
	defaultAccelSensitivity = 8192.0 // +/- 4g
	defaultGyroSensitivity  = 65.5   // +/- 500 deg/s

	tempScale  = 340.0
	tempOffset = 36.53
)

// AccelSensitivity returns LSB/g for range index i. Indices outside 0..3
// fall back to the +/- 4g value.
func AccelSensitivity(i uint8) float64 {
	if int(i) < len(accelSensitivity) {
		return accelSensitivity[i]
	}
	return defaultAccelSensitivity
}

// GyroSensitivity returns LSB/(deg/s) for range index i, falling back to
// the +/- 500 deg/s value.
func GyroSensitivity(i uint8) float64 {
	if int(i) < len(gyroSensitivity) {
		return gyroSensitivity[i]
	}
	return defaultGyroSensitivity
}

// PhysicalSample is acceleration in g.
type PhysicalSample struct {
	X, Y, Z float64
}

// AngularRate is rotation in deg/s.
type AngularRate struct {
	X, Y, Z float64
}

// ToPhysical converts the accelerometer counts of raw using range index i.
func ToPhysical(raw mpu6050.RawSample, i uint8) PhysicalSample {
	s := AccelSensitivity(i)
	return PhysicalSample{
		X: float64(raw.AccX) / s,
		Y: float64(raw.AccY) / s,
		Z: float64(raw.AccZ) / s,
	}
}

// ToAngularRate converts the gyroscope counts of raw using range index i.
func ToAngularRate(raw mpu6050.RawSample, i uint8) AngularRate {
	s := GyroSensitivity(i)
	return AngularRate{
		X: float64(raw.GyroX) / s,
		Y: float64(raw.GyroY) / s,
		Z: float64(raw.GyroZ) / s,
	}
}

// TemperatureC converts the raw die temperature to degrees Celsius.
func TemperatureC(raw int16) float64 {
	return float64(raw)/tempScale + tempOffset
}

// Peaks holds the largest absolute acceleration seen on each axis since
// the last reset.
type Peaks struct {
	X, Y, Z float64
}

// Update raises each axis peak to |s| when larger.
func (p *Peaks) Update(s PhysicalSample) {
	p.X = math.Max(p.X, math.Abs(s.X))
	p.Y = math.Max(p.Y, math.Abs(s.Y))
	p.Z = math.Max(p.Z, math.Abs(s.Z))
}

// Reset zeroes all three peaks.
func (p *Peaks) Reset() {
	*p = Peaks{}
}
