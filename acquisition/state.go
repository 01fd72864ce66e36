package acquisition

import (
	"fmt"

	"mpureader/mpu6050"
	"mpureader/scaling"
)

// State is the acquisition state machine state.
type State uint8

const (
	Uninitialized State = iota // next cycle runs the configure sequence
	Ready                      // next cycle reads a burst
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Snapshot is the state published to presentation. When Healthy is false
// Accel, Gyro and TempC are the last good values and must not be shown as
// fresh data.
type Snapshot struct {
	Healthy bool
	State   State

	Accel scaling.PhysicalSample
	Gyro  scaling.AngularRate
	TempC float64
	Peaks scaling.Peaks

	Config mpu6050.Config

	Cycles    uint64
	LastError string
}

// Change is a configuration change request from presentation.
type Change uint8

const (
	ToggleAddress Change = iota
	AccelRangeNext
	AccelRangePrev
	GyroRangeNext
	GyroRangePrev
	ResetPeaks
)

func (c Change) String() string {
	switch c {
	case ToggleAddress:
		return "toggle-address"
	case AccelRangeNext:
		return "accel-range-next"
	case AccelRangePrev:
		return "accel-range-prev"
	case GyroRangeNext:
		return "gyro-range-next"
	case GyroRangePrev:
		return "gyro-range-prev"
	case ResetPeaks:
		return "reset-peaks"
	default:
		return fmt.Sprintf("Change(%d)", uint8(c))
	}
}

// reconfigures reports whether applying c requires the configure sequence.
func (c Change) reconfigures() bool {
	return c != ResetPeaks
}

// applyTo returns cfg with c applied. Range indices wrap within 0..3.
func (c Change) applyTo(cfg mpu6050.Config) mpu6050.Config {
	switch c {
	case ToggleAddress:
		if cfg.Address == mpu6050.AddressLow {
			cfg.Address = mpu6050.AddressHigh
		} else {
			cfg.Address = mpu6050.AddressLow
		}
	case AccelRangeNext:
		cfg.AccelRange = stepRange(cfg.AccelRange, 1)
	case AccelRangePrev:
		cfg.AccelRange = stepRange(cfg.AccelRange, -1)
	case GyroRangeNext:
		cfg.GyroRange = stepRange(cfg.GyroRange, 1)
	case GyroRangePrev:
		cfg.GyroRange = stepRange(cfg.GyroRange, -1)
	}
	return cfg
}

func stepRange(i uint8, delta int) uint8 {
	n := (int(i) + delta) % mpu6050.RangeCount
	if n < 0 {
		n += mpu6050.RangeCount
	}
	return uint8(n)
}
