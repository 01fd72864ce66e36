package app

import (
	"math"
	"time"

	"mpureader/core"
	"mpureader/mpu6050"
)

// waveform produces a slowly tilting, gently shaking sensor at rest. Values
// are raw counts for the +/- 4g and +/- 500 deg/s ranges.
type waveform struct {
	clock core.Clock
	start time.Time
}

func newWaveform(clock core.Clock) *waveform {
	return &waveform{clock: clock, start: clock.Now()}
}

func (w *waveform) sample() mpu6050.RawSample {
	t := w.clock.Now().Sub(w.start).Seconds()
	tilt := 0.3 * math.Sin(2*math.Pi*t/8)
	rate := 0.3 * 2 * math.Pi / 8 * math.Cos(2*math.Pi*t/8)
	shake := 0.05 * math.Sin(2*math.Pi*t*3)

	return mpu6050.RawSample{
		AccX:  int16(8192 * (math.Sin(tilt) + shake)),
		AccY:  int16(8192 * shake / 2),
		AccZ:  int16(8192 * math.Cos(tilt)),
		Temp:  int16(math.Round((24.0 - 36.53) * 340)),
		GyroY: int16(65.5 * rate * 180 / math.Pi),
	}
}

// newSimBus returns a bus with a simulated sensor attached at addr.
func newSimBus(addr core.I2CAddress, clock core.Clock) *core.SimBus {
	bus := core.NewSimBus()
	bus.MaxOps = 64
	bus.Attach(addr, mpu6050.Simulated(newWaveform(clock).sample))
	return bus
}
