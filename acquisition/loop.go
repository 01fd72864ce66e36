// Package acquisition runs the sensor polling state machine and publishes
// its results to presentation.
package acquisition

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"mpureader/core"
	"mpureader/mpu6050"
	"mpureader/scaling"
)

// DefaultPeriod is the time between acquisition cycles.
const DefaultPeriod = 100 * time.Millisecond

// Sensor is the device the loop drives.
type Sensor interface {
	Configure(cfg mpu6050.Config) error
	ReadBurst(addr core.I2CAddress) (mpu6050.RawSample, error)
}

// Loop owns the device configuration and the published snapshot.
//
// mu guards cfg, state and snap and is never held across bus I/O. opMu
// serializes device operation groups (a cycle, a synchronous reconfigure)
// so a configure sequence never interleaves with a burst read.
type Loop struct {
	dev    Sensor
	period time.Duration
	log    log.FieldLogger

	opMu sync.Mutex

	mu    sync.Mutex
	cfg   mpu6050.Config
	state State
	snap  Snapshot

	updated chan struct{}
}

// Option customizes a Loop.
type Option func(*Loop)

// WithPeriod sets the cycle period.
func WithPeriod(d time.Duration) Option {
	return func(l *Loop) { l.period = d }
}

// WithLogger sets the logger.
func WithLogger(logger log.FieldLogger) Option {
	return func(l *Loop) { l.log = logger }
}

// New returns a Loop in the Uninitialized state.
func New(dev Sensor, cfg mpu6050.Config, opts ...Option) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Loop{
		dev:     dev,
		period:  DefaultPeriod,
		log:     log.StandardLogger(),
		cfg:     cfg,
		state:   Uninitialized,
		updated: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.period <= 0 {
		return nil, fmt.Errorf("acquisition: period must be positive, got %v", l.period)
	}
	l.snap.Config = cfg
	return l, nil
}

// Run executes a cycle every period until ctx is done. Cancellation is
// checked between cycles; an in-flight cycle always completes.
func (l *Loop) Run(ctx context.Context) {
	l.log.WithFields(log.Fields{
		"address": l.Config().Address,
		"period":  l.period,
	}).Info("acquisition started")

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		l.Cycle()

		select {
		case <-ctx.Done():
			l.log.WithField("cycles", l.Snapshot().Cycles).Info("acquisition stopped")
			return
		case <-ticker.C:
		}
	}
}

// Cycle runs one acquisition step: configure when Uninitialized, then read
// when Ready. A failed read drops back to Uninitialized so the next cycle
// configures the device again.
func (l *Loop) Cycle() {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	defer l.notify()

	l.mu.Lock()
	cfg, state := l.cfg, l.state
	l.snap.Cycles++
	l.mu.Unlock()

	if state == Uninitialized {
		if err := l.dev.Configure(cfg); err != nil {
			l.log.WithError(err).WithField("address", cfg.Address).Debug("sensor configure failed")
			l.update(func() {
				l.state = Uninitialized
				l.snap.Healthy = false
				l.snap.LastError = err.Error()
			})
			return
		}
		l.log.WithField("address", cfg.Address).Info("sensor configured")
		l.update(func() {
			l.state = Ready
			l.snap.Healthy = true
			l.snap.LastError = ""
		})
	}

	raw, err := l.dev.ReadBurst(cfg.Address)
	if err != nil {
		l.log.WithError(err).WithField("address", cfg.Address).Warn("sensor read failed")
		l.update(func() {
			l.state = Uninitialized
			l.snap.Healthy = false
			l.snap.LastError = err.Error()
		})
		return
	}

	accel := scaling.ToPhysical(raw, cfg.AccelRange)
	gyro := scaling.ToAngularRate(raw, cfg.GyroRange)
	temp := scaling.TemperatureC(raw.Temp)

	l.update(func() {
		l.snap.Healthy = true
		l.snap.Accel = accel
		l.snap.Gyro = gyro
		l.snap.TempC = temp
		l.snap.Peaks.Update(accel)
		l.snap.LastError = ""
	})
}

// Apply handles a change request. Peak resets only touch published state;
// every other change updates the configuration and runs the configure
// sequence immediately, ahead of the next cycle.
func (l *Loop) Apply(c Change) error {
	if !c.reconfigures() {
		l.update(func() { l.snap.Peaks.Reset() })
		l.notify()
		l.log.Debug("peaks reset")
		return nil
	}

	l.opMu.Lock()
	defer l.opMu.Unlock()

	l.mu.Lock()
	cfg := c.applyTo(l.cfg)
	l.cfg = cfg
	l.snap.Config = cfg
	l.mu.Unlock()

	entry := l.log.WithFields(log.Fields{
		"change":      c,
		"address":     cfg.Address,
		"accel_range": cfg.AccelRange,
		"gyro_range":  cfg.GyroRange,
	})

	err := l.dev.Configure(cfg)
	l.update(func() {
		if err != nil {
			l.state = Uninitialized
			l.snap.Healthy = false
			l.snap.LastError = err.Error()
			return
		}
		l.state = Ready
		l.snap.Healthy = true
		l.snap.LastError = ""
	})
	l.notify()

	if err != nil {
		entry.WithError(err).Warn("reconfigure failed")
		return err
	}
	entry.Info("reconfigured")
	return nil
}

// Snapshot returns a copy of the published state.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.snap
	s.State = l.state
	return s
}

// Config returns the current device configuration.
func (l *Loop) Config() mpu6050.Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// Updated signals after every cycle and applied change. Signals coalesce:
// a reader that falls behind sees one pending signal.
func (l *Loop) Updated() <-chan struct{} {
	return l.updated
}

// update applies fn under the state lock.
func (l *Loop) update(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
}

func (l *Loop) notify() {
	select {
	case l.updated <- struct{}{}:
	default:
	}
}
