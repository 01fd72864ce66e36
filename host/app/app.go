// Package app wires the bus, the sensor driver, the acquisition loop and a
// presentation together for the host build.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mpureader/acquisition"
	"mpureader/config"
	"mpureader/core"
	"mpureader/host/serial"
	"mpureader/mpu6050"
	"mpureader/ui"
)

type MainApp interface {
	PrepareRun() (MainApp, error)
	Run() error
	ProbeSensor() error
	SetOpt(*config.ReaderOpt)
}

type mainApp struct {
	name  string
	cmd   *cobra.Command
	args  []string
	opt   *config.ReaderOpt
	clock core.Clock

	// bus opens the I2C bus; nil means openBus.
	bus func() (core.I2CBus, func(), error)
}

func NewMainApp(cmd *cobra.Command, args []string) MainApp {
	return &mainApp{
		cmd:   cmd,
		args:  args,
		clock: core.SystemClock{},
	}
}

func (a *mainApp) SetOpt(opt *config.ReaderOpt) { a.opt = opt }

func (a *mainApp) PrepareRun() (MainApp, error) {
	desc := config.NewReaderDesc()
	if err := desc.Parse(a.cmd); err != nil {
		return nil, err
	}
	desc.PostParse()
	a.opt = &desc.Opt
	a.name = config.DefaultAppName
	return a, nil
}

// openBus returns the configured bus and a function releasing it.
func (a *mainApp) openBus() (core.I2CBus, func(), error) {
	switch a.opt.Bus.Driver {
	case config.DriverSim:
		log.Infoln("using simulated sensor at", a.opt.SensorConfig().Address)
		return newSimBus(a.opt.SensorConfig().Address, a.clock), func() {}, nil
	default:
		bus, err := core.OpenPeriphBus(a.opt.Bus.Name, a.opt.Bus.SpeedKHz)
		if err != nil {
			return nil, nil, err
		}
		log.Infoln("opened i2c bus", bus)
		return bus, func() {
			if err := bus.Close(); err != nil {
				log.Warnln("failed to close i2c bus:", err)
			}
		}, nil
	}
}

func (a *mainApp) newDevice(bus core.I2CBus) *mpu6050.Device {
	return mpu6050.New(bus,
		mpu6050.WithTimeout(core.DurationMS(a.opt.Bus.TimeoutMS)),
		mpu6050.WithSettleDelay(core.DurationMS(a.opt.Sensor.SettleMS)),
		mpu6050.WithClock(a.clock),
	)
}

func (a *mainApp) Run() error {
	log.Infoln("version:", ui.Version)
	log.Infoln("bus.driver:", a.opt.Bus.Driver)
	log.Infoln("bus.name:", a.opt.Bus.Name)
	log.Infoln("sensor:", a.opt.SensorConfig().Address,
		mpu6050.AccelRangeLabel(a.opt.Sensor.AccelRange),
		mpu6050.GyroRangeLabel(a.opt.Sensor.GyroRange))
	log.Infoln("loop.period_ms:", a.opt.Loop.PeriodMS)
	log.Infoln("ui.mode:", a.opt.UI.Mode)

	bus, closeBus, err := a.openBus()
	if err != nil {
		return err
	}
	defer closeBus()

	loop, err := acquisition.New(a.newDevice(bus), a.opt.SensorConfig(),
		acquisition.WithPeriod(core.DurationMS(a.opt.Loop.PeriodMS)),
		acquisition.WithLogger(log.WithField("component", "acquisition")),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fe, err := a.openFrontend(ctx)
	if err != nil {
		return err
	}
	defer fe.close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()

	ui.Drive(ctx, loop, fe, fe.events, log.StandardLogger())
	stop()
	<-done
	return nil
}

// frontend is a presentation plus its input source.
type frontend struct {
	ui.Presentation
	events <-chan ui.Event
	close  func()
}

func (a *mainApp) openFrontend(ctx context.Context) (*frontend, error) {
	switch a.opt.UI.Mode {
	case config.ModeTerm:
		restore := redirectLog()
		t, err := ui.NewTerminal()
		if err != nil {
			restore()
			return nil, err
		}
		return &frontend{
			Presentation: t,
			events:       t.Events(ctx),
			close: func() {
				t.Close()
				restore()
			},
		}, nil

	case config.ModeConsole:
		if a.opt.UI.Serial.Device == "" {
			c := ui.NewConsole(os.Stdout, ui.WithClear(true))
			return &frontend{Presentation: c, events: ui.ReadKeys(ctx, os.Stdin), close: func() {}}, nil
		}
		cfg := serial.DefaultConfig(a.opt.UI.Serial.Device)
		cfg.Baud = a.opt.UI.Serial.Baud
		port, err := serial.Open(cfg)
		if err != nil {
			return nil, err
		}
		if err := port.Flush(); err != nil {
			log.Debugln("serial flush:", err)
		}
		log.Infoln("console on", cfg.Device, "at", cfg.Baud, "baud")
		c := ui.NewConsole(port, ui.WithClear(true), ui.WithCRLF(true))
		return &frontend{
			Presentation: c,
			events:       ui.ReadKeys(ctx, port),
			close:        func() { _ = port.Close() },
		}, nil

	default:
		return &frontend{Presentation: logPresentation{}, close: func() {}}, nil
	}
}

// logPresentation writes each snapshot to the log. It takes no input.
type logPresentation struct{}

func (logPresentation) Render(snap acquisition.Snapshot) error {
	entry := log.WithFields(log.Fields{
		"state":   snap.State.String(),
		"healthy": snap.Healthy,
		"cycle":   snap.Cycles,
	})
	if !snap.Healthy {
		if snap.LastError != "" {
			entry = entry.WithField("error", snap.LastError)
		}
		entry.Debugln("no sample")
		return nil
	}
	entry.WithFields(log.Fields{
		"ax": fmt.Sprintf("%.2f", snap.Accel.X),
		"ay": fmt.Sprintf("%.2f", snap.Accel.Y),
		"az": fmt.Sprintf("%.2f", snap.Accel.Z),
		"gx": fmt.Sprintf("%.1f", snap.Gyro.X),
		"gy": fmt.Sprintf("%.1f", snap.Gyro.Y),
		"gz": fmt.Sprintf("%.1f", snap.Gyro.Z),
		"t":  fmt.Sprintf("%.1f", snap.TempC),
	}).Infoln("sample")
	return nil
}

func (logPresentation) HandleInput(ui.Event) (acquisition.Change, bool) { return 0, false }

func (logPresentation) Quit() bool { return false }

// redirectLog sends log output to a file while termui owns the screen.
func redirectLog() func() {
	p := filepath.Join(os.TempDir(), config.DefaultAppName+".log")
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		log.SetOutput(io.Discard)
		return func() { log.SetOutput(os.Stderr) }
	}
	log.Infoln("logging to", p)
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}
}

// ProbeSensor configures and reads the sensor at both selectable addresses.
func (a *mainApp) ProbeSensor() error {
	open := a.openBus
	if a.bus != nil {
		open = a.bus
	}
	bus, closeBus, err := open()
	if err != nil {
		return err
	}
	defer closeBus()

	dev := a.newDevice(bus)
	log.Infoln("Probing MPU-6050 addresses...")

	found := 0
	for _, addr := range []core.I2CAddress{mpu6050.AddressLow, mpu6050.AddressHigh} {
		cfg := a.opt.SensorConfig()
		cfg.Address = addr
		if err := probe(dev, cfg); err != nil {
			log.Debugf("%s: %v", addr, err)
			fmt.Printf("- %s: not found\n", addr)
			continue
		}
		found++
		fmt.Printf("- %s: MPU-6050\n", addr)
	}
	if found == 0 {
		return errors.New("no MPU-6050 found")
	}
	log.Infof("Found %d sensor(s)", found)
	return nil
}

func probe(dev acquisition.Sensor, cfg mpu6050.Config) error {
	if err := dev.Configure(cfg); err != nil {
		return err
	}
	_, err := dev.ReadBurst(cfg.Address)
	return err
}
