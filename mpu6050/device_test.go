package mpu6050

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"mpureader/core"
)

// stepClock records sleeps together with the number of transfers seen so far.
type stepClock struct {
	bus    *core.SimBus
	sleeps []time.Duration
	after  []int
}

func (c *stepClock) Now() time.Time { return time.Time{} }

func (c *stepClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.after = append(c.after, len(c.bus.Ops()))
}

func newTestDevice(t *testing.T, addr core.I2CAddress) (*Device, *core.SimBus, *stepClock) {
	t.Helper()
	bus := core.NewSimBus()
	bus.Attach(addr, Simulated(nil))
	clock := &stepClock{bus: bus}
	return New(bus, WithClock(clock)), bus, clock
}

func TestConfigureSequence(t *testing.T) {
	dev, bus, clock := newTestDevice(t, AddressLow)

	cfg := Config{Address: AddressLow, AccelRange: 1, GyroRange: 1}
	if err := dev.Configure(cfg); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	expected := [][]byte{
		{0x6B, 0x80},
		{0x6B, 0x01},
		{0x19, 0x00},
		{0x1A, 0x04},
		{0x1C, 0x08},
		{0x1B, 0x08},
	}

	ops := bus.Ops()
	if len(ops) != len(expected) {
		t.Fatalf("Expected %d transfers, got %d", len(expected), len(ops))
	}
	for i, op := range ops {
		if op.Kind != core.SimWrite {
			t.Errorf("Transfer %d: expected write", i)
		}
		if op.Addr != 0xD0 {
			t.Errorf("Transfer %d: address byte 0x%02X, expected 0xD0", i, op.Addr)
		}
		if op.Begin != core.BeginStart || op.End != core.EndStop {
			t.Errorf("Transfer %d: expected start/stop, got %d/%d", i, op.Begin, op.End)
		}
		if !bytes.Equal(op.Data, expected[i]) {
			t.Errorf("Transfer %d: wrote % X, expected % X", i, op.Data, expected[i])
		}
	}

	acq, rel := bus.Ownership()
	if acq != 6 || rel != 6 {
		t.Errorf("Expected 6 acquire/release pairs, got %d/%d", acq, rel)
	}

	if len(clock.sleeps) != 1 || clock.sleeps[0] != DefaultSettleDelay {
		t.Fatalf("Expected one %v settle delay, got %v", DefaultSettleDelay, clock.sleeps)
	}
	if clock.after[0] != 1 {
		t.Errorf("Settle delay must follow the reset write, ran after %d transfers", clock.after[0])
	}
}

func TestConfigureRangeEncoding(t *testing.T) {
	testCases := []struct {
		accel, gyro       uint8
		accelReg, gyroReg uint8
	}{
		{0, 0, 0x00, 0x00},
		{1, 2, 0x08, 0x10},
		{2, 3, 0x10, 0x18},
		{3, 0, 0x18, 0x00},
	}

	for _, tc := range testCases {
		dev, bus, _ := newTestDevice(t, AddressHigh)
		if err := dev.Configure(Config{Address: AddressHigh, AccelRange: tc.accel, GyroRange: tc.gyro}); err != nil {
			t.Fatalf("Configure failed: %v", err)
		}
		ops := bus.Ops()
		if ops[0].Addr != 0xD2 {
			t.Errorf("Expected address byte 0xD2, got 0x%02X", ops[0].Addr)
		}
		if got := ops[4].Data; !bytes.Equal(got, []byte{RegAccelConfig, tc.accelReg}) {
			t.Errorf("accel %d: wrote % X", tc.accel, got)
		}
		if got := ops[5].Data; !bytes.Equal(got, []byte{RegGyroConfig, tc.gyroReg}) {
			t.Errorf("gyro %d: wrote % X", tc.gyro, got)
		}
	}
}

func TestConfigureAbortsOnFailure(t *testing.T) {
	dev, bus, clock := newTestDevice(t, AddressLow)
	bus.Fault = func(op core.SimOp, n int) error {
		if n == 3 {
			return core.ErrTimeout
		}
		return nil
	}

	err := dev.Configure(DefaultConfig())

	var cerr *ConfigureError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected *ConfigureError, got %v", err)
	}
	if cerr.Step != 3 || cerr.Register != RegSmplrtDiv {
		t.Errorf("Failure reported at step %d register 0x%02X, expected step 3 register 0x19", cerr.Step, cerr.Register)
	}
	if !errors.Is(err, core.ErrTimeout) {
		t.Errorf("Expected the transport error to be wrapped, got %v", err)
	}

	if n := len(bus.Ops()); n != 3 {
		t.Errorf("Sequence continued after failure: %d transfers", n)
	}
	acq, rel := bus.Ownership()
	if acq != 3 || rel != 3 {
		t.Errorf("Bus ownership unbalanced after failure: %d/%d", acq, rel)
	}
	if len(clock.sleeps) != 1 {
		t.Errorf("Expected settle delay before the failure, got %d sleeps", len(clock.sleeps))
	}
}

func TestConfigureMissingDevice(t *testing.T) {
	bus := core.NewSimBus()
	dev := New(bus, WithSettleDelay(0))

	err := dev.Configure(DefaultConfig())
	if !errors.Is(err, core.ErrNack) {
		t.Fatalf("Expected ErrNack, got %v", err)
	}
	if n := len(bus.Ops()); n != 1 {
		t.Errorf("Expected the sequence to stop after the reset write, got %d transfers", n)
	}
}

func TestReadBurstWire(t *testing.T) {
	sample := RawSample{AccX: 8192, AccY: -8192, AccZ: 16384, Temp: -1600, GyroX: 1, GyroY: -1, GyroZ: 32767}
	bus := core.NewSimBus()
	bus.Attach(AddressLow, Simulated(func() RawSample { return sample }))
	dev := New(bus)

	got, err := dev.ReadBurst(AddressLow)
	if err != nil {
		t.Fatalf("ReadBurst failed: %v", err)
	}
	if got != sample {
		t.Errorf("ReadBurst = %+v, expected %+v", got, sample)
	}

	ops := bus.Ops()
	if len(ops) != 2 {
		t.Fatalf("Expected 2 transfers, got %d", len(ops))
	}
	sel, rd := ops[0], ops[1]
	if sel.Kind != core.SimWrite || !bytes.Equal(sel.Data, []byte{RegAccelXoutH}) ||
		sel.Begin != core.BeginStart || sel.End != core.EndAwaitRestart {
		t.Errorf("Unexpected register select: %+v", sel)
	}
	if rd.Kind != core.SimRead || len(rd.Data) != BurstLen ||
		rd.Begin != core.BeginRestart || rd.End != core.EndStop {
		t.Errorf("Unexpected burst read: %+v", rd)
	}
	if sel.Addr != 0xD0 || rd.Addr != 0xD0 {
		t.Errorf("Expected address byte 0xD0, got 0x%02X/0x%02X", sel.Addr, rd.Addr)
	}

	acq, rel := bus.Ownership()
	if acq != 1 || rel != 1 {
		t.Errorf("Expected one acquire/release pair, got %d/%d", acq, rel)
	}
}

func TestReadBurstFailures(t *testing.T) {
	for _, failAt := range []int{1, 2} {
		bus := core.NewSimBus()
		bus.Attach(AddressLow, Simulated(nil))
		bus.Fault = func(op core.SimOp, n int) error {
			if n == failAt {
				return core.ErrTimeout
			}
			return nil
		}
		dev := New(bus)

		got, err := dev.ReadBurst(AddressLow)
		if !errors.Is(err, core.ErrTimeout) {
			t.Errorf("phase %d: expected ErrTimeout, got %v", failAt, err)
		}
		if got != (RawSample{}) {
			t.Errorf("phase %d: failed read produced a sample %+v", failAt, got)
		}
		if n := len(bus.Ops()); n != failAt {
			t.Errorf("phase %d: expected %d transfers, got %d", failAt, failAt, n)
		}
		acq, rel := bus.Ownership()
		if acq != 1 || rel != 1 {
			t.Errorf("phase %d: ownership %d/%d", failAt, acq, rel)
		}
	}
}

func TestDecodeRawSample(t *testing.T) {
	buf := []byte{
		0x20, 0x00, // acc x = 8192
		0xFF, 0xFF, // acc y = -1
		0x80, 0x00, // acc z = -32768
		0x00, 0x00, // temp
		0x7F, 0xFF, // gyro x = 32767
		0x00, 0x01, // gyro y = 1
		0xFE, 0x0C, // gyro z = -500
	}

	s, err := DecodeRawSample(buf)
	if err != nil {
		t.Fatalf("DecodeRawSample failed: %v", err)
	}
	expected := RawSample{AccX: 8192, AccY: -1, AccZ: -32768, Temp: 0, GyroX: 32767, GyroY: 1, GyroZ: -500}
	if s != expected {
		t.Errorf("Decoded %+v, expected %+v", s, expected)
	}
	if b := s.Bytes(); !bytes.Equal(b[:], buf) {
		t.Errorf("Bytes() = % X, expected % X", b, buf)
	}

	if _, err := DecodeRawSample(buf[:13]); !errors.Is(err, ErrShortBurst) {
		t.Errorf("Expected ErrShortBurst, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		cfg   Config
		valid bool
	}{
		{DefaultConfig(), true},
		{Config{Address: AddressHigh, AccelRange: 3, GyroRange: 0}, true},
		{Config{Address: 0x53, AccelRange: 1, GyroRange: 1}, false},
		{Config{Address: AddressLow, AccelRange: 4, GyroRange: 1}, false},
		{Config{Address: AddressLow, AccelRange: 1, GyroRange: 9}, false},
	}

	for _, tc := range testCases {
		err := tc.cfg.Validate()
		if tc.valid && err != nil {
			t.Errorf("%+v: unexpected error %v", tc.cfg, err)
		}
		if !tc.valid && !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%+v: expected ErrInvalidConfig, got %v", tc.cfg, err)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Address != 0x68 || cfg.AccelRange != 1 || cfg.GyroRange != 1 {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
}
