package core

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestSimBusRegisterPointer(t *testing.T) {
	bus := NewSimBus()
	dev := &SimDevice{}
	bus.Attach(0x68, dev)

	bus.Acquire()
	if err := bus.Tx(0xD0, []byte{0x1C, 0x08}, BeginStart, EndStop, 0); err != nil {
		t.Fatalf("Tx failed: %v", err)
	}
	bus.Release()

	if dev.Registers[0x1C] != 0x08 {
		t.Errorf("Register 0x1C = 0x%02X, expected 0x08", dev.Registers[0x1C])
	}

	dev.Registers[0x3B] = 0x12
	dev.Registers[0x3C] = 0x34

	bus.Acquire()
	_ = bus.Tx(0xD0, []byte{0x3B}, BeginStart, EndAwaitRestart, 0)
	buf := make([]byte, 2)
	err := bus.Rx(0xD0, buf, BeginRestart, EndStop, 0)
	bus.Release()

	if err != nil {
		t.Fatalf("Rx failed: %v", err)
	}
	if !bytes.Equal(buf, []byte{0x12, 0x34}) {
		t.Errorf("Read % X, expected 12 34", buf)
	}

	acq, rel := bus.Ownership()
	if acq != 2 || rel != 2 {
		t.Errorf("Ownership = %d/%d, expected 2/2", acq, rel)
	}
}

func TestSimBusMissingDeviceNacks(t *testing.T) {
	bus := NewSimBus()

	bus.Acquire()
	defer bus.Release()

	err := bus.Tx(I2CAddress(0x69).Wire(), []byte{0x6B, 0x80}, BeginStart, EndStop, time.Millisecond)
	if !errors.Is(err, ErrNack) {
		t.Errorf("Expected ErrNack, got %v", err)
	}
}

func TestSimBusFaultHook(t *testing.T) {
	bus := NewSimBus()
	bus.Attach(0x68, &SimDevice{})
	bus.Fault = func(op SimOp, n int) error {
		if n == 2 {
			return ErrTimeout
		}
		return nil
	}

	bus.Acquire()
	defer bus.Release()

	if err := bus.Tx(0xD0, []byte{0x6B, 0x80}, BeginStart, EndStop, 0); err != nil {
		t.Fatalf("First transfer failed: %v", err)
	}
	if err := bus.Tx(0xD0, []byte{0x6B, 0x01}, BeginStart, EndStop, 0); !errors.Is(err, ErrTimeout) {
		t.Errorf("Expected injected ErrTimeout, got %v", err)
	}
	if ops := bus.Ops(); len(ops) != 2 {
		t.Errorf("Expected 2 logged transfers, got %d", len(ops))
	}
}

func TestSimBusMaxOps(t *testing.T) {
	bus := NewSimBus()
	bus.Attach(0x68, &SimDevice{})
	bus.MaxOps = 2

	var seen []int
	bus.Fault = func(_ SimOp, n int) error {
		seen = append(seen, n)
		return nil
	}

	bus.Acquire()
	for i := byte(0); i < 3; i++ {
		_ = bus.Tx(0xD0, []byte{0x19, i}, BeginStart, EndStop, 0)
	}
	bus.Release()

	ops := bus.Ops()
	if len(ops) != 2 || ops[0].Data[1] != 1 || ops[1].Data[1] != 2 {
		t.Errorf("Expected the two newest writes, got %+v", ops)
	}
	if len(seen) != 3 || seen[2] != 3 {
		t.Errorf("Fault counts %v, expected 1..3", seen)
	}
}
