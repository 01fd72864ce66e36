package core

import (
	"fmt"
	"sync"
	"time"
)

// Transactor is the combined write-restart-read primitive exposed by host and
// MCU I2C stacks (periph.io i2c.Bus, tinygo drivers.I2C, machine.I2C).
// addr is the 7-bit device address.
type Transactor interface {
	Tx(addr uint16, w, r []byte) error
}

// TxBus adapts a Transactor to I2CBus.
//
// A write that ends with EndAwaitRestart is held and issued together with the
// following BeginRestart read as a single Tx call, which is how the
// underlying stacks express a register-select-then-read transaction.
type TxBus struct {
	owner sync.Mutex // exclusive ownership between Acquire and Release
	hw    sync.Mutex // serializes calls into the transactor, including timed-out ones

	tx Transactor

	pending     []byte
	pendingAddr uint8
	held        bool
}

// NewTxBus wraps t.
func NewTxBus(t Transactor) *TxBus {
	return &TxBus{tx: t}
}

// Acquire blocks until the caller owns the bus.
func (b *TxBus) Acquire() {
	b.owner.Lock()
}

// Release drops ownership and any held write.
func (b *TxBus) Release() {
	b.held = false
	b.pending = nil
	b.owner.Unlock()
}

// Tx writes data, or holds it when end is EndAwaitRestart.
func (b *TxBus) Tx(addr uint8, data []byte, begin Begin, end End, timeout time.Duration) error {
	if begin == BeginRestart && b.held {
		// Chained writes: flush what is held first.
		w := append(b.pending, data...)
		b.held = false
		b.pending = nil
		data = w
	}
	if end == EndAwaitRestart {
		b.pending = append([]byte(nil), data...)
		b.pendingAddr = addr
		b.held = true
		return nil
	}
	w := append([]byte(nil), data...)
	return b.call(addr, w, nil, timeout)
}

// Rx reads into buf. A BeginRestart read consumes the held write.
func (b *TxBus) Rx(addr uint8, buf []byte, begin Begin, end End, timeout time.Duration) error {
	var w []byte
	if begin == BeginRestart {
		if !b.held {
			return ErrNoTransaction
		}
		if b.pendingAddr != addr {
			return fmt.Errorf("%w: restart to 0x%02X after write to 0x%02X", ErrNoTransaction, addr, b.pendingAddr)
		}
		w = b.pending
	}
	b.held = false
	b.pending = nil

	r := make([]byte, len(buf))
	if err := b.call(addr, w, r, timeout); err != nil {
		return err
	}
	copy(buf, r)
	return nil
}

// call runs one transactor call bounded by timeout. The call keeps running
// after a timeout, so it owns its own buffers and holds hw until it returns.
func (b *TxBus) call(addr uint8, w, r []byte, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		b.hw.Lock()
		defer b.hw.Unlock()
		done <- b.tx.Tx(uint16(addr>>1), w, r)
	}()

	var err error
	if timeout <= 0 {
		err = <-done
	} else {
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case err = <-done:
		case <-timer.C:
			return ErrTimeout
		}
	}
	if err != nil {
		return fmt.Errorf("i2c: transfer to 0x%02X: %w", addr>>1, err)
	}
	return nil
}
