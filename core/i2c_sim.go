package core

import (
	"sync"
	"time"
)

// SimOpKind is the kind of a recorded simulated transfer.
type SimOpKind uint8

const (
	SimWrite SimOpKind = iota
	SimRead
)

// SimOp records one transfer seen by SimBus.
type SimOp struct {
	Kind  SimOpKind
	Addr  uint8 // transaction address byte
	Data  []byte
	Begin Begin
	End   End
}

// SimDevice is a register-addressed device on a SimBus. The first byte of a
// write sets the register pointer; further bytes are stored with
// auto-increment. Reads return registers from the pointer, auto-incrementing.
type SimDevice struct {
	Registers [256]byte

	// BeforeRead, when set, runs before a read is served so callers can
	// refresh measurement registers.
	BeforeRead func(regs *[256]byte)

	pointer uint8
}

// SimBus is an in-memory I2CBus for tests and hardware-less runs.
type SimBus struct {
	owner sync.Mutex

	mu       sync.Mutex
	devices  map[uint8]*SimDevice // keyed by 7-bit address
	ops      []SimOp
	count    int
	acquires int
	releases int
	held     bool

	// Fault, when set, is consulted before every transfer; a non-nil error
	// fails the transfer without touching the device. n counts transfers
	// since the last ResetOps, starting at 1.
	Fault func(op SimOp, n int) error

	// MaxOps bounds the transfer log, keeping the newest entries. Zero keeps
	// everything.
	MaxOps int
}

// NewSimBus returns an empty bus.
func NewSimBus() *SimBus {
	return &SimBus{devices: make(map[uint8]*SimDevice)}
}

// Attach places dev at addr.
func (s *SimBus) Attach(addr I2CAddress, dev *SimDevice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[uint8(addr)] = dev
}

// Detach removes the device at addr; later transfers to it are not acknowledged.
func (s *SimBus) Detach(addr I2CAddress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.devices, uint8(addr))
}

// Acquire blocks until the caller owns the bus.
func (s *SimBus) Acquire() {
	s.owner.Lock()
	s.mu.Lock()
	s.acquires++
	s.mu.Unlock()
}

// Release drops ownership and any held write.
func (s *SimBus) Release() {
	s.mu.Lock()
	s.releases++
	s.held = false
	s.mu.Unlock()
	s.owner.Unlock()
}

// Tx logs and applies a write. The first byte sets the register pointer.
func (s *SimBus) Tx(addr uint8, data []byte, begin Begin, end End, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op := SimOp{Kind: SimWrite, Addr: addr, Data: append([]byte(nil), data...), Begin: begin, End: end}
	if err := s.record(op); err != nil {
		return err
	}

	dev, ok := s.devices[addr>>1]
	if !ok {
		return ErrNack
	}
	if len(data) > 0 {
		dev.pointer = data[0]
		for _, b := range data[1:] {
			dev.Registers[dev.pointer] = b
			dev.pointer++
		}
	}
	s.held = end == EndAwaitRestart
	return nil
}

// Rx logs and serves a read from the register pointer. A BeginRestart read
// needs a held write.
func (s *SimBus) Rx(addr uint8, buf []byte, begin Begin, end End, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op := SimOp{Kind: SimRead, Addr: addr, Begin: begin, End: end}
	if begin == BeginRestart && !s.held {
		return ErrNoTransaction
	}
	if err := s.record(op); err != nil {
		return err
	}

	dev, ok := s.devices[addr>>1]
	if !ok {
		return ErrNack
	}
	if dev.BeforeRead != nil {
		dev.BeforeRead(&dev.Registers)
	}
	for i := range buf {
		buf[i] = dev.Registers[dev.pointer]
		dev.pointer++
	}
	s.ops[len(s.ops)-1].Data = append([]byte(nil), buf...)
	s.held = end == EndAwaitRestart
	return nil
}

// record appends op to the log and applies the fault hook. Failed transfers
// are logged too.
func (s *SimBus) record(op SimOp) error {
	s.count++
	s.ops = append(s.ops, op)
	if s.MaxOps > 0 && len(s.ops) > s.MaxOps {
		s.ops = append(s.ops[:0], s.ops[len(s.ops)-s.MaxOps:]...)
	}
	if s.Fault != nil {
		if err := s.Fault(op, s.count); err != nil {
			s.held = false
			return err
		}
	}
	return nil
}

// Ops returns a copy of the transfer log.
func (s *SimBus) Ops() []SimOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SimOp(nil), s.ops...)
}

// ResetOps clears the transfer log and the acquire/release counters.
func (s *SimBus) ResetOps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
	s.count = 0
	s.acquires = 0
	s.releases = 0
}

// Ownership returns how many times the bus was acquired and released.
func (s *SimBus) Ownership() (acquires, releases int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acquires, s.releases
}
