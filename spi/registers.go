// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spi

// Registers frames addressed register transactions for a device on a Bus.
//
// A register transaction is a 16 bit command word, the opcode tag merged with
// a 7 bit register address in the upper byte and a zero register count in the
// lower byte, followed by a single data byte, all within one transaction.
//
// Transaction errors are returned unchanged.
type Registers struct {
	bus     *Bus
	readOp  byte
	writeOp byte
	s       *Session
	zeros   []byte
}

// NewRegisters creates a register transport using the provided opcode tags
// for register reads and writes.
func NewRegisters(b *Bus, readOp, writeOp byte) *Registers {
	return &Registers{bus: b, readOp: readOp, writeOp: writeOp}
}

// Acquire takes exclusive ownership of the bus until Release.
func (r *Registers) Acquire() error {
	if r.s != nil {
		return ErrSessionHeld
	}
	r.s = r.bus.Acquire()
	return nil
}

// Release returns the bus to shared use.
// Releasing without a held session has no effect.
func (r *Registers) Release() error {
	if r.s == nil {
		return nil
	}
	r.s.Release()
	r.s = nil
	return nil
}

// Held returns true while an exclusive session is held.
func (r *Registers) Held() bool {
	return r.s != nil
}

// SendCommand performs a command only transaction.
func (r *Registers) SendCommand(op byte) error {
	return r.tx([]byte{op}, nil)
}

// WriteRegister writes a single register.
func (r *Registers) WriteRegister(addr, value byte) error {
	return r.tx([]byte{r.writeOp | addr&0x7f, 0x00, value}, nil)
}

// ReadRegister reads a single register.
func (r *Registers) ReadRegister(addr byte) (byte, error) {
	var rx [3]byte
	err := r.tx([]byte{r.readOp | addr&0x7f, 0x00, 0x00}, rx[:])
	if err != nil {
		return 0, err
	}
	return rx[2], nil
}

// Transfer clocks len(rx) bytes in from the device while clocking out zeros.
func (r *Registers) Transfer(rx []byte) error {
	if len(r.zeros) < len(rx) {
		r.zeros = make([]byte, len(rx))
	}
	return r.tx(r.zeros[:len(rx)], rx)
}

func (r *Registers) tx(w, rx []byte) error {
	if r.s != nil {
		return r.s.Tx(w, rx)
	}
	return r.bus.Tx(w, rx)
}
