// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package spi provides the register transport for SPI attached devices.
//
// A Bus serialises transactions from the logical devices sharing a Conn.
// A Session holds the bus exclusively, for example for the duration of a
// streaming session, so no other transaction can interleave.
package spi

import (
	"errors"
	"io"
	"sync"
)

// Conn performs full duplex SPI transactions.
//
// Each call to Tx is one complete transaction, from chip select assert to
// deassert. r may be nil if the received data is not required, otherwise it
// must be the same length as w.
type Conn interface {
	Tx(w, r []byte) error
}

var (
	// ErrReleased indicates the session has already been released.
	ErrReleased = errors.New("session released")

	// ErrSessionHeld indicates the transport already holds an exclusive session.
	ErrSessionHeld = errors.New("session already held")
)

// Bus is a Conn shared by one or more logical devices.
type Bus struct {
	mu   sync.Mutex
	conn Conn
}

// NewBus creates a Bus wrapping the Conn.
func NewBus(c Conn) *Bus {
	return &Bus{conn: c}
}

// Tx performs a single transaction on the bus.
// Blocks while another device holds the bus.
func (b *Bus) Tx(w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn.Tx(w, r)
}

// Acquire takes exclusive ownership of the bus.
// The returned Session must be released to return the bus to shared use.
func (b *Bus) Acquire() *Session {
	b.mu.Lock()
	return &Session{bus: b}
}

// Close closes the underlying Conn, if it is closable.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok := b.conn.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Session is an exclusive hold on a Bus.
//
// A Session is owned by a single goroutine.
type Session struct {
	bus *Bus
}

// Tx performs a transaction within the session.
func (s *Session) Tx(w, r []byte) error {
	if s.bus == nil {
		return ErrReleased
	}
	return s.bus.conn.Tx(w, r)
}

// Release returns the bus to shared use.
// Releasing a released session has no effect.
func (s *Session) Release() {
	if s.bus == nil {
		return
	}
	b := s.bus
	s.bus = nil
	b.mu.Unlock()
}
