// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spi

import (
	"periph.io/x/conn/v3/physic"
	pspi "periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// Spidev is a Conn using the Linux spidev driver.
//
// The periph host drivers must be initialised before opening.
type Spidev struct {
	port pspi.PortCloser
	conn pspi.Conn
}

// OpenSpidev opens the named SPI port in mode 1 with 8 bit words.
// An empty name selects the first available port.
func OpenSpidev(name string, hz int64) (*Spidev, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, err
	}
	c, err := p.Connect(physic.Frequency(hz)*physic.Hertz, pspi.Mode1, 8)
	if err != nil {
		p.Close()
		return nil, err
	}
	return &Spidev{port: p, conn: c}, nil
}

// Tx performs a full duplex transaction.
func (s *Spidev) Tx(w, r []byte) error {
	if r == nil {
		r = make([]byte, len(w))
	}
	return s.conn.Tx(w, r)
}

// Close releases the SPI port.
func (s *Spidev) Close() error {
	return s.port.Close()
}

// String returns the name of the port.
func (s *Spidev) String() string {
	return s.conn.String()
}
