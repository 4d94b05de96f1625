// SPDX-License-Identifier: MIT
//
// Copyright © 2018 Kent Gibson <warthog618@gmail.com>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spi

import (
	"sync"
	"time"

	"github.com/warthog618/biostream/gpio"
)

// OutputLine is a GPIO line driven by the master.
type OutputLine interface {
	Write(gpio.Level)
}

// InputLine is a GPIO line driven by the device.
type InputLine interface {
	Read() gpio.Level
}

// BitBash is a SPI Conn bit bashed over 4 GPIO lines.
//
// It implements SPI mode 1 (CPOL=0, CPHA=1), MSB first, as required by the
// ADS1299. Data is shifted out on the rising clock edge and sampled on the
// falling edge. It is not related to the SPI device drivers provided by Linux.
type BitBash struct {
	mu sync.Mutex
	// time between clock edges (i.e. half the cycle time)
	Tclk time.Duration
	Sclk OutputLine
	Ssz  OutputLine
	Mosi OutputLine
	Miso InputLine
	pins []*gpio.Pin
}

// NewBitBash creates a BitBash using the GPIO pins with the given BCM numbers.
func NewBitBash(c *gpio.Chip, tclk time.Duration, sclk, ssz, mosi, miso int) (*BitBash, error) {
	var pins [4]*gpio.Pin
	for i, n := range []int{sclk, ssz, mosi, miso} {
		p, err := c.Pin(n)
		if err != nil {
			return nil, err
		}
		pins[i] = p
	}
	bb := &BitBash{
		Tclk: tclk,
		Sclk: pins[0],
		Ssz:  pins[1],
		Mosi: pins[2],
		Miso: pins[3],
		pins: pins[:3],
	}
	// hold the device deselected until needed...
	pins[0].Low()
	pins[0].Output()
	pins[1].High()
	pins[1].Output()
	pins[2].Low()
	pins[2].Output()
	pins[3].Input()
	return bb, nil
}

// Close disables the output pins used to drive the SPI device.
func (bb *BitBash) Close() error {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	for _, p := range bb.pins {
		p.Input()
	}
	bb.pins = nil
	return nil
}

// Tx performs a full duplex transaction.
func (bb *BitBash) Tx(w, r []byte) error {
	bb.mu.Lock()
	defer bb.mu.Unlock()
	bb.Sclk.Write(gpio.Low)
	bb.Ssz.Write(gpio.Low)
	time.Sleep(bb.Tclk)
	for i, b := range w {
		var d byte
		for bit := 7; bit >= 0; bit-- {
			d <<= 1
			if bb.clock(b>>uint(bit)&0x01 == 0x01) {
				d |= 0x01
			}
		}
		if r != nil {
			r[i] = d
		}
	}
	time.Sleep(bb.Tclk)
	bb.Ssz.Write(gpio.High)
	return nil
}

// clock clocks a bit out on Mosi and a bit in from Miso.
// Assumes the clock starts low and leaves it low.
func (bb *BitBash) clock(out bool) bool {
	bb.Mosi.Write(gpio.Level(out))
	bb.Sclk.Write(gpio.High) // device shifts out on the rising edge
	time.Sleep(bb.Tclk)
	in := bb.Miso.Read()
	bb.Sclk.Write(gpio.Low) // device samples on the falling edge
	time.Sleep(bb.Tclk)
	return bool(in)
}
