// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package adg715 provides a driver for the ADG715 octal SPST switch
// controlled over I2C.
//
// Each bit of the switch state closes the corresponding switch.
package adg715

import (
	"time"

	"github.com/warthog618/biostream/gpio"
	"periph.io/x/conn/v3/i2c"
)

// DefaultAddrs are the addresses of the switch bank, one per A1:A0 strapping.
var DefaultAddrs = []uint16{0x48, 0x49, 0x4a, 0x4b}

const resetPulse = 10 * time.Millisecond

// OutputLine is the active low reset line.
type OutputLine interface {
	Write(gpio.Level)
}

// Device is an ADG715.
type Device struct {
	dev   i2c.Dev
	reset OutputLine
}

// Open probes the device at addr and releases it from reset.
//
// The reset line may be nil if it is not controlled.
func Open(b i2c.Bus, addr uint16, reset OutputLine) (*Device, error) {
	if reset != nil {
		reset.Write(gpio.High)
	}
	d := &Device{dev: i2c.Dev{Bus: b, Addr: addr}, reset: reset}
	if _, err := d.State(); err != nil {
		return nil, err
	}
	return d, nil
}

// Addr returns the I2C address of the device.
func (d *Device) Addr() uint16 {
	return d.dev.Addr
}

// Set sets the state of all eight switches.
func (d *Device) Set(state byte) error {
	return d.dev.Tx([]byte{state}, nil)
}

// State returns the state of the switches.
func (d *Device) State() (byte, error) {
	var r [1]byte
	err := d.dev.Tx(nil, r[:])
	return r[0], err
}

// Reset pulses the reset line, opening all switches.
// A no-op if the reset line is not controlled.
func (d *Device) Reset() {
	if d.reset == nil {
		return
	}
	d.reset.Write(gpio.Low)
	time.Sleep(resetPulse)
	d.reset.Write(gpio.High)
}

// Bank is a set of switch devices sharing a bus and reset line.
type Bank []*Device

// OpenBank opens the devices found at the addresses, skipping any that do
// not respond.
func OpenBank(b i2c.Bus, addrs []uint16, reset OutputLine) Bank {
	var bank Bank
	for _, a := range addrs {
		if d, err := Open(b, a, reset); err == nil {
			bank = append(bank, d)
		}
	}
	return bank
}

// Clear opens every switch in the bank.
func (bank Bank) Clear() error {
	for _, d := range bank {
		if err := d.Set(0); err != nil {
			return err
		}
	}
	return nil
}
