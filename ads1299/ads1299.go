// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package ads1299 provides a driver for the TI ADS1299 8 channel, 24 bit
// bioelectric analog front end.
//
// The chip does not accept register commands while in continuous read mode
// (RDATAC), so every configuration method brackets its register access with
// SDATAC and restores continuous read afterwards, even on error.
//
// A Device is owned by a single goroutine.
package ads1299

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/warthog618/biostream/gpio"
	"go.uber.org/multierr"
)

// Transport performs the register level transactions with the chip.
//
// spi.Registers is the production implementation.
type Transport interface {
	SendCommand(op byte) error
	ReadRegister(addr byte) (byte, error)
	WriteRegister(addr, value byte) error
	// Transfer clocks len(rx) bytes in from the chip.
	Transfer(rx []byte) error
	Acquire() error
	Release() error
}

// InputLine is the data-ready line.
type InputLine interface {
	Read() gpio.Level
}

// OutputLine is the reset line.
type OutputLine interface {
	Write(gpio.Level)
}

const (
	// tRST is 2 tCLK, about 1us with the internal oscillator.
	resetPulse = 10 * time.Microsecond
	// 18 tCLK before the first command after reset, plus margin.
	resetRecovery = 100 * time.Microsecond
)

// Device is an ADS1299.
type Device struct {
	t          Transport
	drdy       InputLine
	reset      OutputLine
	log        zerolog.Logger
	id         byte
	continuous bool
	gains      [NumChannels]Gain
	frame      [FrameSize]byte
}

// Option modifies the Device created by Open.
type Option func(*Device)

// WithResetLine drives the hardware reset line on Reset rather than sending
// the RESET command.
func WithResetLine(l OutputLine) Option {
	return func(d *Device) {
		d.reset = l
	}
}

// WithLogger sets the logger used by the Device.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Device) {
		d.log = l
	}
}

// New creates a Device without touching the chip.
func New(t Transport, drdy InputLine, options ...Option) *Device {
	d := &Device{
		t:    t,
		drdy: drdy,
		log:  zerolog.Nop(),
	}
	for _, o := range options {
		o(d)
	}
	d.defaultGains()
	return d
}

// Open creates a Device and brings the chip up.
//
// The chip is reset, the ID read and cached, the test signal and bias
// buffers configured, every channel set to gain 24 with normal input, and
// conversions started in continuous read mode.
func Open(t Transport, drdy InputLine, options ...Option) (*Device, error) {
	d := New(t, drdy, options...)
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Device) init() error {
	if err := d.Reset(); err != nil {
		return err
	}
	if err := d.DisableContinuousRead(); err != nil {
		return err
	}
	id, err := d.t.ReadRegister(RegID)
	if err != nil {
		return err
	}
	d.id = id
	if id&idDeviceMask != idADS1299 {
		d.log.Warn().Uint8("id", id).Msg("unexpected device id")
	} else {
		d.log.Info().Uint8("id", id).Msg("ads1299 found")
	}
	if err = d.t.WriteRegister(RegConfig2, config2Default); err != nil {
		return err
	}
	if err = d.t.WriteRegister(RegConfig3, config3Default); err != nil {
		return err
	}
	for ch := 0; ch < NumChannels; ch++ {
		if err = d.t.WriteRegister(chSet(ch), chSetDefault); err != nil {
			return err
		}
	}
	d.defaultGains()
	if err = d.Start(); err != nil {
		return err
	}
	return d.EnableContinuousRead()
}

// ID returns the device ID read when the device was opened.
func (d *Device) ID() byte {
	return d.id
}

// Close stops conversions and places the chip in standby.
func (d *Device) Close() error {
	return multierr.Combine(
		d.DisableContinuousRead(),
		d.Stop(),
		d.Standby())
}

// Reset resets the chip to its default register state.
//
// The chip restarts in continuous read mode with every channel at gain 24.
func (d *Device) Reset() error {
	if d.reset != nil {
		d.reset.Write(gpio.Low)
		time.Sleep(resetPulse)
		d.reset.Write(gpio.High)
	} else if err := d.t.SendCommand(CmdReset); err != nil {
		return err
	}
	time.Sleep(resetRecovery)
	d.continuous = true
	d.defaultGains()
	return nil
}

// Wakeup exits standby mode.
func (d *Device) Wakeup() error {
	return d.t.SendCommand(CmdWakeup)
}

// Standby enters low power standby mode.
func (d *Device) Standby() error {
	return d.t.SendCommand(CmdStandby)
}

// Start starts conversions.
func (d *Device) Start() error {
	return d.t.SendCommand(CmdStart)
}

// Stop stops conversions.
func (d *Device) Stop() error {
	return d.t.SendCommand(CmdStop)
}

// EnableContinuousRead enters continuous read mode (RDATAC).
func (d *Device) EnableContinuousRead() error {
	if err := d.t.SendCommand(CmdRDATAC); err != nil {
		return err
	}
	d.continuous = true
	return nil
}

// DisableContinuousRead exits continuous read mode (SDATAC).
func (d *Device) DisableContinuousRead() error {
	if err := d.t.SendCommand(CmdSDATAC); err != nil {
		return err
	}
	d.continuous = false
	return nil
}

// Continuous returns true while continuous read mode is enabled.
func (d *Device) Continuous() bool {
	return d.continuous
}

// Acquire takes exclusive ownership of the bus for a streaming session.
func (d *Device) Acquire() error {
	return d.t.Acquire()
}

// Release ends a streaming session.
func (d *Device) Release() error {
	return d.t.Release()
}

// DataReady returns true when a conversion result is available.
// The data-ready line is active low. The call does not block.
func (d *Device) DataReady() bool {
	return d.drdy.Read() == gpio.Low
}

// ReadFrame reads the status and channel samples of the latest conversion.
//
// Only valid in continuous read mode once data is ready.
// No partial frame is returned on error.
func (d *Device) ReadFrame() (Frame, error) {
	if !d.continuous {
		return Frame{}, ErrNotContinuous
	}
	if err := d.t.Transfer(d.frame[:]); err != nil {
		return Frame{}, err
	}
	return DecodeFrame(d.frame[:])
}

// Gains returns the gain of each channel as last written.
func (d *Device) Gains() [NumChannels]Gain {
	return d.gains
}

// ReadRegister reads an arbitrary register.
func (d *Device) ReadRegister(addr byte) (v byte, err error) {
	err = d.withRegisters(func() error {
		v, err = d.t.ReadRegister(addr)
		return err
	})
	return
}

// Registers reads the complete register map.
func (d *Device) Registers() (regs [NumRegisters]byte, err error) {
	err = d.withRegisters(func() error {
		for addr := byte(0); addr < NumRegisters; addr++ {
			v, err := d.t.ReadRegister(addr)
			if err != nil {
				return err
			}
			regs[addr] = v
		}
		return nil
	})
	return
}

// withRegisters runs fn with continuous read disabled, restoring continuous
// read afterwards if it was enabled on entry.
func (d *Device) withRegisters(fn func() error) error {
	restore := d.continuous
	if err := d.DisableContinuousRead(); err != nil {
		return err
	}
	err := fn()
	if restore {
		err = multierr.Append(err, d.EnableContinuousRead())
	}
	return err
}

// modifyRegister read-modify-writes a register, preserving bits outside mask.
func (d *Device) modifyRegister(addr, mask, value byte) (byte, error) {
	v, err := d.t.ReadRegister(addr)
	if err != nil {
		return 0, err
	}
	v = v&^mask | value&mask
	return v, d.t.WriteRegister(addr, v)
}

func (d *Device) defaultGains() {
	for ch := range d.gains {
		d.gains[ch] = Gain24
	}
}

func chSet(ch int) byte {
	return RegCh1Set + byte(ch)
}
