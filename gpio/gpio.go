// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package gpio provides memory mapped GPIO access on the Raspberry Pi.
//
// Only the operations required to drive the acquisition board are supported:
// pin direction, level read/write and pull up/down. The reset and data-ready
// lines of the ADC, the indicator LED and the switch bank reset are all
// driven through this package.
//
// Example of use:
//
//	c, err := gpio.Open()
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	rst := c.MustPin(gpio.GPIO24)
//	rst.High()
//	rst.Output()
//
// Pins are identified by their BCM GPIO number.
package gpio

import (
	"errors"
	"sync"
	"time"
)

// Level represents the high (true) or low (false) level of a Pin.
type Level bool

// Mode defines the IO mode of a Pin.
type Mode int

// Pull defines the pull up/down state of a Pin.
type Pull int

// Chipset identifies the GPIO controller.
type Chipset int

const (
	memLength = 4096

	modeMask uint32 = 7 // pin mode is 3 bits wide
	pullMask uint32 = 3 // pull mode is 2 bits wide
	// BCM2835 pullReg is the same for all pins.
	pullReg2835 = 37
)

// Pin Mode, a pin can be set in Input or Output mode
const (
	Input Mode = iota
	Output
	Alt5
	Alt4
	Alt0
	Alt1
	Alt2
	Alt3
)

// Level of pin, High / Low
const (
	Low  Level = false
	High Level = true
)

// Pull Up / Down / Off
const (
	// Values match bcm pull field.
	PullNone Pull = iota
	PullDown
	PullUp
)

// Supported controllers.
const (
	BCM2835 Chipset = iota
	BCM2711
)

// BCM GPIO numbers for the pins broken out on the J8 header.
const (
	GPIO2 = iota + 2
	GPIO3
	GPIO4
	GPIO5
	GPIO6
	GPIO7
	GPIO8
	GPIO9
	GPIO10
	GPIO11
	GPIO12
	GPIO13
	GPIO14
	GPIO15
	GPIO16
	GPIO17
	GPIO18
	GPIO19
	GPIO20
	GPIO21
	GPIO22
	GPIO23
	GPIO24
	GPIO25
	GPIO26
	GPIO27
	MaxGPIOPin
)

var (
	// ErrClosed indicates the chip has been closed.
	ErrClosed = errors.New("closed")

	// ErrInvalidPin indicates the pin number is outside the supported range.
	ErrInvalidPin = errors.New("invalid pin")
)

// Chip is a mapping of the GPIO register block.
type Chip struct {
	// mu covers read/modify/write access to mem.
	// Individual reads and writes skip the lock on the assumption that
	// register writes are atomic.
	mu      sync.Mutex
	mem     []uint32
	mem8    []byte
	chipset Chipset
}

// Chipset returns the controller variant detected when the chip was opened.
func (c *Chip) Chipset() Chipset {
	return c.chipset
}

// Pin returns the Pin for the BCM GPIO number.
func (c *Chip) Pin(pin int) (*Pin, error) {
	if len(c.mem) == 0 {
		return nil, ErrClosed
	}
	if pin < 0 || pin >= MaxGPIOPin {
		return nil, ErrInvalidPin
	}
	bank := pin / 32
	p := &Pin{
		chip:        c,
		pin:         pin,
		fsel:        pin / 10,
		bank:        bank,
		mask:        uint32(1 << uint(pin&0x1f)),
		levelReg:    13 + bank,
		clearReg:    10 + bank,
		setReg:      7 + bank,
		pullReg2711: 57 + pin/16,
	}
	if c.mem[p.levelReg]&p.mask != 0 {
		p.shadow = High
	}
	return p, nil
}

// MustPin returns the Pin for the BCM GPIO number and panics on error.
func (c *Chip) MustPin(pin int) *Pin {
	p, err := c.Pin(pin)
	if err != nil {
		panic(err)
	}
	return p
}

// Pin represents a single GPIO pin.
type Pin struct {
	chip        *Chip
	pin         int
	fsel        int
	levelReg    int
	clearReg    int
	setReg      int
	pullReg2711 int
	bank        int
	mask        uint32
	shadow      Level
}

// Input sets pin as Input.
func (pin *Pin) Input() {
	pin.SetMode(Input)
}

// Output sets pin as Output.
func (pin *Pin) Output() {
	pin.SetMode(Output)
}

// High sets pin High.
func (pin *Pin) High() {
	pin.Write(High)
}

// Low sets pin Low.
func (pin *Pin) Low() {
	pin.Write(Low)
}

// Pin returns the BCM number of the pin.
func (pin *Pin) Pin() int {
	return pin.pin
}

// Shadow returns the value of the last write to an output pin or the last read on an input pin.
func (pin *Pin) Shadow() Level {
	return pin.shadow
}

// Mode returns the mode of the pin in the Function Select register.
func (pin *Pin) Mode() Mode {
	modeShift := uint(pin.pin%10) * 3
	return Mode(pin.chip.mem[pin.fsel] >> modeShift & modeMask)
}

// SetMode sets the pin Mode.
func (pin *Pin) SetMode(mode Mode) {
	modeShift := uint(pin.pin%10) * 3
	c := pin.chip
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[pin.fsel] = c.mem[pin.fsel]&^(modeMask<<modeShift) | uint32(mode)<<modeShift
}

// Read pin state (high/low)
func (pin *Pin) Read() (level Level) {
	if (pin.chip.mem[pin.levelReg] & pin.mask) != 0 {
		level = High
	}
	pin.shadow = level
	return
}

// Write sets the pin state (high/low)
func (pin *Pin) Write(level Level) {
	if level == Low {
		pin.chip.mem[pin.clearReg] = pin.mask
	} else {
		pin.chip.mem[pin.setReg] = pin.mask
	}
	pin.shadow = level
}

// SetPull sets the pull up/down mode for a Pin.
// The pull cannot be read back from hardware.
func (pin *Pin) SetPull(pull Pull) {
	switch pin.chip.chipset {
	case BCM2711:
		pin.setPull2711(pull)
	default:
		pin.setPull2835(pull)
	}
}

func (pin *Pin) setPull2835(pull Pull) {
	clkReg := pin.bank + 38
	c := pin.chip
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[pullReg2835] = c.mem[pullReg2835]&^pullMask | uint32(pull)
	// the pull needs at least 150 clock cycles to clock in.
	time.Sleep(time.Microsecond)
	c.mem[clkReg] = pin.mask
	time.Sleep(time.Microsecond)
	c.mem[pullReg2835] = c.mem[pullReg2835] &^ pullMask
	c.mem[clkReg] = 0
}

func (pin *Pin) setPull2711(pull Pull) {
	// 2711 reverses up/down sense
	switch pull {
	case PullUp:
		pull = PullDown
	case PullDown:
		pull = PullUp
	}
	shift := uint(pin.pin&0x0f) << 1
	c := pin.chip
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[pin.pullReg2711] = c.mem[pin.pullReg2711]&^(pullMask<<shift) | uint32(pull)<<shift
}
