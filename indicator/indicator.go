// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package indicator drives the tri-colour status LED.
package indicator

import (
	"sync"

	"github.com/warthog618/biostream/gpio"
)

// Color is a status colour.
type Color int

// Status colours.
const (
	Off Color = iota
	Red
	Yellow
	Green
)

func (c Color) String() string {
	switch c {
	case Off:
		return "off"
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	case Green:
		return "green"
	}
	return "unknown"
}

// OutputLine drives one element of the LED.
type OutputLine interface {
	Write(gpio.Level)
}

// LED is an RGB LED with an active high line per element.
type LED struct {
	mu             sync.Mutex
	red, green, bl OutputLine
	color          Color
}

// New creates an LED over the three element lines and turns it off.
// The blue line may be nil.
func New(red, green, blue OutputLine) *LED {
	l := &LED{red: red, green: green, bl: blue}
	l.Set(Off)
	return l
}

// Set changes the LED colour.
func (l *LED) Set(c Color) {
	l.mu.Lock()
	defer l.mu.Unlock()
	r, g := gpio.Low, gpio.Low
	switch c {
	case Red:
		r = gpio.High
	case Yellow:
		r, g = gpio.High, gpio.High
	case Green:
		g = gpio.High
	}
	l.red.Write(r)
	l.green.Write(g)
	if l.bl != nil {
		l.bl.Write(gpio.Low)
	}
	l.color = c
}

// Color returns the colour last set.
func (l *LED) Color() Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}
