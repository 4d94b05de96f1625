// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package indicator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warthog618/biostream/gpio"
	"github.com/warthog618/biostream/indicator"
)

type line struct {
	v gpio.Level
}

func (l *line) Write(v gpio.Level) {
	l.v = v
}

func TestSet(t *testing.T) {
	r, g, b := &line{v: gpio.High}, &line{v: gpio.High}, &line{v: gpio.High}
	led := indicator.New(r, g, b)
	assert.Equal(t, indicator.Off, led.Color())
	assert.Equal(t, []gpio.Level{gpio.Low, gpio.Low, gpio.Low}, []gpio.Level{r.v, g.v, b.v})

	patterns := []struct {
		c       indicator.Color
		r, g, b gpio.Level
	}{
		{indicator.Red, gpio.High, gpio.Low, gpio.Low},
		{indicator.Yellow, gpio.High, gpio.High, gpio.Low},
		{indicator.Green, gpio.Low, gpio.High, gpio.Low},
		{indicator.Off, gpio.Low, gpio.Low, gpio.Low},
	}
	for _, p := range patterns {
		led.Set(p.c)
		assert.Equal(t, p.c, led.Color())
		assert.Equal(t, []gpio.Level{p.r, p.g, p.b}, []gpio.Level{r.v, g.v, b.v}, p.c.String())
	}
}

func TestNoBlue(t *testing.T) {
	r, g := &line{}, &line{}
	led := indicator.New(r, g, nil)
	led.Set(indicator.Green)
	assert.Equal(t, gpio.High, g.v)
	assert.Equal(t, gpio.Low, r.v)
}

func TestColorString(t *testing.T) {
	assert.Equal(t, "yellow", indicator.Yellow.String())
	assert.Equal(t, "unknown", indicator.Color(9).String())
}
