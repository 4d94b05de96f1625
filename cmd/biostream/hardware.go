// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/warthog618/biostream/ads1299"
	"github.com/warthog618/biostream/adg715"
	"github.com/warthog618/biostream/gpio"
	"github.com/warthog618/biostream/spi"
	"github.com/warthog618/config"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// board is the opened hardware shared by the commands.
type board struct {
	chip *gpio.Chip
	bus  *spi.Bus
	adc  *ads1299.Device
}

// openBoard initialises the host drivers, maps the GPIO block and brings up
// the ADC.
func openBoard(cfg *config.Config, log zerolog.Logger) (*board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	chip, err := gpio.Open()
	if err != nil {
		return nil, fmt.Errorf("gpio: %w", err)
	}
	b := &board{chip: chip}
	conn, err := openSPI(cfg, chip)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("spi: %w", err)
	}
	b.bus = spi.NewBus(conn)
	drdy, err := chip.Pin(int(cfg.MustGet("adc.drdy").Int()))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("adc.drdy: %w", err)
	}
	drdy.Input()
	rst, err := chip.Pin(int(cfg.MustGet("adc.reset").Int()))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("adc.reset: %w", err)
	}
	rst.High()
	rst.Output()
	regs := spi.NewRegisters(b.bus, ads1299.CmdRREG, ads1299.CmdWREG)
	adc, err := ads1299.Open(regs, drdy,
		ads1299.WithResetLine(rst),
		ads1299.WithLogger(log))
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("adc: %w", err)
	}
	b.adc = adc
	return b, nil
}

func openSPI(cfg *config.Config, chip *gpio.Chip) (spi.Conn, error) {
	switch backend := cfg.MustGet("spi.backend").String(); backend {
	case "spidev":
		return spi.OpenSpidev(
			cfg.MustGet("spi.port").String(),
			int64(cfg.MustGet("spi.speed").Int()))
	case "bitbash":
		return spi.NewBitBash(chip,
			cfg.MustGet("spi.tclk").Duration(),
			int(cfg.MustGet("spi.sclk").Int()),
			int(cfg.MustGet("spi.ssz").Int()),
			int(cfg.MustGet("spi.mosi").Int()),
			int(cfg.MustGet("spi.miso").Int()))
	default:
		return nil, fmt.Errorf("unknown backend '%s'", backend)
	}
}

// Close places the ADC in standby and releases the buses.
func (b *board) Close() error {
	var err error
	if b.adc != nil {
		err = b.adc.Close()
	}
	if b.bus != nil {
		err = multierr.Append(err, b.bus.Close())
	}
	return multierr.Append(err, b.chip.Close())
}

// configureADC applies the channel and rate configuration.
func configureADC(cfg *config.Config, adc *ads1299.Device) error {
	rate, err := ads1299.DataRateFromSPS(int(cfg.MustGet("adc.rate").Int()))
	if err != nil {
		return fmt.Errorf("adc.rate: %w", err)
	}
	gain, err := ads1299.GainFromMultiplier(int(cfg.MustGet("adc.gain").Int()))
	if err != nil {
		return fmt.Errorf("adc.gain: %w", err)
	}
	if err = adc.SetDataRate(rate); err != nil {
		return err
	}
	srb2 := cfg.MustGet("adc.srb2").Bool()
	for ch := 0; ch < ads1299.NumChannels; ch++ {
		if err = adc.SetGain(ch, gain); err != nil {
			return err
		}
		if err = adc.SetSRB2(ch, srb2); err != nil {
			return err
		}
	}
	switch bias := cfg.MustGet("adc.bias").String(); bias {
	case "", "off", "none":
		err = multierr.Combine(
			adc.SetAllBias(ads1299.Positive, false),
			adc.SetAllBias(ads1299.Negative, false))
	default:
		p, perr := ads1299.ParsePolarity(bias)
		if perr != nil {
			return fmt.Errorf("adc.bias: %w", perr)
		}
		err = adc.SetAllBias(p, true)
	}
	return err
}

func converter(cfg *config.Config) (ads1299.Converter, error) {
	c := ads1299.DefaultConverter()
	c.VRef = cfg.MustGet("adc.vref").Float()
	switch fs := cfg.MustGet("adc.fullscale").String(); fs {
	case "unsigned":
		c.FullScale = ads1299.FullScaleUnsigned
	case "signed":
		c.FullScale = ads1299.FullScaleSigned
	default:
		return c, fmt.Errorf("adc.fullscale: unknown scale '%s'", fs)
	}
	return c, nil
}

// outputPin returns the pin configured as an output and driven low.
func outputPin(chip *gpio.Chip, cfg *config.Config, key string) (*gpio.Pin, error) {
	p, err := chip.Pin(int(cfg.MustGet(key).Int()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	p.Low()
	p.Output()
	return p, nil
}

// openSwitches opens the switch bank on the configured I2C bus.
// The caller must close the returned bus.
func openSwitches(cfg *config.Config, chip *gpio.Chip) (adg715.Bank, i2c.BusCloser, error) {
	bus, err := i2creg.Open(cfg.MustGet("switch.bus").String())
	if err != nil {
		return nil, nil, err
	}
	var rst adg715.OutputLine
	if chip != nil {
		p, err := chip.Pin(int(cfg.MustGet("switch.reset").Int()))
		if err != nil {
			bus.Close()
			return nil, nil, fmt.Errorf("switch.reset: %w", err)
		}
		p.High()
		p.Output()
		rst = p
	}
	return adg715.OpenBank(bus, adg715.DefaultAddrs, rst), bus, nil
}
