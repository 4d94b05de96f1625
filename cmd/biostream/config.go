// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/warthog618/biostream/gpio"
	"github.com/warthog618/biostream/stream"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
)

var defaultConfig = map[string]interface{}{
	"spi.backend":    "spidev",
	"spi.port":       "",
	"spi.speed":      2000000,
	"spi.tclk":       "1us",
	"spi.sclk":       gpio.GPIO11,
	"spi.ssz":        gpio.GPIO8,
	"spi.mosi":       gpio.GPIO10,
	"spi.miso":       gpio.GPIO9,
	"adc.reset":      gpio.GPIO24,
	"adc.drdy":       gpio.GPIO25,
	"adc.rate":       250,
	"adc.gain":       24,
	"adc.srb2":       true,
	"adc.bias":       "n",
	"adc.vref":       2.5,
	"adc.fullscale":  "unsigned",
	"peer.addr":      "127.0.0.1:8080",
	"peer.timeout":   "10s",
	"buffer.size":    stream.DefaultCapacity,
	"buffer.flush":   stream.DefaultThreshold,
	"buffer.record":  stream.DefaultRecordSize,
	"link.iface":     "wlan0",
	"link.retries":   5,
	"link.interval":  "1s",
	"link.retry":     "0s",
	"clock.retries":  10,
	"clock.interval": "2s",
	"discover.retry": "1s",
	"poll.interval":  "0s",
	"led.red":        gpio.GPIO17,
	"led.green":      gpio.GPIO27,
	"led.blue":       gpio.GPIO22,
	"switch.bus":     "",
	"switch.reset":   gpio.GPIO16,
	"switch.enable":  true,
	"log.level":      "info",
}

// flagKeys maps command line flags to their config keys.
var flagKeys = map[string]string{
	"config-file": "config.file",
	"spi":         "spi.backend",
	"spi-port":    "spi.port",
	"log-level":   "log.level",
	"peer":        "peer.addr",
	"iface":       "link.iface",
	"rate":        "adc.rate",
	"gain":        "adc.gain",
	"bias":        "adc.bias",
	"link-retry":  "link.retry",
	"bus":         "switch.bus",
}

// loadConfig builds the layered config for the command.
// Explicitly set flags override the environment, which overrides the config
// file, which overrides the defaults.
func loadConfig(cmd *cobra.Command) *config.Config {
	flags := map[string]interface{}{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if k, ok := flagKeys[f.Name]; ok {
			flags[k] = f.Value.String()
		}
	})
	def := dict.New(dict.WithMap(defaultConfig))
	// highest priority sources first - flags override environment
	cfg := config.New(
		dict.New(dict.WithMap(flags)),
		env.New(env.WithEnvPrefix("BIOSTREAM_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "biostream.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust)
	return cfg
}

func newLogger(cfg *config.Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.MustGet("log.level").String())
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339Nano}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
