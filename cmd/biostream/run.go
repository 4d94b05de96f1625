// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/warthog618/biostream/clock"
	"github.com/warthog618/biostream/indicator"
	"github.com/warthog618/biostream/link"
	"github.com/warthog618/biostream/phase"
	"github.com/warthog618/biostream/udp"
)

func init() {
	runCmd.Flags().StringP("peer", "p", "127.0.0.1:8080", "address of the streaming peer")
	runCmd.Flags().StringP("iface", "i", "wlan0", "network interface to monitor")
	runCmd.Flags().IntP("rate", "r", 250, "sample rate in samples per second")
	runCmd.Flags().IntP("gain", "g", 24, "PGA gain of all channels")
	runCmd.Flags().String("bias", "n", "bias drive polarity, p, n or off")
	runCmd.Flags().Duration("link-retry", 0, "delay before reacquiring a failed link, 0 to exit")
	runCmd.SetHelpTemplate(runCmd.HelpTemplate() + extendedRunHelp)
	rootCmd.AddCommand(runCmd)
}

var extendedRunHelp = `
Records are streamed to the peer as UDP datagrams, each carrying one or more
fixed size records of the form:

  timestamp,v0,v1,v2,v3,v4,v5,v6,v7\n

The timestamp is seconds since the epoch with a six digit microsecond
fraction, e.g. 1700000000.250000, so receivers must parse it as a decimal
rather than an integer. Each record is zero filled to the record size.

Configuration may also be provided via environment variables prefixed with
BIOSTREAM_, e.g. BIOSTREAM_PEER_ADDR, or a JSON config file.
`

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Stream samples to the peer",
	Args:  cobra.NoArgs,
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	log := newLogger(cfg)
	conv, err := converter(cfg)
	if err != nil {
		return err
	}
	b, err := openBoard(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}()
	if err = configureADC(cfg, b.adc); err != nil {
		return err
	}
	if cfg.MustGet("switch.enable").Bool() {
		bank, bus, err := openSwitches(cfg, b.chip)
		if err != nil {
			log.Warn().Err(err).Msg("switch bus")
		} else {
			if err = bank.Clear(); err != nil {
				log.Warn().Err(err).Msg("switch clear")
			}
			log.Info().Int("switches", len(bank)).Msg("switches cleared")
			if err = bus.Close(); err != nil {
				log.Warn().Err(err).Msg("switch bus close")
			}
		}
	}

	var lines [3]indicator.OutputLine
	for i, k := range []string{"led.red", "led.green", "led.blue"} {
		p, err := outputPin(b.chip, cfg, k)
		if err != nil {
			return err
		}
		lines[i] = p
	}
	led := indicator.New(lines[0], lines[1], lines[2])
	defer led.Set(indicator.Off)

	lm := link.New(cfg.MustGet("link.iface").String(),
		link.WithRetries(int(cfg.MustGet("link.retries").Int())),
		link.WithInterval(cfg.MustGet("link.interval").Duration()),
		link.WithLogger(log))
	defer lm.Close()
	cs := clock.New(
		clock.WithRetries(int(cfg.MustGet("clock.retries").Int())),
		clock.WithInterval(cfg.MustGet("clock.interval").Duration()),
		clock.WithLogger(log))
	d := udp.Dialer{
		Addr:    cfg.MustGet("peer.addr").String(),
		Timeout: cfg.MustGet("peer.timeout").Duration(),
	}
	m, err := phase.New(phase.Config{
		ADC:   b.adc,
		Link:  lm,
		Clock: cs,
		Dial: func(ctx context.Context) (io.WriteCloser, error) {
			c, err := d.Dial(ctx)
			if err != nil {
				return nil, err
			}
			log.Info().Str("peer", d.Addr).Str("local", c.LocalAddr().String()).Msg("peer")
			return c, nil
		},
		Indicator:          led,
		Converter:          conv,
		BufferSize:         int(cfg.MustGet("buffer.size").Int()),
		FlushThreshold:     int(cfg.MustGet("buffer.flush").Int()),
		RecordSize:         int(cfg.MustGet("buffer.record").Int()),
		LinkRetryDelay:     cfg.MustGet("link.retry").Duration(),
		DiscoverRetryDelay: cfg.MustGet("discover.retry").Duration(),
		PollInterval:       cfg.MustGet("poll.interval").Duration(),
		Log:                log,
	})
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = m.Run(ctx)
	s := m.Stats()
	log.Info().
		Uint64("records", s.Records).
		Uint64("dropped", s.Dropped).
		Uint64("sessions", s.Sessions).
		Msg("stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
