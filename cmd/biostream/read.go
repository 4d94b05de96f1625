// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/biostream/ads1299"
	"github.com/warthog618/biostream/stream"
)

func init() {
	readCmd.Flags().UintVarP(&readOpts.NumFrames, "num-frames", "n", 10, "number of frames to read")
	readCmd.Flags().BoolVarP(&readOpts.Raw, "raw", "R", false, "display raw sample codes")
	readCmd.Flags().DurationVarP(&readOpts.Timeout, "timeout", "t", time.Second, "maximum wait for each frame")
	readCmd.Flags().String("input", "", "input multiplexer of all channels, e.g. test or shorted")
	rootCmd.AddCommand(readCmd)
}

var (
	readCmd = &cobra.Command{
		Use:   "read",
		Short: "Read frames from the ADC",
		Args:  cobra.NoArgs,
		RunE:  read,
	}
	readOpts = struct {
		NumFrames uint
		Raw       bool
		Timeout   time.Duration
	}{}
)

var errTimeout = errors.New("timeout waiting for data ready")

func read(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	conv, err := converter(cfg)
	if err != nil {
		return err
	}
	b, err := openBoard(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer b.Close()
	if err = configureADC(cfg, b.adc); err != nil {
		return err
	}
	if in, _ := cmd.Flags().GetString("input"); in != "" {
		mux, err := ads1299.ParseInput(in)
		if err != nil {
			return fmt.Errorf("input '%s': %w", in, err)
		}
		for ch := 0; ch < ads1299.NumChannels; ch++ {
			if err = b.adc.SetInput(ch, mux); err != nil {
				return err
			}
		}
	}
	var rec []byte
	for i := uint(0); i < readOpts.NumFrames; i++ {
		f, err := waitFrame(b.adc, readOpts.Timeout)
		if err != nil {
			return err
		}
		if readOpts.Raw {
			fmt.Printf("0x%06x", f.Status)
			for _, s := range f.Samples {
				fmt.Printf(" %8d", s)
			}
			fmt.Println()
			continue
		}
		rec = stream.FormatRecord(rec[:0], time.Now(), conv.Volts(f, b.adc.Gains()))
		os.Stdout.Write(rec)
	}
	return nil
}

func waitFrame(adc *ads1299.Device, timeout time.Duration) (ads1299.Frame, error) {
	deadline := time.Now().Add(timeout)
	for !adc.DataReady() {
		if time.Now().After(deadline) {
			return ads1299.Frame{}, errTimeout
		}
		time.Sleep(100 * time.Microsecond)
	}
	return adc.ReadFrame()
}
