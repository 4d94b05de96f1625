// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/warthog618/biostream/ads1299"
	"go.uber.org/multierr"
)

func init() {
	impedanceCmd.Flags().StringVarP(&impedanceOpts.Polarity, "polarity", "P", "p", "electrode polarity to check, p or n")
	impedanceCmd.Flags().DurationVarP(&impedanceOpts.Settle, "settle", "s", 100*time.Millisecond, "time to settle before reading status")
	impedanceCmd.SetHelpTemplate(impedanceCmd.HelpTemplate() + extendedImpedanceHelp)
	rootCmd.AddCommand(impedanceCmd)
}

var extendedImpedanceHelp = `
The check leaves every channel at gain 1 with normal input.
Channel settings are not restored afterwards.
`

var (
	impedanceCmd = &cobra.Command{
		Use:   "impedance",
		Short: "Check electrode contact using lead-off detection",
		Args:  cobra.NoArgs,
		RunE:  impedance,
	}
	impedanceOpts = struct {
		Polarity string
		Settle   time.Duration
	}{}
)

func impedance(cmd *cobra.Command, args []string) (err error) {
	p, err := ads1299.ParsePolarity(impedanceOpts.Polarity)
	if err != nil {
		return err
	}
	cfg := loadConfig(cmd)
	b, err := openBoard(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer b.Close()
	if err = b.adc.EnterImpedanceMode(p); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, b.adc.ExitImpedanceMode(p))
	}()
	time.Sleep(impedanceOpts.Settle)
	status, err := b.adc.LeadOffStatus(p)
	if err != nil {
		return err
	}
	for ch := 0; ch < ads1299.NumChannels; ch++ {
		state := "ok"
		if status&(1<<uint(ch)) != 0 {
			state = "off"
		}
		fmt.Printf("ch%d: %s\n", ch, state)
	}
	return nil
}
