// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/warthog618/biostream/adg715"
	"github.com/warthog618/biostream/gpio"
	"periph.io/x/host/v3"
)

func init() {
	switchCmd.Flags().String("bus", "", "I2C bus name")
	switchCmd.Flags().BoolVarP(&switchOpts.Reset, "reset", "r", false, "reset the switch bank first")
	switchCmd.SetHelpTemplate(switchCmd.HelpTemplate() + extendedSwitchHelp)
	rootCmd.AddCommand(switchCmd)
}

var extendedSwitchHelp = `
Without a state the switch states are displayed.
Addresses and states may be given in decimal or 0x prefixed hex.
Each bit of the state closes the corresponding switch.
`

var (
	switchCmd = &cobra.Command{
		Use:     "switch [<addr> [<state>]]",
		Short:   "Get or set the input switch bank",
		Example: "  biostream switch 0x48 0x81",
		Args:    cobra.MaximumNArgs(2),
		RunE:    switchBank,
	}
	switchOpts = struct {
		Reset bool
	}{}
)

func switchBank(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	if _, err := host.Init(); err != nil {
		return err
	}
	chip, err := gpio.Open()
	if err != nil {
		return err
	}
	defer chip.Close()
	bank, bus, err := openSwitches(cfg, chip)
	if err != nil {
		return err
	}
	defer bus.Close()
	if switchOpts.Reset && len(bank) > 0 {
		// the reset line is shared by the bank
		bank[0].Reset()
	}
	if len(args) == 0 {
		for _, d := range bank {
			printSwitch(cmd, d)
		}
		return nil
	}
	addr, err := strconv.ParseUint(args[0], 0, 7)
	if err != nil {
		return fmt.Errorf("can't parse address '%s'", args[0])
	}
	var dev *adg715.Device
	for _, d := range bank {
		if d.Addr() == uint16(addr) {
			dev = d
		}
	}
	if dev == nil {
		return fmt.Errorf("no switch at 0x%02x", addr)
	}
	if len(args) == 2 {
		state, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil {
			return fmt.Errorf("can't parse state '%s'", args[1])
		}
		if err = dev.Set(byte(state)); err != nil {
			return err
		}
	}
	printSwitch(cmd, dev)
	return nil
}

func printSwitch(cmd *cobra.Command, d *adg715.Device) {
	v, err := d.State()
	if err != nil {
		logErr(cmd, err)
		return
	}
	fmt.Printf("0x%02x: 0x%02x %08b\n", d.Addr(), v, v)
}
