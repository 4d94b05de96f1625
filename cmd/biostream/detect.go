// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warthog618/biostream/gpio"
	"periph.io/x/host/v3"
)

func init() {
	rootCmd.AddCommand(detectCmd)
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Identify the GPIO chip and switch bank",
	Args:  cobra.NoArgs,
	RunE:  detect,
}

func detect(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	if _, err := host.Init(); err != nil {
		return err
	}
	chip, err := gpio.Open()
	if err != nil {
		return err
	}
	defer chip.Close()
	switch chip.Chipset() {
	case gpio.BCM2835:
		fmt.Println("gpio: bcm2835")
	case gpio.BCM2711:
		fmt.Println("gpio: bcm2711")
	default:
		fmt.Println("gpio: unknown")
	}
	// probe without driving the reset line
	bank, bus, err := openSwitches(cfg, nil)
	if err != nil {
		logErr(cmd, err)
		return nil
	}
	defer bus.Close()
	fmt.Printf("switches on %s:", bus)
	for _, d := range bank {
		fmt.Printf(" 0x%02x", d.Addr())
	}
	fmt.Println()
	return nil
}
