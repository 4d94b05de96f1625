// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warthog618/biostream/ads1299"
)

func init() {
	regsCmd.Flags().BoolVarP(&regsOpts.Channels, "channels", "C", false, "decode the channel settings")
	rootCmd.AddCommand(regsCmd)
}

var (
	regsCmd = &cobra.Command{
		Use:   "regs",
		Short: "Dump the ADC registers",
		Args:  cobra.NoArgs,
		RunE:  regs,
	}
	regsOpts = struct {
		Channels bool
	}{}
)

var regNames = [ads1299.NumRegisters]string{
	"ID", "CONFIG1", "CONFIG2", "CONFIG3", "LOFF",
	"CH1SET", "CH2SET", "CH3SET", "CH4SET", "CH5SET", "CH6SET", "CH7SET", "CH8SET",
	"BIAS_SENSP", "BIAS_SENSN", "LOFF_SENSP", "LOFF_SENSN", "LOFF_FLIP",
	"LOFF_STATP", "LOFF_STATN", "GPIO", "MISC1", "MISC2", "CONFIG4",
}

func regs(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	b, err := openBoard(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer b.Close()
	rr, err := b.adc.Registers()
	if err != nil {
		return err
	}
	for addr, v := range rr {
		fmt.Printf("0x%02x %-10s 0x%02x %08b\n", addr, regNames[addr], v, v)
	}
	if !regsOpts.Channels {
		return nil
	}
	fmt.Println()
	for ch := 0; ch < ads1299.NumChannels; ch++ {
		c, err := b.adc.Channel(ch)
		if err != nil {
			return err
		}
		fmt.Printf("ch%d: enabled=%t gain=%d input=%s srb2=%t biasp=%t biasn=%t\n",
			ch, c.Enabled, c.Gain.Multiplier(), c.Input, c.SRB2, c.BiasP, c.BiasN)
	}
	return nil
}
