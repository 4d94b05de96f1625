// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(idCmd)
}

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Read the ADC device ID",
	Args:  cobra.NoArgs,
	RunE:  id,
}

var idChannels = map[byte]int{0: 4, 1: 6, 2: 8}

func id(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	b, err := openBoard(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer b.Close()
	v := b.adc.ID()
	fmt.Printf("id: 0x%02x\n", v)
	fmt.Printf("revision: %d\n", v>>5)
	if v&0x0c == 0x0c {
		fmt.Println("device: ads1299")
	} else {
		fmt.Println("device: unknown")
	}
	if n, ok := idChannels[v&0x03]; ok {
		fmt.Printf("channels: %d\n", n)
	}
	return nil
}
