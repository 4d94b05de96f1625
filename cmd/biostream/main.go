// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// biostream streams ADS1299 samples to a UDP peer.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "undefined"

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config-file", "c", "", "config file (default biostream.json)")
	pf.String("spi", "spidev", "SPI backend, spidev or bitbash")
	pf.String("spi-port", "", "spidev port name")
	pf.String("log-level", "info", "log level")
}

var rootCmd = &cobra.Command{
	Use:   "biostream",
	Short: "biostream acquires ADS1299 samples and streams them over UDP",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "biostream %s: %s\n", cmd.Name(), err)
}
