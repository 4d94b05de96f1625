// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package clock

import "golang.org/x/sys/unix"

// TIME_ERROR from the adjtimex clock state.
const timeError = 5

// Synchronised returns true if the kernel reports the clock as synchronised.
func Synchronised() (bool, error) {
	var tx unix.Timex
	state, err := unix.Adjtimex(&tx)
	if err != nil {
		return false, err
	}
	return state != timeError, nil
}
