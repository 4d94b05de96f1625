// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package stream

import (
	"strconv"
	"time"
)

// FormatRecord appends the text record for one frame to dst.
//
// The record is "timestamp,v0,v1,v2,v3,v4,v5,v6,v7\n", with the timestamp in
// seconds since the epoch to microsecond resolution and each voltage in its
// shortest decimal form.
func FormatRecord(dst []byte, ts time.Time, volts [8]float64) []byte {
	dst = AppendTimestamp(dst, ts)
	for _, v := range volts {
		dst = append(dst, ',')
		dst = strconv.AppendFloat(dst, v, 'f', -1, 64)
	}
	return append(dst, '\n')
}

// AppendTimestamp appends ts as seconds.microseconds since the epoch.
func AppendTimestamp(dst []byte, ts time.Time) []byte {
	us := ts.UnixMicro()
	if us < 0 {
		dst = append(dst, '-')
		us = -us
	}
	sec, frac := us/1e6, us%1e6
	dst = strconv.AppendInt(dst, sec, 10)
	dst = append(dst, '.')
	var f [6]byte
	for i := len(f) - 1; i >= 0; i-- {
		f[i] = byte('0' + frac%10)
		frac /= 10
	}
	return append(dst, f[:]...)
}
