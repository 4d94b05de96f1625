// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package gpio

import (
	"bytes"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const compatiblePath = "/proc/device-tree/compatible"

// Open memory maps the GPIO register block from /dev/gpiomem.
func Open() (*Chip, error) {
	return OpenPath("/dev/gpiomem")
}

// OpenPath memory maps the GPIO register block from the named device.
func OpenPath(path string) (*Chip, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mem8, err := unix.Mmap(
		int(f.Fd()),
		0,
		memLength,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	c := &Chip{
		mem8:    mem8,
		mem:     unsafe.Slice((*uint32)(unsafe.Pointer(&mem8[0])), len(mem8)/4),
		chipset: detectChipset(),
	}
	return c, nil
}

// Close unmaps the GPIO memory.
// Pins obtained from the chip must not be used after Close.
func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mem8 == nil {
		return ErrClosed
	}
	c.mem = nil
	mem8 := c.mem8
	c.mem8 = nil
	return unix.Munmap(mem8)
}

func detectChipset() Chipset {
	b, err := os.ReadFile(compatiblePath)
	if err != nil {
		return BCM2835
	}
	if bytes.Contains(b, []byte("bcm2711")) {
		return BCM2711
	}
	return BCM2835
}
