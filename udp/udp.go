// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package udp provides the datagram transport to the streaming peer.
package udp

import (
	"context"
	"net"
	"time"
)

// Dialer opens connected UDP sockets to a fixed peer.
type Dialer struct {
	// Addr is the host:port of the peer.
	Addr string

	// Timeout bounds each Write and Read. Zero disables the deadline.
	Timeout time.Duration
}

// Dial opens a socket connected to the peer.
func (d Dialer) Dial(ctx context.Context) (*Conn, error) {
	var nd net.Dialer
	c, err := nd.DialContext(ctx, "udp", d.Addr)
	if err != nil {
		return nil, err
	}
	return &Conn{c: c, timeout: d.Timeout}, nil
}

// Conn is a connected UDP socket.
//
// Each Write is sent as a single datagram.
type Conn struct {
	c       net.Conn
	timeout time.Duration
}

// Write sends b as one datagram.
func (c *Conn) Write(b []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.c.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.c.Write(b)
}

// Read receives a datagram from the peer.
func (c *Conn) Read(b []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.c.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.c.Read(b)
}

// LocalAddr returns the local address of the socket.
func (c *Conn) LocalAddr() net.Addr {
	return c.c.LocalAddr()
}

// RemoteAddr returns the address of the peer.
func (c *Conn) RemoteAddr() net.Addr {
	return c.c.RemoteAddr()
}

// Close closes the socket.
func (c *Conn) Close() error {
	return c.c.Close()
}
