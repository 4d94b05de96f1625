// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package link monitors the association state of a network interface.
package link

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event is a change in link state.
type Event int

const (
	// Connected indicates the interface is up with an address.
	Connected Event = iota
	// Failed indicates the interface did not come up within the retries.
	Failed
	// Lost indicates a connected interface has gone down.
	Lost
)

func (e Event) String() string {
	switch e {
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	case Lost:
		return "lost"
	}
	return "unknown"
}

// StatusFunc reports whether the named interface is usable.
type StatusFunc func(iface string) (bool, error)

// Monitor watches a named network interface and publishes link events.
type Monitor struct {
	iface    string
	retries  int
	interval time.Duration
	status   StatusFunc
	log      zerolog.Logger
	events   chan Event

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option modifies the Monitor created by New.
type Option func(*Monitor)

// WithRetries sets the number of checks made before reporting Failed.
func WithRetries(n int) Option {
	return func(m *Monitor) {
		m.retries = n
	}
}

// WithInterval sets the period between interface checks.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.interval = d
	}
}

// WithStatusFunc replaces the interface status check.
func WithStatusFunc(f StatusFunc) Option {
	return func(m *Monitor) {
		m.status = f
	}
}

// WithLogger sets the logger used by the Monitor.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Monitor) {
		m.log = l
	}
}

// New creates a Monitor for the named interface.
func New(iface string, options ...Option) *Monitor {
	m := &Monitor{
		iface:    iface,
		retries:  5,
		interval: time.Second,
		status:   InterfaceUp,
		log:      zerolog.Nop(),
		events:   make(chan Event, 4),
	}
	for _, o := range options {
		o(m)
	}
	if m.retries < 1 {
		m.retries = 1
	}
	return m
}

// Events returns the channel on which link events are published.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Connect starts an association attempt.
//
// Any previous attempt or watch is stopped and its unread events discarded.
// The outcome is published as Connected or Failed, and a Connected link is
// then watched until it is Lost or ctx is done.
func (m *Monitor) Connect(ctx context.Context) {
	m.stop()
	m.drain()
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()
	m.wg.Add(1)
	go m.watch(ctx)
}

// Close stops any attempt or watch in progress.
func (m *Monitor) Close() {
	m.stop()
}

func (m *Monitor) stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *Monitor) drain() {
	for {
		select {
		case <-m.events:
		default:
			return
		}
	}
}

func (m *Monitor) watch(ctx context.Context) {
	defer m.wg.Done()
	t := time.NewTicker(m.interval)
	defer t.Stop()
	up := false
	for attempt := 1; attempt <= m.retries; attempt++ {
		if up = m.up(); up {
			break
		}
		m.log.Debug().Str("iface", m.iface).Int("attempt", attempt).Msg("link down")
		if attempt == m.retries {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
	if !up {
		m.publish(ctx, Failed)
		return
	}
	m.publish(ctx, Connected)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if !m.up() {
			m.publish(ctx, Lost)
			return
		}
	}
}

func (m *Monitor) up() bool {
	up, err := m.status(m.iface)
	if err != nil {
		m.log.Debug().Err(err).Str("iface", m.iface).Msg("link status")
		return false
	}
	return up
}

func (m *Monitor) publish(ctx context.Context, e Event) {
	m.log.Info().Str("iface", m.iface).Stringer("event", e).Msg("link")
	select {
	case m.events <- e:
	case <-ctx.Done():
	}
}

// InterfaceUp returns true if the named interface is up and has a global
// unicast address.
func InterfaceUp(name string) (bool, error) {
	i, err := net.InterfaceByName(name)
	if err != nil {
		return false, err
	}
	if i.Flags&net.FlagUp == 0 {
		return false, nil
	}
	addrs, err := i.Addrs()
	if err != nil {
		return false, err
	}
	for _, a := range addrs {
		if n, ok := a.(*net.IPNet); ok && n.IP.IsGlobalUnicast() {
			return true, nil
		}
	}
	return false, nil
}
