// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package phase sequences link acquisition, peer discovery and sample
// streaming.
//
// The Machine is driven by a single goroutine calling Run. Link state
// changes arrive asynchronously on the Link's event channel.
package phase

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/warthog618/biostream/ads1299"
	"github.com/warthog618/biostream/indicator"
	"github.com/warthog618/biostream/link"
	"github.com/warthog618/biostream/stream"
	"go.uber.org/multierr"
)

// Phase is the state of the Machine.
type Phase int32

// Phases.
const (
	LinkAcquiring Phase = iota
	ServerDiscovering
	Streaming
	LinkDown
)

func (p Phase) String() string {
	switch p {
	case LinkAcquiring:
		return "link-acquiring"
	case ServerDiscovering:
		return "server-discovering"
	case Streaming:
		return "streaming"
	case LinkDown:
		return "link-down"
	}
	return "unknown"
}

// ADC is the sample source.
type ADC interface {
	Acquire() error
	Release() error
	DataReady() bool
	ReadFrame() (ads1299.Frame, error)
	Gains() [ads1299.NumChannels]ads1299.Gain
}

// Link is the network link.
type Link interface {
	Connect(ctx context.Context)
	Events() <-chan link.Event
}

// Clock is the wall clock.
type Clock interface {
	Sync(ctx context.Context) error
	Now() time.Time
}

// DialFunc opens the transport to the streaming peer.
type DialFunc func(ctx context.Context) (io.WriteCloser, error)

// Indicator displays the phase.
type Indicator interface {
	Set(indicator.Color)
}

// Config contains the collaborators and policy of a Machine.
type Config struct {
	ADC       ADC
	Link      Link
	Clock     Clock
	Dial      DialFunc
	Indicator Indicator
	Converter ads1299.Converter

	// Streaming buffer geometry.
	BufferSize     int
	FlushThreshold int
	RecordSize     int

	// LinkRetryDelay is the wait in LinkDown before reacquiring the link.
	// If zero LinkDown is terminal.
	LinkRetryDelay time.Duration

	// DiscoverRetryDelay is the wait between failed dials.
	DiscoverRetryDelay time.Duration

	// PollInterval is the wait between data ready polls.
	// If zero the processor is yielded between polls.
	PollInterval time.Duration

	Log zerolog.Logger

	// Observer, if set, is called on each phase transition from the Run
	// goroutine.
	Observer func(from, to Phase)
}

// Stats are the streaming counters.
type Stats struct {
	// Records is the number of records buffered.
	Records uint64
	// Dropped is the number of frames that could not be read or formatted.
	Dropped uint64
	// Sessions is the number of streaming sessions started.
	Sessions uint64
}

// Machine is the acquisition phase machine.
type Machine struct {
	cfg   Config
	ind   Indicator
	buf   *stream.Buffer
	rec   []byte
	conn  io.WriteCloser
	phase atomic.Int32

	records  atomic.Uint64
	dropped  atomic.Uint64
	sessions atomic.Uint64
}

type nopIndicator struct{}

func (nopIndicator) Set(indicator.Color) {}

// New creates a Machine.
func New(cfg Config) (*Machine, error) {
	if cfg.ADC == nil || cfg.Link == nil || cfg.Clock == nil || cfg.Dial == nil {
		return nil, ErrMissingCollaborator
	}
	buf, err := stream.NewBuffer(nil, cfg.BufferSize, cfg.FlushThreshold, cfg.RecordSize)
	if err != nil {
		return nil, err
	}
	m := &Machine{
		cfg: cfg,
		ind: cfg.Indicator,
		buf: buf,
		rec: make([]byte, 0, cfg.RecordSize),
	}
	if m.ind == nil {
		m.ind = nopIndicator{}
	}
	return m, nil
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return Phase(m.phase.Load())
}

// Stats returns a snapshot of the streaming counters.
func (m *Machine) Stats() Stats {
	return Stats{
		Records:  m.records.Load(),
		Dropped:  m.dropped.Load(),
		Sessions: m.sessions.Load(),
	}
}

// Run drives the Machine until ctx is done or the link is terminally down.
//
// Returns ctx.Err() on cancellation, ErrLinkDown if the link could not be
// acquired and LinkRetryDelay is zero, or the error that prevented a
// streaming session from acquiring the ADC.
func (m *Machine) Run(ctx context.Context) error {
	p := LinkAcquiring
	m.phase.Store(int32(p))
	for {
		var next Phase
		var err error
		switch p {
		case LinkAcquiring:
			next, err = m.acquireLink(ctx)
		case LinkDown:
			next, err = m.linkDown(ctx)
		case ServerDiscovering:
			next, err = m.discover(ctx)
		case Streaming:
			next, err = m.stream(ctx)
		}
		if err != nil {
			return err
		}
		m.transition(p, next)
		p = next
	}
}

func (m *Machine) transition(from, to Phase) {
	m.phase.Store(int32(to))
	m.cfg.Log.Info().Stringer("from", from).Stringer("to", to).Msg("phase")
	if m.cfg.Observer != nil {
		m.cfg.Observer(from, to)
	}
}

func (m *Machine) acquireLink(ctx context.Context) (Phase, error) {
	m.ind.Set(indicator.Red)
	m.cfg.Link.Connect(ctx)
	for {
		select {
		case <-ctx.Done():
			return LinkAcquiring, ctx.Err()
		case e := <-m.cfg.Link.Events():
			switch e {
			case link.Connected:
				return ServerDiscovering, nil
			case link.Failed:
				return LinkDown, nil
			}
		}
	}
}

func (m *Machine) linkDown(ctx context.Context) (Phase, error) {
	m.ind.Set(indicator.Red)
	if m.cfg.LinkRetryDelay <= 0 {
		return LinkDown, ErrLinkDown
	}
	select {
	case <-ctx.Done():
		return LinkDown, ctx.Err()
	case <-time.After(m.cfg.LinkRetryDelay):
		return LinkAcquiring, nil
	}
}

func (m *Machine) discover(ctx context.Context) (Phase, error) {
	m.ind.Set(indicator.Yellow)
	if err := m.cfg.Clock.Sync(ctx); err != nil {
		m.cfg.Log.Warn().Err(err).Msg("clock sync")
	}
	for {
		if err := ctx.Err(); err != nil {
			return ServerDiscovering, err
		}
		if m.linkLost() {
			return LinkAcquiring, nil
		}
		conn, err := m.cfg.Dial(ctx)
		if err == nil {
			m.conn = conn
			m.cfg.Log.Info().Msg("socket open")
			return Streaming, nil
		}
		m.cfg.Log.Warn().Err(err).Msg("dial")
		select {
		case <-ctx.Done():
			return ServerDiscovering, ctx.Err()
		case e := <-m.cfg.Link.Events():
			if e == link.Lost {
				return LinkAcquiring, nil
			}
		case <-time.After(m.cfg.DiscoverRetryDelay):
		}
	}
}

// linkLost drains pending link events, returning true if any was Lost.
func (m *Machine) linkLost() bool {
	lost := false
	for {
		select {
		case e := <-m.cfg.Link.Events():
			if e == link.Lost {
				lost = true
			}
		default:
			return lost
		}
	}
}

func (m *Machine) stream(ctx context.Context) (next Phase, err error) {
	conn := m.conn
	m.conn = nil
	var cerr error
	defer func() {
		cerr = multierr.Append(cerr, conn.Close())
		if cerr != nil {
			m.cfg.Log.Warn().Err(cerr).Msg("stream teardown")
		}
		m.cfg.Log.Info().Msg("socket closed")
	}()
	m.ind.Set(indicator.Green)
	if err = m.cfg.ADC.Acquire(); err != nil {
		return Streaming, err
	}
	defer func() {
		cerr = multierr.Append(cerr, m.cfg.ADC.Release())
	}()
	m.sessions.Add(1)
	m.buf.Reset(conn)
	events := m.cfg.Link.Events()
	for {
		select {
		case <-ctx.Done():
			return Streaming, ctx.Err()
		case e := <-events:
			if e == link.Lost {
				return LinkAcquiring, nil
			}
		default:
		}
		if !m.cfg.ADC.DataReady() {
			m.idle()
			continue
		}
		f, err := m.cfg.ADC.ReadFrame()
		if err != nil {
			m.dropped.Add(1)
			m.cfg.Log.Debug().Err(err).Msg("frame dropped")
			continue
		}
		v := m.cfg.Converter.Volts(f, m.cfg.ADC.Gains())
		m.rec = stream.FormatRecord(m.rec[:0], m.cfg.Clock.Now(), v)
		if err = m.buf.Append(m.rec); err != nil {
			if err == stream.ErrRecordTooLong {
				m.dropped.Add(1)
				m.cfg.Log.Debug().Int("len", len(m.rec)).Msg("record dropped")
				continue
			}
			m.cfg.Log.Warn().Err(err).Msg("flush failed")
			return ServerDiscovering, nil
		}
		m.records.Add(1)
	}
}

func (m *Machine) idle() {
	if m.cfg.PollInterval > 0 {
		time.Sleep(m.cfg.PollInterval)
		return
	}
	runtime.Gosched()
}

var (
	// ErrLinkDown indicates the link could not be acquired.
	ErrLinkDown = errors.New("link down")

	// ErrMissingCollaborator indicates a Config without an ADC, Link, Clock
	// or Dial.
	ErrMissingCollaborator = errors.New("missing collaborator")
)
