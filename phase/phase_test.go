// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package phase_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/biostream/ads1299"
	"github.com/warthog618/biostream/indicator"
	"github.com/warthog618/biostream/link"
	"github.com/warthog618/biostream/phase"
)

// poll is one scripted DataReady result, and the ReadFrame result if ready.
type poll struct {
	ready bool
	ch0   int32
	err   error
}

var notReady = poll{}

func frame(ch0 int32) poll {
	return poll{ready: true, ch0: ch0}
}

type adc struct {
	script   []poll
	cur      poll
	acquired bool
	acquires int
	releases int
	err      error
	relErr   error
	// called when the script is exhausted
	onEmpty func()
}

func (a *adc) Acquire() error {
	if a.err != nil {
		return a.err
	}
	a.acquired = true
	a.acquires++
	return nil
}

func (a *adc) Release() error {
	a.acquired = false
	a.releases++
	return a.relErr
}

func (a *adc) DataReady() bool {
	if len(a.script) == 0 {
		if a.onEmpty != nil {
			a.onEmpty()
		}
		return false
	}
	a.cur = a.script[0]
	a.script = a.script[1:]
	return a.cur.ready
}

func (a *adc) ReadFrame() (ads1299.Frame, error) {
	if a.cur.err != nil {
		return ads1299.Frame{}, a.cur.err
	}
	f := ads1299.Frame{}
	f.Samples[0] = a.cur.ch0
	return f, nil
}

func (a *adc) Gains() (g [ads1299.NumChannels]ads1299.Gain) {
	return
}

type fakeLink struct {
	// outcome of each Connect
	outcomes []link.Event
	connects int
	events   chan link.Event
}

func newLink(outcomes ...link.Event) *fakeLink {
	return &fakeLink{outcomes: outcomes, events: make(chan link.Event, 8)}
}

func (l *fakeLink) Connect(ctx context.Context) {
	l.connects++
	if len(l.outcomes) > 0 {
		l.events <- l.outcomes[0]
		l.outcomes = l.outcomes[1:]
	}
}

func (l *fakeLink) Events() <-chan link.Event {
	return l.events
}

type fakeClock struct {
	syncs int
	err   error
}

func (c *fakeClock) Sync(ctx context.Context) error {
	c.syncs++
	return c.err
}

func (c *fakeClock) Now() time.Time {
	return time.Unix(1, 0)
}

type conn struct {
	writes [][]byte
	// 1 based index of the failing write
	failOn int
	n      int
	closed bool
	err    error
}

func (c *conn) Write(b []byte) (int, error) {
	c.n++
	if c.n == c.failOn {
		return 0, errors.New("send failed")
	}
	c.writes = append(c.writes, append([]byte(nil), b...))
	return len(b), nil
}

func (c *conn) Close() error {
	c.closed = true
	return c.err
}

type dialer struct {
	conns []*conn
	dials int
	err   error
}

func (d *dialer) dial(ctx context.Context) (io.WriteCloser, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	c := &conn{}
	if len(d.conns) > 0 {
		c = d.conns[0]
		d.conns = d.conns[1:]
	}
	return c, nil
}

type led struct {
	colors []indicator.Color
}

func (l *led) Set(c indicator.Color) {
	l.colors = append(l.colors, c)
}

type transition struct {
	from, to phase.Phase
}

type harness struct {
	adc    *adc
	link   *fakeLink
	clock  *fakeClock
	dialer *dialer
	led    *led
	cfg    phase.Config
	trans  []transition
	ctx    context.Context
	cancel context.CancelFunc
	// called with each transition
	hook func(h *harness, from, to phase.Phase)
}

func newHarness(polls []poll, l *fakeLink, conns ...*conn) *harness {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	h := &harness{
		adc:    &adc{script: polls},
		link:   l,
		clock:  &fakeClock{},
		dialer: &dialer{conns: conns},
		led:    &led{},
		ctx:    ctx,
		cancel: cancel,
	}
	h.cfg = phase.Config{
		ADC:                h.adc,
		Link:               h.link,
		Clock:              h.clock,
		Dial:               h.dialer.dial,
		Indicator:          h.led,
		Converter:          ads1299.Converter{VRef: 1, FullScale: 1},
		BufferSize:         128,
		FlushThreshold:     64,
		RecordSize:         32,
		DiscoverRetryDelay: time.Millisecond,
		Observer: func(from, to phase.Phase) {
			h.trans = append(h.trans, transition{from, to})
			if h.hook != nil {
				h.hook(h, from, to)
			}
		},
	}
	return h
}

func (h *harness) run(t *testing.T) error {
	t.Helper()
	defer h.cancel()
	m, err := phase.New(h.cfg)
	require.Nil(t, err)
	return m.Run(h.ctx)
}

func cancelOn(from, to phase.Phase) func(h *harness, f, t phase.Phase) {
	return func(h *harness, f, t phase.Phase) {
		if f == from && t == to {
			h.cancel()
		}
	}
}

// slot returns the record for a frame padded to the record size.
func slot(ch0 int32) []byte {
	rec := fmt.Sprintf("1.000000,%d,0,0,0,0,0,0,0\n", ch0)
	b := make([]byte, 32)
	copy(b, rec)
	return b
}

func payload(ch0 ...int32) []byte {
	var b []byte
	for _, v := range ch0 {
		b = append(b, slot(v)...)
	}
	return b
}

func TestStreamingEndToEnd(t *testing.T) {
	polls := []poll{
		notReady,
		frame(1),
		notReady,
		{ready: true, err: errors.New("spi fault")},
		frame(2),
		frame(3), // flushes 1,2
		notReady,
		frame(4),
		frame(5), // flushes 3,4 and fails
		frame(6),
	}
	c := &conn{failOn: 2}
	h := newHarness(polls, newLink(link.Connected), c)
	h.hook = cancelOn(phase.Streaming, phase.ServerDiscovering)

	err := h.run(t)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, [][]byte{payload(1, 2)}, c.writes)
	assert.Equal(t, []transition{
		{phase.LinkAcquiring, phase.ServerDiscovering},
		{phase.ServerDiscovering, phase.Streaming},
		{phase.Streaming, phase.ServerDiscovering},
	}, h.trans)
	assert.True(t, c.closed)
	assert.False(t, h.adc.acquired)
	assert.Equal(t, 1, h.adc.releases)
	assert.Equal(t, []poll{frame(6)}, h.adc.script)
	assert.Equal(t, []indicator.Color{indicator.Red, indicator.Yellow, indicator.Green, indicator.Yellow}, h.led.colors)
	assert.Equal(t, 2, h.clock.syncs)
	assert.Equal(t, 1, h.link.connects)
}

func TestStreamingResumes(t *testing.T) {
	polls := []poll{
		frame(1), frame(2), frame(3), // flush fails
		frame(4), frame(5), frame(6),
	}
	c1 := &conn{failOn: 1}
	c2 := &conn{}
	h := newHarness(polls, newLink(link.Connected), c1, c2)
	h.adc.onEmpty = h.cancel
	h.cfg.PollInterval = time.Millisecond

	err := h.run(t)
	assert.Equal(t, context.Canceled, err)
	// 1 and 2 are lost with the failed flush, and 3 with them
	assert.Empty(t, c1.writes)
	assert.True(t, c1.closed)
	assert.Equal(t, [][]byte{payload(4, 5)}, c2.writes)
	assert.True(t, c2.closed)
	assert.Equal(t, []transition{
		{phase.LinkAcquiring, phase.ServerDiscovering},
		{phase.ServerDiscovering, phase.Streaming},
		{phase.Streaming, phase.ServerDiscovering},
		{phase.ServerDiscovering, phase.Streaming},
	}, h.trans)
	assert.Equal(t, 2, h.dialer.dials)
	assert.Equal(t, 2, h.adc.acquires)
	assert.Equal(t, 2, h.adc.releases)
}

func TestStats(t *testing.T) {
	polls := []poll{
		frame(1),
		{ready: true, err: errors.New("spi fault")},
		frame(2),
		{ready: true, err: errors.New("spi fault")},
	}
	h := newHarness(polls, newLink(link.Connected))
	h.adc.onEmpty = h.cancel
	m, err := phase.New(h.cfg)
	require.Nil(t, err)
	assert.Equal(t, phase.LinkAcquiring, m.Phase())
	err = m.Run(h.ctx)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, phase.Stats{Records: 2, Dropped: 2, Sessions: 1}, m.Stats())
	assert.Equal(t, phase.Streaming, m.Phase())
}

func TestRecordTooLong(t *testing.T) {
	polls := []poll{frame(1), frame(2)}
	h := newHarness(polls, newLink(link.Connected))
	h.cfg.RecordSize = 8
	h.cfg.FlushThreshold = 16
	h.adc.onEmpty = h.cancel
	m, err := phase.New(h.cfg)
	require.Nil(t, err)
	assert.Equal(t, context.Canceled, m.Run(h.ctx))
	assert.Equal(t, phase.Stats{Dropped: 2, Sessions: 1}, m.Stats())
}

func TestLinkDownTerminal(t *testing.T) {
	h := newHarness(nil, newLink(link.Failed))
	err := h.run(t)
	assert.Equal(t, phase.ErrLinkDown, err)
	assert.Equal(t, []transition{{phase.LinkAcquiring, phase.LinkDown}}, h.trans)
	assert.Equal(t, []indicator.Color{indicator.Red, indicator.Red}, h.led.colors)
	assert.Zero(t, h.dialer.dials)
}

func TestLinkDownRetry(t *testing.T) {
	h := newHarness(nil, newLink(link.Failed, link.Failed, link.Connected))
	h.cfg.LinkRetryDelay = time.Millisecond
	h.hook = cancelOn(phase.LinkAcquiring, phase.ServerDiscovering)
	err := h.run(t)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, []transition{
		{phase.LinkAcquiring, phase.LinkDown},
		{phase.LinkDown, phase.LinkAcquiring},
		{phase.LinkAcquiring, phase.LinkDown},
		{phase.LinkDown, phase.LinkAcquiring},
		{phase.LinkAcquiring, phase.ServerDiscovering},
	}, h.trans)
	assert.Equal(t, 3, h.link.connects)
	assert.Zero(t, h.dialer.dials)
}

func TestLinkLostWhileStreaming(t *testing.T) {
	c := &conn{}
	h := newHarness([]poll{frame(1)}, newLink(link.Connected), c)
	h.adc.onEmpty = func() {
		h.link.events <- link.Lost
		h.adc.onEmpty = nil
	}
	h.hook = cancelOn(phase.Streaming, phase.LinkAcquiring)
	err := h.run(t)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, []transition{
		{phase.LinkAcquiring, phase.ServerDiscovering},
		{phase.ServerDiscovering, phase.Streaming},
		{phase.Streaming, phase.LinkAcquiring},
	}, h.trans)
	// no final flush
	assert.Empty(t, c.writes)
	assert.True(t, c.closed)
	assert.False(t, h.adc.acquired)
	assert.Equal(t, 2, h.link.connects)
}

func TestLinkLostWhileDiscovering(t *testing.T) {
	h := newHarness(nil, newLink(link.Connected))
	h.dialer.err = errors.New("network unreachable")
	h.hook = cancelOn(phase.ServerDiscovering, phase.LinkAcquiring)
	h.clock.err = errors.New("not synced")
	go func() {
		time.Sleep(10 * time.Millisecond)
		h.link.events <- link.Lost
	}()
	err := h.run(t)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, []transition{
		{phase.LinkAcquiring, phase.ServerDiscovering},
		{phase.ServerDiscovering, phase.LinkAcquiring},
	}, h.trans)
	assert.Greater(t, h.dialer.dials, 1)
}

func TestAcquireError(t *testing.T) {
	c := &conn{}
	h := newHarness(nil, newLink(link.Connected), c)
	h.adc.err = errors.New("session held")
	err := h.run(t)
	assert.Equal(t, h.adc.err, err)
	assert.True(t, c.closed)
	assert.Zero(t, h.adc.releases)
}

func TestNew(t *testing.T) {
	h := newHarness(nil, newLink())
	cfg := h.cfg
	cfg.ADC = nil
	_, err := phase.New(cfg)
	assert.Equal(t, phase.ErrMissingCollaborator, err)

	cfg = h.cfg
	cfg.FlushThreshold = cfg.BufferSize
	_, err = phase.New(cfg)
	assert.NotNil(t, err)

	cfg = h.cfg
	cfg.Indicator = nil
	m, err := phase.New(cfg)
	require.Nil(t, err)
	assert.NotNil(t, m)
	h.cancel()
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "link-acquiring", phase.LinkAcquiring.String())
	assert.Equal(t, "server-discovering", phase.ServerDiscovering.String())
	assert.Equal(t, "streaming", phase.Streaming.String())
	assert.Equal(t, "link-down", phase.LinkDown.String())
	assert.Equal(t, "unknown", phase.Phase(9).String())
}

func TestStreamTeardownErrors(t *testing.T) {
	c := &conn{err: errors.New("close failed")}
	h := newHarness([]poll{frame(1)}, newLink(link.Connected), c)
	h.adc.relErr = errors.New("release failed")
	h.adc.onEmpty = h.cancel
	var logbuf bytes.Buffer
	h.cfg.Log = zerolog.New(&logbuf)
	err := h.run(t)
	assert.Equal(t, context.Canceled, err)
	assert.True(t, c.closed)
	assert.Equal(t, 1, h.adc.releases)
	out := logbuf.String()
	assert.Contains(t, out, "stream teardown")
	assert.Contains(t, out, "release failed")
	assert.Contains(t, out, "close failed")
}
