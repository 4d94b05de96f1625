// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package clock waits for the system wall clock to be synchronised.
package clock

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// StatusFunc reports whether the system clock is synchronised.
type StatusFunc func() (bool, error)

// Syncer waits for the wall clock to be synchronised by the system time
// service.
type Syncer struct {
	retries  int
	interval time.Duration
	status   StatusFunc
	now      func() time.Time
	log      zerolog.Logger
}

// Option modifies the Syncer created by New.
type Option func(*Syncer)

// WithRetries sets the number of status checks made before giving up.
func WithRetries(n int) Option {
	return func(s *Syncer) {
		s.retries = n
	}
}

// WithInterval sets the period between status checks.
func WithInterval(d time.Duration) Option {
	return func(s *Syncer) {
		s.interval = d
	}
}

// WithStatusFunc replaces the synchronisation check.
func WithStatusFunc(f StatusFunc) Option {
	return func(s *Syncer) {
		s.status = f
	}
}

// WithNow replaces the wall clock.
func WithNow(f func() time.Time) Option {
	return func(s *Syncer) {
		s.now = f
	}
}

// WithLogger sets the logger used by the Syncer.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Syncer) {
		s.log = l
	}
}

// New creates a Syncer.
func New(options ...Option) *Syncer {
	s := &Syncer{
		retries:  10,
		interval: 2 * time.Second,
		status:   Synchronised,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Sync waits until the clock is synchronised, checking up to the retry
// limit.
//
// Returns ErrNotSynced if the retries are exhausted, or the context error
// if ctx is done first.
func (s *Syncer) Sync(ctx context.Context) error {
	for attempt := 1; attempt <= s.retries; attempt++ {
		ok, err := s.status()
		if err != nil {
			s.log.Debug().Err(err).Msg("clock status")
		}
		if ok {
			s.log.Debug().Int("attempt", attempt).Msg("clock synchronised")
			return nil
		}
		if attempt == s.retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.interval):
		}
	}
	return ErrNotSynced
}

// Now returns the current wall clock time.
func (s *Syncer) Now() time.Time {
	return s.now()
}

// ErrNotSynced indicates the clock did not synchronise within the retries.
var ErrNotSynced = errors.New("clock not synchronised")
