// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package clock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warthog618/biostream/clock"
)

func counter(syncAt int, err error) (clock.StatusFunc, *int) {
	n := 0
	return func() (bool, error) {
		n++
		if err != nil {
			return false, err
		}
		return n >= syncAt, nil
	}, &n
}

func TestSync(t *testing.T) {
	f, n := counter(3, nil)
	s := clock.New(
		clock.WithStatusFunc(f),
		clock.WithRetries(5),
		clock.WithInterval(time.Millisecond))
	assert.Nil(t, s.Sync(context.Background()))
	assert.Equal(t, 3, *n)
}

func TestSyncExhausted(t *testing.T) {
	f, n := counter(10, nil)
	s := clock.New(
		clock.WithStatusFunc(f),
		clock.WithRetries(4),
		clock.WithInterval(time.Millisecond))
	assert.Equal(t, clock.ErrNotSynced, s.Sync(context.Background()))
	assert.Equal(t, 4, *n)
}

func TestSyncStatusError(t *testing.T) {
	f, n := counter(1, errors.New("adjtimex failed"))
	s := clock.New(
		clock.WithStatusFunc(f),
		clock.WithRetries(2),
		clock.WithInterval(time.Millisecond))
	assert.Equal(t, clock.ErrNotSynced, s.Sync(context.Background()))
	assert.Equal(t, 2, *n)
}

func TestSyncCancelled(t *testing.T) {
	f, n := counter(10, nil)
	s := clock.New(
		clock.WithStatusFunc(f),
		clock.WithRetries(10),
		clock.WithInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, s.Sync(ctx))
	assert.Equal(t, 1, *n)
}

func TestNow(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	s := clock.New(clock.WithNow(func() time.Time { return ts }))
	assert.Equal(t, ts, s.Now())
	d := clock.New().Now()
	assert.WithinDuration(t, time.Now(), d, time.Second)
}
