// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package stream_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/biostream/stream"
)

type sink struct {
	writes [][]byte
	err    error
}

func (s *sink) Write(b []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.writes = append(s.writes, append([]byte(nil), b...))
	return len(b), nil
}

func record(c byte, n int) []byte {
	return bytes.Repeat([]byte{c}, n)
}

func TestNewBuffer(t *testing.T) {
	patterns := []struct {
		name                    string
		capacity, thresh, rsize int
		err                     error
	}{
		{"default", stream.DefaultCapacity, stream.DefaultThreshold, stream.DefaultRecordSize, nil},
		{"record equals threshold", 100, 10, 10, nil},
		{"record over threshold", 100, 10, 11, stream.ErrInvalidGeometry},
		{"threshold equals capacity", 100, 100, 10, stream.ErrInvalidGeometry},
		{"zero record", 100, 10, 0, stream.ErrInvalidGeometry},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			b, err := stream.NewBuffer(&sink{}, p.capacity, p.thresh, p.rsize)
			assert.Equal(t, p.err, err)
			if p.err == nil {
				require.NotNil(t, b)
				assert.Equal(t, p.rsize, b.RecordSize())
				assert.Zero(t, b.Len())
			}
		}
		t.Run(p.name, tf)
	}
}

func TestAppendFlushArithmetic(t *testing.T) {
	patterns := []struct {
		thresh, rsize, k int
	}{
		{3840, 256, 15},
		{100, 10, 10},
		{105, 10, 10},
		{10, 10, 1},
		{19, 10, 1},
	}
	for _, p := range patterns {
		s := &sink{}
		b, err := stream.NewBuffer(s, p.thresh+1, p.thresh, p.rsize)
		require.Nil(t, err)
		for i := 0; i < p.k; i++ {
			require.Nil(t, b.Append(record(byte('a'+i%26), p.rsize)))
			assert.Empty(t, s.writes)
		}
		assert.Equal(t, p.k*p.rsize, b.Len())
		require.Nil(t, b.Append(record('#', p.rsize)))
		require.Len(t, s.writes, 1, p)
		assert.Len(t, s.writes[0], p.k*p.rsize)
		for i := 0; i < p.k; i++ {
			assert.Equal(t, record(byte('a'+i%26), p.rsize), s.writes[0][i*p.rsize:(i+1)*p.rsize])
		}
		// the (k+1)th record now sits alone at offset 0
		assert.Equal(t, p.rsize, b.Len())
		require.Nil(t, b.Flush())
		require.Len(t, s.writes, 2)
		assert.Equal(t, record('#', p.rsize), s.writes[1])
	}
}

func TestFlushFailure(t *testing.T) {
	s := &sink{}
	b, err := stream.NewBuffer(s, 64, 40, 10)
	require.Nil(t, err)
	for i := 0; i < 4; i++ {
		require.Nil(t, b.Append(record('x', 10)))
	}
	s.err = errors.New("send failed")
	err = b.Append(record('y', 10))
	assert.Equal(t, s.err, err)
	assert.Zero(t, b.Len())

	// buffered data is discarded, not retried
	s.err = nil
	require.Nil(t, b.Append(record('z', 10)))
	require.Nil(t, b.Flush())
	require.Len(t, s.writes, 1)
	assert.Equal(t, record('z', 10), s.writes[0])

	s.err = errors.New("send failed")
	require.Nil(t, b.Append(record('z', 10)))
	assert.Equal(t, s.err, b.Flush())
	assert.Zero(t, b.Len())
}

func TestFlushEmpty(t *testing.T) {
	s := &sink{err: errors.New("unexpected write")}
	b, err := stream.NewBuffer(s, 64, 40, 10)
	require.Nil(t, err)
	assert.Nil(t, b.Flush())
}

func TestZeroFill(t *testing.T) {
	s := &sink{}
	b, err := stream.NewBuffer(s, 64, 40, 10)
	require.Nil(t, err)
	for i := 0; i < 4; i++ {
		require.Nil(t, b.Append(record('L', 10)))
	}
	require.Nil(t, b.Flush())
	// reuse the slots with shorter records
	require.Nil(t, b.Append([]byte("ab")))
	require.Nil(t, b.Append(nil))
	require.Nil(t, b.Flush())
	require.Len(t, s.writes, 2)
	expected := make([]byte, 20)
	copy(expected, "ab")
	assert.Equal(t, expected, s.writes[1])
}

func TestRecordTooLong(t *testing.T) {
	s := &sink{}
	b, err := stream.NewBuffer(s, 64, 40, 10)
	require.Nil(t, err)
	assert.Equal(t, stream.ErrRecordTooLong, b.Append(record('x', 11)))
	assert.Zero(t, b.Len())
}

func TestReset(t *testing.T) {
	s1 := &sink{}
	s2 := &sink{}
	b, err := stream.NewBuffer(s1, 64, 40, 10)
	require.Nil(t, err)
	require.Nil(t, b.Append(record('x', 10)))
	b.Reset(s2)
	assert.Zero(t, b.Len())
	require.Nil(t, b.Append(record('y', 10)))
	require.Nil(t, b.Flush())
	assert.Empty(t, s1.writes)
	assert.Equal(t, [][]byte{record('y', 10)}, s2.writes)
}

func TestFormatRecord(t *testing.T) {
	ts := time.Unix(1700000000, 123456789)
	rec := stream.FormatRecord(nil, ts, [8]float64{0, 1.5, -0.25, 1e-6, 0.1, -3, 2.5e-7, 100})
	assert.Equal(t, "1700000000.123456,0,1.5,-0.25,0.000001,0.1,-3,0.00000025,100\n", string(rec))

	rec = stream.FormatRecord([]byte("x"), time.Unix(5, 1000), [8]float64{})
	assert.Equal(t, "x5.000001,0,0,0,0,0,0,0,0\n", string(rec))

	assert.Equal(t, "-1.500000", string(stream.AppendTimestamp(nil, time.Unix(-2, 5e8))))
}
