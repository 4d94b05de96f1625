// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package stream batches fixed size sample records and flushes them to a
// datagram transport.
package stream

import (
	"errors"
	"io"
)

// Default buffer geometry.
const (
	DefaultCapacity   = 4096
	DefaultThreshold  = 3840
	DefaultRecordSize = 256
)

// Buffer accumulates fixed size records and writes them in batches.
//
// Each flush is a single Write carrying a whole number of records.
// A failed flush discards the buffered records.
type Buffer struct {
	w         io.Writer
	buf       []byte
	threshold int
	size      int
	off       int
}

// NewBuffer creates a Buffer flushing to w.
//
// The buffer is flushed before an append that would take it past threshold
// bytes. Requires recordSize <= threshold < capacity.
func NewBuffer(w io.Writer, capacity, threshold, recordSize int) (*Buffer, error) {
	if recordSize <= 0 || recordSize > threshold || threshold >= capacity {
		return nil, ErrInvalidGeometry
	}
	return &Buffer{
		w:         w,
		buf:       make([]byte, capacity),
		threshold: threshold,
		size:      recordSize,
	}, nil
}

// Append adds a record to the buffer, first flushing the buffer if the
// record would take it past the threshold.
//
// The record is zero filled to the record size.
// If the flush fails the record is dropped and the flush error returned.
func (b *Buffer) Append(rec []byte) error {
	if len(rec) > b.size {
		return ErrRecordTooLong
	}
	if b.off+b.size > b.threshold {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	slot := b.buf[b.off : b.off+b.size]
	n := copy(slot, rec)
	for i := n; i < len(slot); i++ {
		slot[i] = 0
	}
	b.off += b.size
	return nil
}

// Flush writes any buffered records in a single Write.
//
// The buffer is emptied whether or not the write succeeds.
func (b *Buffer) Flush() error {
	if b.off == 0 {
		return nil
	}
	n := b.off
	b.off = 0
	_, err := b.w.Write(b.buf[:n])
	return err
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return b.off
}

// RecordSize returns the size of each record slot.
func (b *Buffer) RecordSize() int {
	return b.size
}

// Reset discards any buffered records and redirects flushes to w.
func (b *Buffer) Reset(w io.Writer) {
	b.w = w
	b.off = 0
}

var (
	// ErrInvalidGeometry indicates buffer sizes not satisfying
	// 0 < recordSize <= threshold < capacity.
	ErrInvalidGeometry = errors.New("invalid buffer geometry")

	// ErrRecordTooLong indicates a record larger than the record size.
	ErrRecordTooLong = errors.New("record too long")
)
