// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metadata

import (
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/snapvfs/lib/codec"
)

// ErrMalformed is returned when a metadata stream contains bytes that
// do not decode as a record.
var ErrMalformed = errors.New("malformed metadata record")

// Reader reads successive records from a metadata stream.
type Reader struct {
	decoder *codec.Decoder
	count   int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{decoder: codec.NewDecoder(r)}
}

// Next returns the next record, or io.EOF when the stream is
// exhausted.
func (r *Reader) Next() (*Record, error) {
	var record Record
	err := r.decoder.Decode(&record)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: record %d: %v", ErrMalformed, r.count, err)
	}
	r.count++
	return &record, nil
}

// Writer appends records to a metadata stream.
type Writer struct {
	encoder *codec.Encoder
}

// NewWriter returns a Writer that appends to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{encoder: codec.NewEncoder(w)}
}

// Write appends one record.
func (w *Writer) Write(record *Record) error {
	if err := w.encoder.Encode(record); err != nil {
		return fmt.Errorf("writing metadata record: %w", err)
	}
	return nil
}
