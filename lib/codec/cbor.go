// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding. Object IDs are hashes of encoded bytes, so determinism is
// part of the storage contract.
var encMode cbor.EncMode

// decMode is the CBOR decoder. Unknown fields are silently ignored so
// that records written by newer versions remain readable.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Metadata streams are concatenations of independently encoded
		// records. A decoder reading one record must stop at its end
		// rather than treating the rest of the stream as trailing junk.
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
		// Bound nesting so a corrupt stream cannot drive the decoder
		// into deep recursion.
		MaxNestedLevels: 16,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v. Trailing bytes after the first
// data item are an error.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder is a CBOR stream encoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Encoder = cbor.Encoder

// Decoder is a CBOR stream decoder. Type alias so consumers import
// only lib/codec, not fxamacker/cbor directly.
type Decoder = cbor.Decoder

// NewEncoder returns a CBOR encoder that writes to w using the
// deterministic encoding configuration.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR decoder that reads successive data items
// from r.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for the
// first data item in data. The CLI uses it to print commit objects in
// readable form.
func Diagnose(data []byte) (string, error) {
	diagnosis, _, err := cbor.DiagnoseFirst(data)
	return diagnosis, err
}
