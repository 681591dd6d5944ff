// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package synth

// Unstructured is a forward-only, deterministic byte-stream reader: every
// read consumes from the front of the remaining buffer and, once the
// buffer runs out, keeps returning zero bytes rather than failing. This
// mirrors the `arbitrary` crate's `fill_buffer`, whose Rust implementation
// never errors on exhaustion — it copies what bytes remain and zero-pads
// the rest — which is exactly the behaviour the synthesiser depends on to
// fall back to zero-filled values instead of aborting mid-input.
type Unstructured struct {
	data []byte
	pos  int
}

// NewUnstructured wraps raw input bytes for synthesis.
func NewUnstructured(data []byte) *Unstructured {
	return &Unstructured{data: data}
}

// Exhausted reports whether every byte has been consumed.
func (u *Unstructured) Exhausted() bool {
	return u.pos >= len(u.data)
}

// fill copies up to len(buf) remaining bytes into buf and zero-pads
// whatever is left. The cursor always advances to the end of what was
// available, never past it.
func (u *Unstructured) fill(buf []byte) {
	n := copy(buf, u.data[u.pos:])
	u.pos += n
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

// Bytes consumes exactly width bytes, zero-padded on exhaustion.
func (u *Unstructured) Bytes(width int) []byte {
	buf := make([]byte, width)
	u.fill(buf)
	return buf
}

// Bool consumes one byte and reports whether its low bit is set, the same
// convention `bool::arbitrary` uses over a single absorbed byte.
func (u *Unstructured) Bool() bool {
	b := u.Bytes(1)
	return b[0]&1 == 1
}
