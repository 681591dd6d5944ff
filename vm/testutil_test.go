// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package vm

// buildModule assembles a minimal valid Wasm binary (magic, version, and a
// single custom section carrying abiJSON under abiSectionName) good enough
// for Deserialize to parse. It deliberately has no code/function sections —
// these tests exercise ABI recovery, not execution.
func buildModule(abiJSON []byte) []byte {
	var out []byte
	out = append(out, 0x00, 0x61, 0x73, 0x6d) // magic
	out = append(out, 0x01, 0x00, 0x00, 0x00) // version 1

	var content []byte
	content = appendULEB128(content, uint64(len(abiSectionName)))
	content = append(content, abiSectionName...)
	content = append(content, abiJSON...)

	out = append(out, 0x00) // custom section id
	out = appendULEB128(out, uint64(len(content)))
	out = append(out, content...)
	return out
}

func appendULEB128(b []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b = append(b, c|0x80)
		} else {
			b = append(b, c)
			return b
		}
	}
}
