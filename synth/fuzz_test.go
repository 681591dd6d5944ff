// Copyright 2024 movefuzz-go authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package synth

import (
	"testing"

	"github.com/LucaPoda/movefuzz-go/prog"
)

// fixedSchemas is a representative target signature exercising every
// non-integer TypeSchema kind (Bool, Address, Signer, Vector, Struct) and
// the U8, U16 and U64 widths, used so FuzzSynthesise has a stable shape to
// decode arbitrary bytes against. U32, U128 and U256 are not included.
var fixedSchemas = []prog.TypeSchema{
	prog.Bool(),
	prog.U64(),
	prog.Address(),
	prog.Vector(prog.U8()),
	prog.Struct(prog.U16(), prog.Signer()),
}

// FuzzSynthesise asserts Synthesise never panics and always returns exactly
// one Value per schema, regardless of how short or adversarial the input
// is — the two invariants the synthesiser promises callers that build a
// fixed-arity argument list from its output.
func FuzzSynthesise(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0x01})
	f.Add(make([]byte, 64))
	f.Add([]byte{1, 1, 1, 1, 1, 1, 1, 1, 1, 1})

	f.Fuzz(func(t *testing.T, data []byte) {
		vals := Synthesise(fixedSchemas, data)
		if len(vals) != len(fixedSchemas) {
			t.Fatalf("got %d values for %d schemas", len(vals), len(fixedSchemas))
		}
		for i, v := range vals {
			if v.Schema.Kind != fixedSchemas[i].Kind {
				t.Fatalf("value %d: schema kind drifted from input shape", i)
			}
			_ = v.Encode()
		}
	})
}
