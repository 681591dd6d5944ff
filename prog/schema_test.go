package prog

import "testing"

func TestWidthOfPrimitives(t *testing.T) {
	cases := []struct {
		t    TypeSchema
		want int
	}{
		{Bool(), 1},
		{U8(), 1},
		{U16(), 2},
		{U32(), 4},
		{U64(), 8},
		{U128(), 16},
		{U256(), 32},
	}
	for _, c := range cases {
		if got := c.t.Width(); got != c.want {
			t.Errorf("%v.Width() = %d, want %d", c.t, got, c.want)
		}
	}
}

func TestWidthPanicsOnCompositeKinds(t *testing.T) {
	for _, ts := range []TypeSchema{Vector(U8()), Struct(U8(), U16()), Address(), Signer()} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%v.Width() did not panic", ts)
				}
			}()
			ts.Width()
		}()
	}
}

func TestEqual(t *testing.T) {
	a := Struct(U8(), Vector(Address()))
	b := Struct(U8(), Vector(Address()))
	c := Struct(U8(), Vector(Signer()))
	if !a.Equal(b) {
		t.Errorf("expected %v to equal %v", a, b)
	}
	if a.Equal(c) {
		t.Errorf("expected %v to not equal %v", a, c)
	}
}

func TestStringRendering(t *testing.T) {
	cases := []struct {
		t    TypeSchema
		want string
	}{
		{U64(), "U64"},
		{Vector(U8()), "Vector(U8)"},
		{Struct(), "Struct([])"},
		{Struct(U8(), Bool()), "Struct([U8, Bool])"},
	}
	for _, c := range cases {
		if got := c.t.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestParametersString(t *testing.T) {
	p := Parameters{U8(), Vector(Bool())}
	if got, want := p.String(), "[U8, Vector(Bool)]"; got != want {
		t.Errorf("Parameters.String() = %q, want %q", got, want)
	}
}
