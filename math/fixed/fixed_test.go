// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fixed

import "testing"

func TestInt26_6(t *testing.T) {
	x := Int26_6(1<<6 + 1<<4)
	if got, want := x.String(), "1:16"; got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
	if got, want := x.Floor(), Int26_6(1<<6); got != want {
		t.Errorf("Floor: got %v, want %v", got, want)
	}
	if got, want := x.Round(), Int26_6(1<<6); got != want {
		t.Errorf("Round: got %v, want %v", got, want)
	}
	if got, want := x.Ceil(), Int26_6(2<<6); got != want {
		t.Errorf("Ceil: got %v, want %v", got, want)
	}
}

func TestInt26_6Negative(t *testing.T) {
	x := Int26_6(-(1<<6 + 1<<4))
	if got, want := x.String(), "-1:16"; got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}

func TestInt16_16Mul(t *testing.T) {
	half := Int16_16(1 << 15)
	if got, want := half.Mul(One), half; got != want {
		t.Errorf("Mul by One: got %v, want %v", got, want)
	}
	if got, want := FromInt(2).Mul(FromInt(3)), FromInt(6); got != want {
		t.Errorf("Mul: got %v, want %v", got, want)
	}
}

func TestMulFix(t *testing.T) {
	// 1000 font units at a raw 0.5 scale give 500. MulFix adds no 26.6
	// conversion of its own: the result is in 26.6 pixels only when the
	// scale already carries the ppem*64/unitsPerEm factor, as Size.XScale does.
	got := MulFix(1000, Int16_16(1<<15))
	want := Int26_6(500)
	if got != want {
		t.Errorf("MulFix: got %v, want %v", got, want)
	}
}

func TestDivFix(t *testing.T) {
	if got, want := DivFix(1, 2), Int16_16(1<<15); got != want {
		t.Errorf("DivFix(1,2): got %v, want %v", got, want)
	}
	if got, want := DivFix(-1, 2), -Int16_16(1<<15); got != want {
		t.Errorf("DivFix(-1,2): got %v, want %v", got, want)
	}
	if got, want := DivFix(0, 5), Int16_16(0); got != want {
		t.Errorf("DivFix(0,5): got %v, want %v", got, want)
	}
}
