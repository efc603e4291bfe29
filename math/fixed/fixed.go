// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fixed implements fixed-point integer types, used throughout
// fontcore for 26.6 scaled-coordinate and 16.16 scale-factor arithmetic,
// mirroring FreeType's FT_Fixed/FT_F26Dot6 conventions.
package fixed

import "fmt"

// Int26_6 is a 26.6 fixed-point number, with 26 integer bits, 6 fractional
// bits, and a sign bit.
//
// The integer part ranges from -33554432 to 33554431, inclusive. The
// fractional part has 64 distinct values, so 1 is represented by 64, and
// 1.5 is represented by 96.
type Int26_6 int32

// String returns a human readable representation of x, in "integer:frac/64"
// form.
func (x Int26_6) String() string {
	const shift, mask = 6, 1<<6 - 1
	if x >= 0 {
		return fmt.Sprintf("%d:%02d", int32(x>>shift), int32(x&mask))
	}
	x = -x
	if x >= 0 {
		return fmt.Sprintf("-%d:%02d", int32(x>>shift), int32(x&mask))
	}
	return "-33554432:00"
}

// Floor returns the greatest integer value <= x, as an Int26_6.
func (x Int26_6) Floor() Int26_6 { return x &^ 63 }

// Round returns the nearest integer value to x, as an Int26_6. Ties round
// up.
func (x Int26_6) Round() Int26_6 { return (x + 32) &^ 63 }

// Ceil returns the least integer value >= x, as an Int26_6.
func (x Int26_6) Ceil() Int26_6 { return (x + 63) &^ 63 }

// FloorToInt returns the greatest integer <= x, as an int.
func (x Int26_6) FloorToInt() int { return int(x >> 6) }

// RoundToInt returns the nearest integer to x, as an int. Ties round up.
func (x Int26_6) RoundToInt() int { return int((x + 32) >> 6) }

// CeilToInt returns the least integer >= x, as an int.
func (x Int26_6) CeilToInt() int { return int((x + 63) >> 6) }

// Mul returns x*y in 26.6 fixed-point arithmetic.
func (x Int26_6) Mul(y Int26_6) Int26_6 {
	return Int26_6((int64(x)*int64(y) + 1<<5) >> 6)
}

// Int16_16 is a 16.16 fixed-point number, used for scale factors
// (x_scale/y_scale) and composite-glyph 2x2 transform entries.
type Int16_16 int32

// One is the Int16_16 representation of 1.0.
const One = Int16_16(1 << 16)

// FromInt returns n as an Int16_16.
func FromInt(n int) Int16_16 { return Int16_16(n << 16) }

// FloorToInt returns the greatest integer <= x.
func (x Int16_16) FloorToInt() int { return int(x >> 16) }

// RoundToInt rounds x to the nearest integer; ties round up.
func (x Int16_16) RoundToInt() int { return int((x + 1<<15) >> 16) }

// Mul returns x*y in 16.16 fixed-point arithmetic, rounding to nearest.
// The loaders scale font units with MulFix, not Mul.
func (x Int16_16) Mul(y Int16_16) Int16_16 {
	return Int16_16((int64(x)*int64(y) + 1<<15) >> 16)
}

// MulFix multiplies a font-unit value by a 16.16 scale factor, producing a
// 26.6 value: (value * scale + rounding) >> 16, matching the FreeType
// FT_MulFix convention every scaling step in this codebase relies on.
func MulFix(value int32, scale Int16_16) Int26_6 {
	return Int26_6((int64(value)*int64(scale) + 1<<15) >> 16)
}

// DivFix divides a by b in 16.16 fixed-point, rounding to nearest. Overflow
// checking for the bytecode interpreter's DIV opcode lives in
// truetype/interp, not here.
func DivFix(a, b int32) Int16_16 {
	if b == 0 {
		return 0
	}
	sign := int64(1)
	if (a < 0) != (b < 0) {
		sign = -1
	}
	na, nb := int64(a), int64(b)
	if na < 0 {
		na = -na
	}
	if nb < 0 {
		nb = -nb
	}
	return Int16_16(sign * ((na << 16) + nb/2) / nb)
}

// Point26_6 is a point in 26.6 fixed-point coordinates.
type Point26_6 struct {
	X, Y Int26_6
}

// Rectangle26_6 is an axis-aligned rectangle in 26.6 fixed-point
// coordinates.
type Rectangle26_6 struct {
	Min, Max Point26_6
}
