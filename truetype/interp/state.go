// Package interp executes the stack-based TrueType hinting bytecode against
// a graphics state and a zone of scaled points. It is grounded on
// original_source/src/truetype's interpreter; golang.org/x/image/font/sfnt
// never grew hinting support of its own (its Font doc comment says plainly
// "This implementation does not support hinting").
package interp

import "github.com/go-fontcore/fontcore/math/fixed"

// Vector is a 2.14 fixed-point unit direction vector (freedom/projection
// vectors), stored as plain ints scaled by 1<<14 for arithmetic simplicity.
type Vector struct {
	X, Y int32 // 2.14 fixed-point
}

// RoundState selects one of the bytecode's rounding policies: six fixed
// modes plus the SROUND and S45ROUND super-rounding modes.
type RoundState int

const (
	RoundToHalfGrid RoundState = iota
	RoundToGrid
	RoundToDoubleGrid
	RoundDownToGrid
	RoundUpToGrid
	RoundOff
	RoundSuper
	RoundSuper45
)

// GraphicsState holds the per-size interpreter state: freedom/projection/
// dual-projection vectors, reference points, rounding, minimum distance,
// and the assorted control-cut-in and flag fields.
type GraphicsState struct {
	FreedomVector     Vector
	ProjectionVector  Vector
	DualProjVector    Vector

	RP0, RP1, RP2 int

	RoundState        RoundState
	MinDistance       fixed.Int26_6
	ControlValueCutIn fixed.Int26_6
	SingleWidthCutIn  fixed.Int26_6
	SingleWidthValue  fixed.Int26_6
	DeltaBase         int32
	DeltaShift        int32
	AutoFlip          bool
	ScanControl       bool
	ScanType          int32
	InstructControl   uint8
	Loop              int32
	Zp0, Zp1, Zp2     int // 0 = twilight zone, 1 = glyph zone
}

// DefaultGraphicsState returns the interpreter's reset state: freedom and
// projection vectors both (1,0) in 2.14 fixed point (the x axis), min
// distance 1 pixel, control-value cut-in 17/16 pixel, delta base 9 and
// delta shift 3 — the standard FreeType/OpenType defaults.
func DefaultGraphicsState() GraphicsState {
	return GraphicsState{
		FreedomVector:     Vector{X: 1 << 14, Y: 0},
		ProjectionVector:  Vector{X: 1 << 14, Y: 0},
		DualProjVector:    Vector{X: 1 << 14, Y: 0},
		RoundState:        RoundToGrid,
		MinDistance:       fixed.Int26_6(64), // 1 px
		ControlValueCutIn: fixed.Int26_6(17 * 64 / 16),
		SingleWidthCutIn:  0,
		DeltaBase:         9,
		DeltaShift:        3,
		AutoFlip:          true,
		ScanControl:       false,
		Loop:              1,
	}
}

// Zone is the point storage the interpreter can move points within: either
// the twilight zone (scratch points created by the font program) or the
// current glyph's zone. Cur holds the live (possibly hinter-moved)
// coordinates; Orig holds the scaled-but-unhinted coordinates IUP
// interpolates from.
type Zone struct {
	Cur     []fixed.Point26_6
	Orig    []fixed.Point26_6
	Unscaled []struct{ X, Y int32 } // font-unit coordinates, for twilight SROUND-free paths
	OnCurve []bool
	Touched []uint8 // bit 0: touched X, bit 1: touched Y
	Contours []int  // end-point indices, parallel to outline.Outline.Contours
}

// NewZone allocates a Zone with n points (the twilight zone sizes itself
// from maxp.maxTwilightPoints; the glyph zone resizes per glyph).
func NewZone(n int) *Zone {
	return &Zone{
		Cur:     make([]fixed.Point26_6, n),
		Orig:    make([]fixed.Point26_6, n),
		OnCurve: make([]bool, n),
		Touched: make([]uint8, n),
	}
}

const (
	touchX = 1 << 0
	touchY = 1 << 1
)

// Code is one of the three bytecode ranges the interpreter may be
// executing: the font program (run once at face init), the cvt program
// (run once per size change), or the current glyph program.
type Code struct {
	Bytes []byte
	IP    int
}

// FuncDef is one function defined by FDEF.
type FuncDef struct {
	Code []byte
}
