package face

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/driver"
	"github.com/go-fontcore/fontcore/math/fixed"
	"github.com/go-fontcore/fontcore/truetype/interp"
)

// Size is one active (x-ppem, y-ppem) pairing for a face: the derived
// pixel-space scale factors and scaled metrics, plus (for TrueType faces
// with bytecode) the interpreter context the control value program has
// already run against.
type Size struct {
	face *Face

	XPpem, YPpem fixed.Int26_6
	XScale, YScale fixed.Int16_16

	Ascender, Descender, Height, MaxAdvance fixed.Int26_6

	ttCtx *interp.Context // nil unless face.program is non-nil
	psHint *psHinter       // nil unless face.data.Kind is KindCFF/KindType1
}

// NewSize allocates a new, unset Size for the face (set_char_size or
// set_pixel_sizes must be called before it is usable), mirroring
// FT_New_Size.
func (f *Face) NewSize() (*Size, error) {
	s := &Size{face: f}
	f.sizes = append(f.sizes, s)
	return s, nil
}

// SetCharSize sets the size in 26.6 fractional points at the given device
// resolution (dpi; 0 defaults to 72, i.e. 1 point == 1 pixel), per
// set_char_size's formula: pixel size = char size * resolution / 72,
// rounded to the nearest 64th of a pixel. A zero height/yRes reuses the
// width/xRes value, matching the common "square pixels" call pattern.
func (s *Size) SetCharSize(charWidth, charHeight fixed.Int26_6, xRes, yRes uint16) error {
	if xRes == 0 {
		xRes = 72
	}
	if yRes == 0 {
		yRes = xRes
	}
	if charHeight == 0 {
		charHeight = charWidth
	}
	xPpem := roundedMulDiv(int64(charWidth), int64(xRes), 72)
	yPpem := roundedMulDiv(int64(charHeight), int64(yRes), 72)
	return s.setPpem(fixed.Int26_6(xPpem), fixed.Int26_6(yPpem))
}

// SetPixelSizes sets the size directly in integer pixels. A zero width
// reuses height, matching set_char_size's square-pixel convenience.
func (s *Size) SetPixelSizes(width, height uint16) error {
	if width == 0 {
		width = height
	}
	return s.setPpem(fixed.Int26_6(width)<<6, fixed.Int26_6(height)<<6)
}

func roundedMulDiv(a, b, c int64) int64 {
	return (a*b + c/2) / c
}

func (s *Size) setPpem(xPpem, yPpem fixed.Int26_6) error {
	if xPpem <= 0 || yPpem <= 0 {
		return fontcore.New(fontcore.ModuleFace, fontcore.CodeInvalidArgument)
	}
	s.XPpem, s.YPpem = xPpem, yPpem

	if !s.face.Scalable {
		return nil
	}
	upm := int32(s.face.UnitsPerEm)
	if upm == 0 {
		upm = 1000
	}
	s.XScale = fixed.DivFix(int32(xPpem), upm)
	s.YScale = fixed.DivFix(int32(yPpem), upm)

	s.Ascender = fixed.MulFix(int32(s.face.Ascender), s.YScale)
	s.Descender = fixed.MulFix(int32(s.face.Descender), s.YScale)
	s.Height = fixed.MulFix(int32(s.face.Height), s.YScale)
	s.MaxAdvance = fixed.MulFix(int32(s.face.MaxAdvanceWidth), s.XScale)

	switch s.face.data.Kind {
	case driver.KindTrueType:
		if s.face.program != nil {
			s.runProgram()
		}
	case driver.KindCFF:
		s.psHint = newCFFHinter(s.face.data.CFFFont, s.YScale)
	case driver.KindType1:
		s.psHint = newType1Hinter(s.face.data.Type1Font, s.YScale)
	}
	return nil
}

// runProgram builds a fresh interpreter context for this size, runs the
// font program once (defines functions) and the cvt program once (sets up
// storage/CVT for this ppem), matching ttobjs.c's per-size hinting setup.
// A pedantic=false context tolerates a broken font/cvt program rather than
// failing size selection outright — the same fault-tolerant default the
// glyph-level hinting pass (hintTrueType in glyph.go) uses.
func (s *Size) runProgram() {
	t := s.face.data.Tables
	maxp := t.Maxp
	scaledCVT := s.face.program.ScaledCVT(s.YScale)
	ctx := interp.NewContext(int(maxp.MaxStorage), int(maxp.MaxFunctionDefs), int(maxp.MaxStackElements), scaledCVT, int32(yPpemPixels(s.YPpem)), s.YScale)
	twilight := interp.NewZone(int(maxp.MaxTwilightPoints))
	ctx.SetZones(twilight, interp.NewZone(0))
	if len(s.face.program.Fpgm) > 0 {
		_ = ctx.Run(s.face.program.Fpgm)
	}
	if len(s.face.program.Prep) > 0 {
		_ = ctx.Run(s.face.program.Prep)
	}
	ctx.CaptureDefaultGraphicsState()
	s.ttCtx = ctx
}

func yPpemPixels(p fixed.Int26_6) int32 { return int32(p.RoundToInt()) }
