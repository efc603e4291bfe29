package cff

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/outline"
)

// Type 2 charstring opcodes, per 5177.Type2.pdf Appendix A. There is no
// literal Type 2 interpreter source in the retrieved FreeType sources (only
// Type 1's t1gload.c, which this package's control-flow shape — a
// stack-machine glyph builder accumulating moveto/lineto/curveto calls into
// an outline — otherwise follows), so the opcode table itself is taken
// directly from the Type 2 Charstring Format specification.
const (
	t2HStem       = 1
	t2VStem       = 3
	t2VMoveTo     = 4
	t2RLineTo     = 5
	t2HLineTo     = 6
	t2VLineTo     = 7
	t2RRCurveTo   = 8
	t2CallSubr    = 10
	t2Return      = 11
	t2Escape      = 12
	t2EndChar     = 14
	t2HStemHM     = 18
	t2HintMask    = 19
	t2CntrMask    = 20
	t2RMoveTo     = 21
	t2HMoveTo     = 22
	t2VStemHM     = 23
	t2RCurveLine  = 24
	t2RLineCurve  = 25
	t2VVCurveTo   = 26
	t2HHCurveTo   = 27
	t2CallGSubr   = 29
	t2VHCurveTo   = 30
	t2HVCurveTo   = 31

	// Escape (12 N) operators.
	t2HFlex  = 34
	t2Flex   = 35
	t2HFlex1 = 36
	t2Flex1  = 37
)

const maxCharstringDepth = 10

// builder accumulates a Type 2 charstring execution into an outline,
// tracking the current point, hint count, and whether the initial moveto
// (and its optional leading width byte) has been consumed.
type builder struct {
	font *Font
	out  *outline.Outline

	stack    [48]float64
	sp       int
	x, y     float64
	nStems   int
	haveWidth bool
	width    float64
	open     bool
	nominalWidthX float64

	depth int

	seac *Seac

	hStemWidths, vStemWidths []float64
}

// Hints carries the hstem/vstem operand widths a Type 2 charstring
// declared, the raw material pshinter needs to build its stem-width
// snapping tables.
type Hints struct {
	HStemWidths []float64
	VStemWidths []float64
}

// stemWidths records the |dy| operand of each (y, dy) pair currently on the
// stack into dst, per 5177.Type2.pdf section 3.1's hstem/vstem argument
// list.
func stemWidths(dst []float64, stack []float64, sp int) []float64 {
	for i := 0; i+1 < sp; i += 2 {
		dst = append(dst, fabs(stack[i+1]))
	}
	return dst
}

// Seac carries a 4-argument endchar's accent-composition request (Type 2's
// seac-like extension, 5177.Type2.pdf Appendix C): compose the base and
// accent glyphs named by their StandardEncoding codes, offsetting the
// accent by (Adx, Ady) from the base glyph's origin. Composition needs the
// Standard Encoding table and a second RunCharstring call this package
// doesn't itself have access to, so it's left for the caller.
type Seac struct {
	Adx, Ady     float64
	BChar, AChar int
}

// RunCharstring decodes glyph gid's Type 2 charstring into an outline in
// character-space units (the font's FontMatrix, typically 1/1000 em, is
// left for the caller to apply). If the charstring is a 4-argument endchar
// accent composition, the returned outline is empty and seac describes the
// composition for the caller to perform.
func (f *Font) RunCharstring(gid int) (out *outline.Outline, width float64, seac *Seac, err error) {
	out, width, seac, _, err = f.RunCharstringWithHints(gid)
	return
}

// RunCharstringWithHints is RunCharstring plus the hstem/vstem widths the
// charstring declared, for callers (the face layer) that run a Postscript
// hinting pass over the decoded outline.
func (f *Font) RunCharstringWithHints(gid int) (out *outline.Outline, width float64, seac *Seac, hints Hints, err error) {
	cs := f.CharStrings.Get(gid)
	if cs == nil {
		return nil, 0, nil, Hints{}, fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidGlyphIndex)
	}
	b := &builder{font: f, out: outline.New(0, 0), nominalWidthX: f.NominalWidthX, width: f.DefaultWidthX}
	if err := b.run(cs); err != nil {
		return nil, 0, nil, Hints{}, err
	}
	if b.open {
		if err := b.out.Close(); err != nil {
			return nil, 0, nil, Hints{}, err
		}
	}
	return b.out, b.width, b.seac, Hints{HStemWidths: b.hStemWidths, VStemWidths: b.vStemWidths}, nil
}

func (b *builder) push(v float64) error {
	if b.sp >= len(b.stack) {
		return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackOverflow)
	}
	b.stack[b.sp] = v
	b.sp++
	return nil
}

func (b *builder) clear() { b.sp = 0 }

// takeWidth consumes a leading width argument if the operand count is odd
// (for stem hints and masks, evenArgs < 0) or exceeds the operator's fixed
// arity evenArgs (for rmoveto/hmoveto/vmoveto and endchar), per
// 5177.Type2.pdf section 2.2.
func (b *builder) takeWidth(evenArgs int) {
	if b.haveWidth {
		return
	}
	b.haveWidth = true
	if (evenArgs < 0 && b.sp%2 == 1) || (evenArgs >= 0 && b.sp > evenArgs) {
		b.width = b.nominalWidthX + b.stack[0]
		copy(b.stack[:b.sp-1], b.stack[1:b.sp])
		b.sp--
	}
}

func (b *builder) moveTo(dx, dy float64) error {
	if b.open {
		if err := b.out.Close(); err != nil {
			return err
		}
	}
	b.x += dx
	b.y += dy
	b.out.AddPoint(f26(b.x), f26(b.y), outline.TagOnCurve)
	b.open = true
	return nil
}

func (b *builder) lineTo(dx, dy float64) {
	b.x += dx
	b.y += dy
	b.out.AddPoint(f26(b.x), f26(b.y), outline.TagOnCurve)
}

func (b *builder) curveTo(dx1, dy1, dx2, dy2, dx3, dy3 float64) {
	x1, y1 := b.x+dx1, b.y+dy1
	x2, y2 := x1+dx2, y1+dy2
	b.x, b.y = x2+dx3, y2+dy3
	b.out.AddPoint(f26(x1), f26(y1), outline.TagCubic)
	b.out.AddPoint(f26(x2), f26(y2), outline.TagCubic)
	b.out.AddPoint(f26(b.x), f26(b.y), outline.TagOnCurve)
}

// f26 converts a charstring coordinate (in font design units, typically a
// 1000-unit em) to the 26.6-compatible int32 the outline model stores;
// since charstring coordinates are already integral font units in the vast
// majority of fonts, this keeps fractional deltas by rounding to the
// nearest unit rather than truncating.
func f26(v float64) int32 {
	if v >= 0 {
		return int32(v + 0.5)
	}
	return -int32(-v + 0.5)
}

func fabs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (b *builder) run(code []byte) error {
	b.depth++
	if b.depth > maxCharstringDepth {
		return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackOverflow)
	}
	defer func() { b.depth-- }()

	for len(code) > 0 {
		b0 := code[0]
		if b0 >= 32 || b0 == 28 {
			v, _, _, n, ok := parseNumber(code)
			if !ok {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidOpcode)
			}
			if err := b.push(v); err != nil {
				return err
			}
			code = code[n:]
			continue
		}

		code = code[1:]
		switch b0 {
		case t2HStem, t2HStemHM:
			b.takeWidth(-1)
			b.hStemWidths = stemWidths(b.hStemWidths, b.stack[:], b.sp)
			b.nStems += b.sp / 2
			b.clear()

		case t2VStem, t2VStemHM:
			b.takeWidth(-1)
			b.vStemWidths = stemWidths(b.vStemWidths, b.stack[:], b.sp)
			b.nStems += b.sp / 2
			b.clear()

		case t2HintMask, t2CntrMask:
			b.takeWidth(-1)
			// An implicit vstem hint list may precede the mask bytes
			// (5177.Type2.pdf section 3.3).
			b.vStemWidths = stemWidths(b.vStemWidths, b.stack[:], b.sp)
			b.nStems += b.sp / 2
			b.clear()
			nbytes := (b.nStems + 7) / 8
			if nbytes > len(code) {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidOpcode)
			}
			code = code[nbytes:]

		case t2RMoveTo:
			b.takeWidth(2)
			if b.sp < 2 {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
			}
			if err := b.moveTo(b.stack[0], b.stack[1]); err != nil {
				return err
			}
			b.clear()

		case t2HMoveTo:
			b.takeWidth(1)
			if b.sp < 1 {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
			}
			if err := b.moveTo(b.stack[0], 0); err != nil {
				return err
			}
			b.clear()

		case t2VMoveTo:
			b.takeWidth(1)
			if b.sp < 1 {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
			}
			if err := b.moveTo(0, b.stack[0]); err != nil {
				return err
			}
			b.clear()

		case t2RLineTo:
			for i := 0; i+1 < b.sp; i += 2 {
				b.lineTo(b.stack[i], b.stack[i+1])
			}
			b.clear()

		case t2HLineTo, t2VLineTo:
			horiz := b0 == t2HLineTo
			for i := 0; i < b.sp; i++ {
				if horiz {
					b.lineTo(b.stack[i], 0)
				} else {
					b.lineTo(0, b.stack[i])
				}
				horiz = !horiz
			}
			b.clear()

		case t2RRCurveTo:
			for i := 0; i+5 < b.sp; i += 6 {
				b.curveTo(b.stack[i], b.stack[i+1], b.stack[i+2], b.stack[i+3], b.stack[i+4], b.stack[i+5])
			}
			b.clear()

		case t2RCurveLine:
			i := 0
			for ; i+5 < b.sp-2; i += 6 {
				b.curveTo(b.stack[i], b.stack[i+1], b.stack[i+2], b.stack[i+3], b.stack[i+4], b.stack[i+5])
			}
			if i+1 < b.sp {
				b.lineTo(b.stack[i], b.stack[i+1])
			}
			b.clear()

		case t2RLineCurve:
			i := 0
			for ; i+1 < b.sp-6; i += 2 {
				b.lineTo(b.stack[i], b.stack[i+1])
			}
			if i+5 < b.sp {
				b.curveTo(b.stack[i], b.stack[i+1], b.stack[i+2], b.stack[i+3], b.stack[i+4], b.stack[i+5])
			}
			b.clear()

		case t2VVCurveTo:
			i := 0
			dx1 := 0.0
			if b.sp%4 == 1 {
				dx1 = b.stack[0]
				i = 1
			}
			for ; i+3 < b.sp; i += 4 {
				b.curveTo(dx1, b.stack[i], b.stack[i+1], b.stack[i+2], 0, b.stack[i+3])
				dx1 = 0
			}
			b.clear()

		case t2HHCurveTo:
			i := 0
			dy1 := 0.0
			if b.sp%4 == 1 {
				dy1 = b.stack[0]
				i = 1
			}
			for ; i+3 < b.sp; i += 4 {
				b.curveTo(b.stack[i], dy1, b.stack[i+1], b.stack[i+2], b.stack[i+3], 0)
				dy1 = 0
			}
			b.clear()

		case t2VHCurveTo, t2HVCurveTo:
			horiz := b0 == t2HVCurveTo
			i := 0
			for ; i+3 < b.sp; i += 4 {
				last := i+4 >= b.sp-1
				var lastVal float64
				if last && i+4 == b.sp-1 {
					lastVal = b.stack[b.sp-1]
				}
				if horiz {
					b.curveTo(b.stack[i], 0, b.stack[i+1], b.stack[i+2], lastVal, b.stack[i+3])
				} else {
					b.curveTo(0, b.stack[i], b.stack[i+1], b.stack[i+2], b.stack[i+3], lastVal)
				}
				horiz = !horiz
			}
			b.clear()

		case t2CallSubr:
			if b.sp < 1 {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
			}
			idx := int32(b.stack[b.sp-1]) + b.font.LocalBias()
			b.sp--
			sub := b.font.LocalSubrs.Get(int(idx))
			if sub == nil {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidCodeRange)
			}
			if err := b.run(sub); err != nil {
				return err
			}

		case t2CallGSubr:
			if b.sp < 1 {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
			}
			idx := int32(b.stack[b.sp-1]) + b.font.GlobalBias()
			b.sp--
			sub := b.font.GlobalSubrs.Get(int(idx))
			if sub == nil {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidCodeRange)
			}
			if err := b.run(sub); err != nil {
				return err
			}

		case t2Return:
			return nil

		case t2EndChar:
			if b.sp >= 4 {
				b.takeWidth(4)
				if b.sp >= 4 {
					b.seac = &Seac{
						Adx:   b.stack[b.sp-4],
						Ady:   b.stack[b.sp-3],
						BChar: int(b.stack[b.sp-2]),
						AChar: int(b.stack[b.sp-1]),
					}
				}
			} else {
				b.takeWidth(0)
			}
			return nil

		case t2Escape:
			if len(code) == 0 {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidOpcode)
			}
			escOp := code[0]
			code = code[1:]
			switch escOp {
			case t2HFlex:
				if b.sp < 7 {
					return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
				}
				dx1, dx2, dy2, dx3 := b.stack[0], b.stack[1], b.stack[2], b.stack[3]
				dx4, dx5, dx6 := b.stack[4], b.stack[5], b.stack[6]
				b.curveTo(dx1, 0, dx2, dy2, dx3, 0)
				b.curveTo(dx4, 0, dx5, -dy2, dx6, 0)

			case t2Flex:
				if b.sp < 13 {
					return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
				}
				b.curveTo(b.stack[0], b.stack[1], b.stack[2], b.stack[3], b.stack[4], b.stack[5])
				b.curveTo(b.stack[6], b.stack[7], b.stack[8], b.stack[9], b.stack[10], b.stack[11])

			case t2HFlex1:
				if b.sp < 9 {
					return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
				}
				dx1, dy1, dx2, dy2, dx3 := b.stack[0], b.stack[1], b.stack[2], b.stack[3], b.stack[4]
				dx4, dx5, dy5, dx6 := b.stack[5], b.stack[6], b.stack[7], b.stack[8]
				b.curveTo(dx1, dy1, dx2, dy2, dx3, 0)
				b.curveTo(dx4, 0, dx5, dy5, dx6, -(dy1 + dy2 + dy5))

			case t2Flex1:
				if b.sp < 11 {
					return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
				}
				dx1, dy1, dx2, dy2, dx3, dy3 := b.stack[0], b.stack[1], b.stack[2], b.stack[3], b.stack[4], b.stack[5]
				dx4, dy4, dx5, dy5, d6 := b.stack[6], b.stack[7], b.stack[8], b.stack[9], b.stack[10]
				dx := dx1 + dx2 + dx3 + dx4 + dx5
				dy := dy1 + dy2 + dy3 + dy4 + dy5
				var dx6, dy6 float64
				if fabs(dx) > fabs(dy) {
					dx6, dy6 = d6, -dy
				} else {
					dx6, dy6 = -dx, d6
				}
				b.curveTo(dx1, dy1, dx2, dy2, dx3, dy3)
				b.curveTo(dx4, dy4, dx5, dy5, dx6, dy6)

			default:
				// Arithmetic/logical escape operators (and, or, not, abs, add,
				// sub, div, neg, eq, drop, put, get, ifelse, random, mul,
				// sqrt, dup, exch, index, roll) never appear in font-produced
				// charstrings; treated as a no-op.
			}
			b.clear()

		default:
			return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidOpcode)
		}
	}
	return nil
}
