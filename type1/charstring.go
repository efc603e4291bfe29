package type1

import (
	"math"

	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/outline"
)

// Type 1 charstring opcodes, per the Adobe Type 1 Font Format section 6.2
// and mirrored in t1gload.c's T1_Parse_CharStrings switch.
const (
	t1HStem       = 1
	t1VStem       = 3
	t1VMoveTo     = 4
	t1RLineTo     = 5
	t1HLineTo     = 6
	t1VLineTo     = 7
	t1RRCurveTo   = 8
	t1ClosePath   = 9
	t1CallSubr    = 10
	t1Return      = 11
	t1Escape      = 12
	t1HSBW        = 13
	t1EndChar     = 14
	t1RMoveTo     = 21
	t1HMoveTo     = 22
	t1VHCurveTo   = 30
	t1HVCurveTo   = 31

	t1EscDotSection     = 0
	t1EscVStem3         = 1
	t1EscHStem3         = 2
	t1EscSeac           = 6
	t1EscSBW            = 7
	t1EscDiv            = 12
	t1EscCallOtherSubr  = 16
	t1EscPop            = 17
	t1EscSetCurrentPoint = 33
)

const maxCharstringDepth = 20

// Glyphs resolves a glyph name to its decrypted charstring bytes and, for
// seac, the StandardEncoding code -> glyph name mapping; a font's private
// dict (Subrs array) is threaded in directly since Type 1 subroutine
// indices are plain array indices, no bias.
type Glyphs interface {
	CharstringByName(name string) []byte
	Subr(index int) []byte
	StandardEncodingName(code int) string
}

type builder struct {
	glyphs Glyphs
	out    *outline.Outline

	stack [32]float64
	sp    int

	psStack [32]float64 // callothersubr/pop argument-passing stack
	psSp    int

	x, y               float64
	sbx, sby           float64
	width              float64
	open               bool
	flexState          bool
	flexPts            []struct{ x, y float64 }
	flexStartX, flexStartY float64

	hStemWidths, vStemWidths []float64

	depth int

	seac *Seac
}

// Hints carries a decoded charstring's hstem/vstem operand widths, the raw
// data pshinter needs to build its stem-width snapping tables.
type Hints struct {
	HStemWidths []float64
	VStemWidths []float64
}

// Seac carries an endchar-seac's accented-character composition request:
// compose the base and accent glyphs (named by their StandardEncoding
// codes) with the accent offset by (Adx-Asb+sbx, Ady) from the base glyph's
// own origin, per the Adobe Type 1 Font Format's seac operator. Left
// unresolved here since it needs a second RunCharstring call and a way to
// name glyphs by code that only the face layer, not a single charstring
// builder, has both of.
type Seac struct {
	Asb, Adx, Ady float64
	BChar, AChar  int
}

// RunCharstring decodes a Type 1 charstring into an outline, in font
// design units (normally a 1000-unit em, per the font's FontMatrix). If the
// charstring ends with a seac composition request, the returned outline is
// empty and seac describes the composition for the caller to perform. width
// is the glyph's advance width as set by hsbw/sbw — a Type 1 font carries no
// separate hmtx-style table, so this is the only source of per-glyph
// advance width.
func RunCharstring(g Glyphs, code []byte) (out *outline.Outline, sbx, width float64, seac *Seac, err error) {
	out, sbx, width, seac, _, err = RunCharstringWithHints(g, code)
	return
}

// RunCharstringWithHints is RunCharstring plus the hstem/vstem widths the
// charstring declared, for callers (the face layer) that want to run a
// Postscript hinting pass over the result.
func RunCharstringWithHints(g Glyphs, code []byte) (out *outline.Outline, sbx, width float64, seac *Seac, hints Hints, err error) {
	b := &builder{glyphs: g, out: outline.New(0, 0)}
	if err := b.run(code); err != nil {
		return nil, 0, 0, nil, Hints{}, err
	}
	if b.open {
		if err := b.out.Close(); err != nil {
			return nil, 0, 0, nil, Hints{}, err
		}
	}
	return b.out, b.sbx, b.width, b.seac, Hints{HStemWidths: b.hStemWidths, VStemWidths: b.vStemWidths}, nil
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

func (b *builder) moveTo(dx, dy float64) error {
	b.x += dx
	b.y += dy
	if b.flexState {
		b.flexPts = append(b.flexPts, struct{ x, y float64 }{b.x, b.y})
		return nil
	}
	if b.open {
		if err := b.out.Close(); err != nil {
			return err
		}
	}
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

func f26(v float64) int32 {
	if v >= 0 {
		return int32(v + 0.5)
	}
	return -int32(-v + 0.5)
}

// flexHeightTolerance is the perpendicular distance (font design units,
// typically a 1000-unit em) below which a flex's reference point is
// considered collinear with its start/end points, matching the Type 1
// format's "flex height" test: a near-flat flex degrades to a single line
// rather than two nearly-straight curves.
const flexHeightTolerance = 1.0

func flexIsFlat(x0, y0, refX, refY, x1, y1 float64) bool {
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		return true
	}
	dist := math.Abs(dx*(y0-refY)-dy*(x0-refX)) / length
	return dist < flexHeightTolerance
}

func (b *builder) run(code []byte) error {
	b.depth++
	if b.depth > maxCharstringDepth {
		return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackOverflow)
	}
	defer func() { b.depth-- }()

	for i := 0; i < len(code); {
		v := code[i]
		switch {
		case v >= 32 && v <= 246:
			if err := b.push(float64(v) - 139); err != nil {
				return err
			}
			i++
			continue
		case v >= 247 && v <= 250:
			if i+1 >= len(code) {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidOpcode)
			}
			if err := b.push(float64(v-247)*256 + float64(code[i+1]) + 108); err != nil {
				return err
			}
			i += 2
			continue
		case v >= 251 && v <= 254:
			if i+1 >= len(code) {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidOpcode)
			}
			if err := b.push(-float64(v-251)*256 - float64(code[i+1]) - 108); err != nil {
				return err
			}
			i += 2
			continue
		case v == 255:
			if i+4 >= len(code) {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidOpcode)
			}
			n := int32(code[i+1])<<24 | int32(code[i+2])<<16 | int32(code[i+3])<<8 | int32(code[i+4])
			if err := b.push(float64(n)); err != nil {
				return err
			}
			i += 5
			continue
		}

		op := v
		i++
		switch op {
		case t1HStem:
			if b.sp >= 2 {
				b.hStemWidths = append(b.hStemWidths, math.Abs(b.stack[1]))
			}
			b.clear()

		case t1VStem:
			if b.sp >= 2 {
				b.vStemWidths = append(b.vStemWidths, math.Abs(b.stack[1]))
			}
			b.clear()

		case t1VMoveTo:
			if b.sp < 1 {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
			}
			if err := b.moveTo(0, b.stack[b.sp-1]); err != nil {
				return err
			}
			b.clear()

		case t1HMoveTo:
			if b.sp < 1 {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
			}
			if err := b.moveTo(b.stack[b.sp-1], 0); err != nil {
				return err
			}
			b.clear()

		case t1RMoveTo:
			if b.sp < 2 {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
			}
			if err := b.moveTo(b.stack[b.sp-2], b.stack[b.sp-1]); err != nil {
				return err
			}
			b.clear()

		case t1RLineTo:
			if b.sp >= 2 {
				b.lineTo(b.stack[0], b.stack[1])
			}
			b.clear()

		case t1HLineTo:
			if b.sp >= 1 {
				b.lineTo(b.stack[0], 0)
			}
			b.clear()

		case t1VLineTo:
			if b.sp >= 1 {
				b.lineTo(0, b.stack[0])
			}
			b.clear()

		case t1RRCurveTo:
			if b.sp >= 6 {
				b.curveTo(b.stack[0], b.stack[1], b.stack[2], b.stack[3], b.stack[4], b.stack[5])
			}
			b.clear()

		case t1VHCurveTo:
			if b.sp >= 4 {
				b.curveTo(0, b.stack[0], b.stack[1], b.stack[2], b.stack[3], 0)
			}
			b.clear()

		case t1HVCurveTo:
			if b.sp >= 4 {
				b.curveTo(b.stack[0], 0, b.stack[1], b.stack[2], 0, b.stack[3])
			}
			b.clear()

		case t1ClosePath:
			b.clear()

		case t1CallSubr:
			if b.sp < 1 {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
			}
			idx := int(b.stack[b.sp-1])
			b.sp--
			sub := b.glyphs.Subr(idx)
			if sub == nil {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidCodeRange)
			}
			if err := b.run(sub); err != nil {
				return err
			}

		case t1Return:
			return nil

		case t1HSBW:
			if b.sp < 2 {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
			}
			b.sbx = b.stack[0]
			b.width = b.stack[1]
			b.x, b.y = b.sbx, 0
			b.clear()

		case t1EndChar:
			return nil

		case t1Escape:
			if i >= len(code) {
				return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidOpcode)
			}
			esc := code[i]
			i++
			if err := b.runEscape(esc); err != nil {
				return err
			}

		default:
			return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidOpcode)
		}
	}
	return nil
}

func (b *builder) runEscape(esc byte) error {
	switch esc {
	case t1EscDotSection, t1EscVStem3, t1EscHStem3:
		b.clear()

	case t1EscSBW:
		if b.sp >= 4 {
			b.sbx, b.sby = b.stack[0], b.stack[1]
			b.width = b.stack[2]
			b.x, b.y = b.sbx, b.sby
		}
		b.clear()

	case t1EscSeac:
		// Accented character composition: asb adx ady bchar achar seac.
		// The base and accent glyphs are resolved by StandardEncoding code
		// and recursively decoded by the face layer, which holds the glyph
		// cache this needs; record the request and let execution continue
		// (endchar follows immediately in every font seac appears in).
		if b.sp >= 5 {
			b.seac = &Seac{
				Asb:   b.stack[b.sp-5],
				Adx:   b.stack[b.sp-4],
				Ady:   b.stack[b.sp-3],
				BChar: int(b.stack[b.sp-2]),
				AChar: int(b.stack[b.sp-1]),
			}
		}
		b.clear()

	case t1EscDiv:
		if b.sp >= 2 {
			num, den := b.stack[b.sp-2], b.stack[b.sp-1]
			b.sp -= 2
			if den != 0 {
				b.push(num / den)
			} else {
				b.push(0)
			}
		}

	case t1EscCallOtherSubr:
		if b.sp < 2 {
			return fontcore.New(fontcore.ModuleCharstring, fontcore.CodeStackUnderflow)
		}
		otherIdx := int(b.stack[b.sp-1])
		n := int(b.stack[b.sp-2])
		b.sp -= 2
		if n < 0 || n > b.sp {
			n = 0
		}
		args := append([]float64(nil), b.stack[b.sp-n:b.sp]...)
		b.sp -= n

		switch otherIdx {
		case 1: // start flex
			b.flexState = true
			b.flexPts = b.flexPts[:0]
			b.flexStartX, b.flexStartY = b.x, b.y
		case 2: // flex point accumulation, handled via moveTo above
		case 0: // end flex: 7 accumulated points (reference + two curves)
			b.flexState = false
			if len(b.flexPts) == 7 {
				p := b.flexPts
				if flexIsFlat(b.flexStartX, b.flexStartY, p[0].x, p[0].y, p[6].x, p[6].y) {
					b.out.AddPoint(f26(p[6].x), f26(p[6].y), outline.TagOnCurve)
				} else {
					b.out.AddPoint(f26(p[1].x), f26(p[1].y), outline.TagCubic)
					b.out.AddPoint(f26(p[2].x), f26(p[2].y), outline.TagCubic)
					b.out.AddPoint(f26(p[3].x), f26(p[3].y), outline.TagOnCurve)
					b.out.AddPoint(f26(p[4].x), f26(p[4].y), outline.TagCubic)
					b.out.AddPoint(f26(p[5].x), f26(p[5].y), outline.TagCubic)
					b.out.AddPoint(f26(p[6].x), f26(p[6].y), outline.TagOnCurve)
				}
				b.x, b.y = p[6].x, p[6].y
			}
			b.psStack[0], b.psStack[1] = b.x, b.y
			b.psSp = 2
			return nil
		case 3: // hint replacement: pushes subr# 3 back for the following pop/callsubr
			b.psStack[0] = 3
			b.psSp = 1
			return nil
		}
		b.psSp = 0
		for _, a := range args {
			if b.psSp < len(b.psStack) {
				b.psStack[b.psSp] = a
				b.psSp++
			}
		}

	case t1EscPop:
		if b.psSp > 0 {
			b.psSp--
			b.push(b.psStack[b.psSp])
		} else {
			b.push(0)
		}

	case t1EscSetCurrentPoint:
		if b.sp >= 2 {
			b.x, b.y = b.stack[0], b.stack[1]
		}
		b.clear()

	default:
		b.clear()
	}
	return nil
}
